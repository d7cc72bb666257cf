// Package config provides the ambient configuration surface of the
// streamtree runtime and its example collaborators (SPEC_FULL.md §1.C):
// YAML-backed settings plus .env loading, in the teacher's
// unified-config-with-per-section-defaults style.
package config

// Section is the interface every configuration section implements, the
// same Validate/SetDefaults shape the teacher applies uniformly across
// its provider, agent, and workflow config types.
type Section interface {
	Validate() error
	SetDefaults()
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the single entry point for all ambient configuration
// (SPEC_FULL.md §1.C), the same "one root struct, one YAML file" shape
// the teacher uses for its own top-level Config.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Providers ProviderConfigs `yaml:"providers,omitempty"`
	ToolRun   ToolRunConfig   `yaml:"toolrun,omitempty"`
	DocQA     DocQAConfig     `yaml:"docqa,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
}

func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Providers.Validate(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	if err := c.ToolRun.Validate(); err != nil {
		return fmt.Errorf("toolrun: %w", err)
	}
	if err := c.DocQA.Validate(); err != nil {
		return fmt.Errorf("docqa: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Providers.SetDefaults()
	c.ToolRun.SetDefaults()
	c.DocQA.SetDefaults()
	c.Server.SetDefaults()
}

// Load reads, expands, and validates a streamtree config file. It loads
// .env/.env.local first (LoadEnvFiles) so ${VAR} references in the YAML
// resolve against them, the same ordering the teacher uses in cmd/hector.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	expanded := ExpandEnvVarsInData(generic)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: re-encode %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(reencoded, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

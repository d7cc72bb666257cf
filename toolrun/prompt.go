package toolrun

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt renders the instructions a decision element's ChatModel
// needs to follow the one-JSON-envelope-per-turn protocol NewDecision
// parses: providers/anthropic, providers/openai and providers/gemini have
// no native function-calling wiring in this core, so the tool-call
// protocol is carried entirely in the prompt rather than in a
// vendor-specific "tools" request field.
func SystemPrompt(tools []Tool) string {
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, respond with exactly one JSON object of the form {\"tool\": \"<name>\", \"args\": {...}} and nothing else. Otherwise, respond with your final answer as plain text.\n\n")
	for _, t := range tools {
		schema, _ := json.Marshal(t.Schema())
		fmt.Fprintf(&b, "- %s: %s\n  args schema: %s\n", t.Name(), t.Description(), schema)
	}
	return b.String()
}

package config

import "fmt"

// LoggingConfig controls the base logger package logging builds
// (SPEC_FULL.md §1.A), mirroring the teacher's LoggingConfig shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
}

// AnthropicConfig configures the providers/anthropic ChatModel
// collaborator (SPEC_FULL.md §3.F).
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

func (c *AnthropicConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}

func (c *AnthropicConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "claude-sonnet-4-5"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
}

// OpenAIConfig configures the providers/openai ChatModel collaborator.
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	MaxTokens int    `yaml:"max_tokens"`
}

func (c *OpenAIConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}

func (c *OpenAIConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
}

// GeminiConfig configures the providers/gemini ChatModel collaborator.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

func (c *GeminiConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func (c *GeminiConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
}

// ProviderConfigs collects the configured ChatModel collaborators. A
// provider section left nil is simply not wired up by cmd/streamtree.
type ProviderConfigs struct {
	Anthropic *AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    *OpenAIConfig    `yaml:"openai,omitempty"`
	Gemini    *GeminiConfig    `yaml:"gemini,omitempty"`
}

func (c *ProviderConfigs) Validate() error {
	if c.Anthropic != nil {
		if err := c.Anthropic.Validate(); err != nil {
			return fmt.Errorf("anthropic provider: %w", err)
		}
	}
	if c.OpenAI != nil {
		if err := c.OpenAI.Validate(); err != nil {
			return fmt.Errorf("openai provider: %w", err)
		}
	}
	if c.Gemini != nil {
		if err := c.Gemini.Validate(); err != nil {
			return fmt.Errorf("gemini provider: %w", err)
		}
	}
	return nil
}

func (c *ProviderConfigs) SetDefaults() {
	if c.Anthropic != nil {
		c.Anthropic.SetDefaults()
	}
	if c.OpenAI != nil {
		c.OpenAI.SetDefaults()
	}
	if c.Gemini != nil {
		c.Gemini.SetDefaults()
	}
}

// MCPServerConfig names one MCP server the toolrun collaborator should
// discover tools from (SPEC_FULL.md §3.F toolrun/).
type MCPServerConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

func (c *MCPServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Command == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

// ToolRunConfig configures the toolrun collaborator's tool-use loop.
type ToolRunConfig struct {
	MCPServers   []MCPServerConfig `yaml:"mcp_servers,omitempty"`
	MaxToolCalls int               `yaml:"max_tool_calls"`
}

func (c *ToolRunConfig) Validate() error {
	if c.MaxToolCalls < 0 {
		return fmt.Errorf("max_tool_calls must be non-negative")
	}
	for i, s := range c.MCPServers {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("mcp_servers[%d]: %w", i, err)
		}
	}
	return nil
}

func (c *ToolRunConfig) SetDefaults() {
	if c.MaxToolCalls == 0 {
		c.MaxToolCalls = 8
	}
}

// DocQAConfig configures the docqa retrieval collaborator's embedded
// chromem-go store.
type DocQAConfig struct {
	CollectionName string `yaml:"collection_name"`
	PersistPath    string `yaml:"persist_path,omitempty"`
	TopK           int    `yaml:"top_k"`
}

func (c *DocQAConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	return nil
}

func (c *DocQAConfig) SetDefaults() {
	if c.CollectionName == "" {
		c.CollectionName = "streamtree-docs"
	}
	if c.TopK == 0 {
		c.TopK = 4
	}
}

// ServerConfig configures cmd/streamtree-server's chi HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

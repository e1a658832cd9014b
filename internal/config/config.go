package config

import "encoding/json"

// Config represents the main sentineld configuration.
type Config struct {
	// Workspace opened at startup; empty means wait for workspace.set.
	WorkspacePath string `json:"workspace_path" mapstructure:"workspace_path"`

	// Data directory for logs and daemon state.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Gateway     GatewayConfig     `json:"gateway" mapstructure:"gateway"`
	LLM         LLMConfig         `json:"llm" mapstructure:"llm"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
	Maintenance MaintenanceConfig `json:"maintenance" mapstructure:"maintenance"`
}

// GatewayConfig holds the JSON-RPC gateway configuration.
type GatewayConfig struct {
	Port         int    `json:"port" mapstructure:"port"`
	SharedSecret string `json:"shared_secret" mapstructure:"shared_secret"`
}

// LLMConfig holds credentials for the external LLM providers. The
// OpenAI-compatible endpoint serves embeddings and, by default,
// extraction; an Anthropic key switches extraction to Claude.
type LLMConfig struct {
	APIKey          string `json:"api_key" mapstructure:"api_key"`
	BaseURL         string `json:"base_url" mapstructure:"base_url"`
	Model           string `json:"model" mapstructure:"model"`
	EmbeddingModel  string `json:"embedding_model" mapstructure:"embedding_model"`
	AnthropicAPIKey string `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// MaintenanceConfig holds the store upkeep schedule.
type MaintenanceConfig struct {
	// Cron expression; empty disables scheduled maintenance.
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Port: 8315,
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "openai/text-embedding-3-small",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Maintenance: MaintenanceConfig{
			Schedule: "0 3 * * *",
		},
	}
}

// String renders the config as JSON with secrets masked.
func (c *Config) String() string {
	clone := *c
	if clone.LLM.APIKey != "" {
		clone.LLM.APIKey = "***"
	}
	if clone.LLM.AnthropicAPIKey != "" {
		clone.LLM.AnthropicAPIKey = "***"
	}
	if clone.Gateway.SharedSecret != "" {
		clone.Gateway.SharedSecret = "***"
	}
	data, _ := json.MarshalIndent(&clone, "", "  ")
	return string(data)
}

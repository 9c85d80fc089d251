package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for aeromesh.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Routing RoutingConfig `mapstructure:"routing"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Storage StorageConfig `mapstructure:"storage"`
	Tenants TenantsConfig `mapstructure:"tenants"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ModelConfig selects the reasoning model provider and its credentials.
type ModelConfig struct {
	// Provider is one of "anthropic", "openai" or "mock".
	Provider  string          `mapstructure:"provider"`
	Name      string          `mapstructure:"name"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Bedrock routes requests through AWS Bedrock using the default
	// credential chain instead of the API key.
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// RoutingConfig tunes orchestrator target selection.
type RoutingConfig struct {
	MinScore int `mapstructure:"min_score"`
	// ModelRouter enables LLM-backed routing with keyword fallback.
	ModelRouter bool `mapstructure:"model_router"`
}

// RunnerConfig holds task execution settings.
type RunnerConfig struct {
	EventBufferSize int           `mapstructure:"event_buffer_size"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	SubtaskTimeout  time.Duration `mapstructure:"subtask_timeout"`
}

// StorageConfig selects the task store backend.
type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// TenantsConfig points at the tenant registry file.
type TenantsConfig struct {
	// File is the path to tenants.yaml. Empty serves the built-in default
	// tenant.
	File string `mapstructure:"file"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from defaults, an optional aeromesh.yaml found in
// the working directory or the user config directory, and environment
// variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("aeromesh")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// Default returns a Config carrying only the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Model:  ModelConfig{Provider: "anthropic"},
		Routing: RoutingConfig{
			MinScore: 1,
		},
		Runner: RunnerConfig{
			EventBufferSize: 100,
			DispatchTimeout: 2 * time.Minute,
			SubtaskTimeout:  45 * time.Second,
		},
		Storage: StorageConfig{Driver: "sqlite", Path: "aeromesh.db"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func unmarshal(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in credentials
	cfg.Model.Anthropic.APIKey = os.ExpandEnv(cfg.Model.Anthropic.APIKey)
	cfg.Model.OpenAI.APIKey = os.ExpandEnv(cfg.Model.OpenAI.APIKey)

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("AEROMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional credential variables without the prefix
	v.BindEnv("model.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("model.openai.api_key", "OPENAI_API_KEY")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("model.provider", "anthropic")
	v.SetDefault("model.name", "")
	v.SetDefault("model.anthropic.api_key", "")
	v.SetDefault("model.anthropic.bedrock", false)
	v.SetDefault("model.anthropic.aws_region", "")
	v.SetDefault("model.anthropic.aws_profile", "")
	v.SetDefault("model.openai.api_key", "")

	v.SetDefault("routing.min_score", 1)
	v.SetDefault("routing.model_router", false)

	v.SetDefault("runner.event_buffer_size", 100)
	v.SetDefault("runner.dispatch_timeout", "2m")
	v.SetDefault("runner.subtask_timeout", "45s")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "aeromesh.db")

	v.SetDefault("tenants.file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aeromesh")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "aeromesh")
	}
	return filepath.Join(home, ".config", "aeromesh")
}

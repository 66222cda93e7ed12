package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "PAGEFORGE_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PAGEFORGE_*). A double underscore
// descends one level: PAGEFORGE_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderGoogle:     true,
	ProviderOllama:     true,
	ProviderMiniMax:    true,
	ProviderOpenRouter: true,
}

// validQualityTiers is the set of recognized quality tier values.
var validQualityTiers = map[QualityTier]bool{
	QualityLite:   true,
	QualityNormal: true,
	QualityMax:    true,
}

var validLogLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"": true, "text": true, "json": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama, minimax, openrouter", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Quality != "" && !validQualityTiers[c.Quality] {
		return fmt.Errorf("invalid quality %q: must be one of lite, normal, max", c.Quality)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("server.request_timeout_seconds must be non-negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be non-negative")
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.requests_per_minute and server.burst must be non-negative")
	}

	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens must be non-negative")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2")
	}
	if c.Generation.UpstreamRPM < 0 {
		return fmt.Errorf("generation.upstream_rpm must be non-negative")
	}

	if c.Render.TimeoutSeconds < 0 {
		return fmt.Errorf("render.timeout_seconds must be non-negative")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	return nil
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pageforge.db")
}

// RequestTimeout returns the per-request deadline applied by the server.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// RenderTimeout returns the deadline for one headless render.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderMiniMax:
		return "MINIMAX_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

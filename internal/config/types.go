package config

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderMiniMax    ProviderType = "minimax"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Config is the top-level pageforge configuration, corresponding to .pageforge.yml.
type Config struct {
	Provider   ProviderType     `yaml:"provider" koanf:"provider"`
	Model      string           `yaml:"model" koanf:"model"`
	Quality    QualityTier      `yaml:"quality" koanf:"quality"`
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Generation GenerationConfig `yaml:"generation" koanf:"generation"`
	Render     RenderConfig     `yaml:"render" koanf:"render"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                  int   `yaml:"port" koanf:"port"`
	AllowAllOrigins       bool  `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeoutSeconds int   `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	MaxBodyBytes          int64 `yaml:"max_body_bytes" koanf:"max_body_bytes"`
	// RequestsPerMinute is a per-client budget for the generation endpoints.
	// Zero disables client limiting.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Burst             int `yaml:"burst" koanf:"burst"`
}

// GenerationConfig holds model call parameters.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature float64 `yaml:"temperature" koanf:"temperature"`
	// SanitizeStream strips fence markers from the create stream as well as
	// from edit results.
	SanitizeStream bool `yaml:"sanitize_stream" koanf:"sanitize_stream"`
	// UpstreamRPM caps requests per minute to the provider. Zero disables it.
	UpstreamRPM int `yaml:"upstream_rpm" koanf:"upstream_rpm"`
}

// RenderConfig controls the headless renderer.
type RenderConfig struct {
	Headless       bool   `yaml:"headless" koanf:"headless"`
	ChromePath     string `yaml:"chrome_path" koanf:"chrome_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	ViewportWidth  int    `yaml:"viewport_width" koanf:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" koanf:"viewport_height"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

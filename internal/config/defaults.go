package config

// qualityPresets maps each provider+quality combination to its model.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-6",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4o",
	},
	ProviderGoogle: {
		QualityLite:   "gemini-1.5-flash",
		QualityNormal: "gemini-2.0-flash",
		QualityMax:    "gemini-1.5-pro",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
	ProviderMiniMax: {
		QualityLite:   "MiniMax-M2.5-highspeed",
		QualityNormal: "MiniMax-M2.5",
		QualityMax:    "MiniMax-M2.5",
	},
	ProviderOpenRouter: {
		QualityLite:   "google/gemini-flash-1.5",
		QualityNormal: "anthropic/claude-sonnet-4.5",
		QualityMax:    "anthropic/claude-opus-4",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGoogle,
		Model:    "gemini-1.5-flash",
		Quality:  QualityLite,
		DataDir:  ".pageforge",
		Server: ServerConfig{
			Port:                  8080,
			RequestTimeoutSeconds: 120,
			MaxBodyBytes:          1 << 20,
			RequestsPerMinute:     30,
			Burst:                 5,
		},
		Generation: GenerationConfig{
			MaxTokens:   8192,
			Temperature: 0.7,
			UpstreamRPM: 60,
		},
		Render: RenderConfig{
			TimeoutSeconds: 30,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// PresetModel returns the model for the given provider and tier.
// Falls back to the default Google lite model if the combination is unknown.
func PresetModel(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderGoogle][QualityLite]
}

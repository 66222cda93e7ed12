package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Model != "gemini-1.5-flash" {
		t.Errorf("expected default model gemini-1.5-flash, got %q", cfg.Model)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Generation.SanitizeStream {
		t.Error("stream sanitization should be off by default")
	}
	if cfg.DBPath() != filepath.Join(".pageforge", "pageforge.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
	if cfg.RequestTimeout() != 120*time.Second {
		t.Errorf("expected 120s request timeout, got %v", cfg.RequestTimeout())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pageforge.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.DataDir = "data"
	original.Server.Port = 9090
	original.Server.AllowAllOrigins = true
	original.Generation.Temperature = 0.2
	original.Generation.SanitizeStream = true
	original.Render.Headless = true
	original.Log.Format = "json"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Server.Port != 9090 || !loaded.Server.AllowAllOrigins {
		t.Errorf("server: got %+v", loaded.Server)
	}
	if loaded.Generation.Temperature != 0.2 || !loaded.Generation.SanitizeStream {
		t.Errorf("generation: got %+v", loaded.Generation)
	}
	if !loaded.Render.Headless {
		t.Error("render.headless should round-trip")
	}
	if loaded.Log.Format != "json" {
		t.Errorf("log.format: got %q", loaded.Log.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PAGEFORGE_PROVIDER", "openai")
	t.Setenv("PAGEFORGE_SERVER__PORT", "7070")
	t.Setenv("PAGEFORGE_GENERATION__SANITIZE_STREAM", "true")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("nested env override failed: got port %d", loaded.Server.Port)
	}
	if !loaded.Generation.SanitizeStream {
		t.Error("nested bool env override failed")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PAGEFORGE_MODEL":                  "model",
		"PAGEFORGE_SERVER__PORT":           "server.port",
		"PAGEFORGE_LOG__LEVEL":             "log.level",
		"PAGEFORGE_RENDER__CHROME_PATH":    "render.chrome_path",
		"PAGEFORGE_GENERATION__MAX_TOKENS": "generation.max_tokens",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"invalid quality", func(c *Config) { c.Quality = "ultra" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"negative body limit", func(c *Config) { c.Server.MaxBodyBytes = -1 }},
		{"negative rpm", func(c *Config) { c.Server.RequestsPerMinute = -1 }},
		{"negative max tokens", func(c *Config) { c.Generation.MaxTokens = -5 }},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }},
		{"negative upstream rpm", func(c *Config) { c.Generation.UpstreamRPM = -1 }},
		{"negative render timeout", func(c *Config) { c.Render.TimeoutSeconds = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidateAllProviders(t *testing.T) {
	for _, p := range []ProviderType{ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama, ProviderMiniMax, ProviderOpenRouter} {
		cfg := DefaultConfig()
		cfg.Provider = p
		cfg.Model = PresetModel(p, QualityNormal)
		if err := cfg.Validate(); err != nil {
			t.Errorf("provider %q should be valid: %v", p, err)
		}
	}
}

func TestPresetModelFallback(t *testing.T) {
	if got := PresetModel("unknown", QualityMax); got != "gemini-1.5-flash" {
		t.Errorf("expected fallback model, got %q", got)
	}
	if got := PresetModel(ProviderOpenAI, QualityLite); got != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %q", got)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderMiniMax, "MINIMAX_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	if err := validatePort("8080"); err != nil {
		t.Errorf("8080 should be valid: %v", err)
	}
	for _, bad := range []string{"", "abc", "0", "65536"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}

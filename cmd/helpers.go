package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ziadkadry99/pageforge/internal/client"
	"github.com/ziadkadry99/pageforge/internal/config"
	"github.com/ziadkadry99/pageforge/internal/db"
	"github.com/ziadkadry99/pageforge/internal/generate"
	"github.com/ziadkadry99/pageforge/internal/history"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/logging"
	"github.com/ziadkadry99/pageforge/internal/render"
	"github.com/ziadkadry99/pageforge/internal/session"
)

// loadConfig loads and validates the config and configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pageforge init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, wrapped in the upstream rate limiter when one is configured.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Generation.UpstreamRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.Generation.UpstreamRPM)
	}
	return provider, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// newGateway builds the in-process gateway. recorder may be nil.
func newGateway(cfg *config.Config, provider llm.Provider, recorder generate.Recorder) *generate.Gateway {
	return generate.New(provider, generate.Options{
		Model:          cfg.Model,
		MaxTokens:      cfg.Generation.MaxTokens,
		Temperature:    cfg.Generation.Temperature,
		SanitizeStream: cfg.Generation.SanitizeStream,
		Recorder:       recorder,
	})
}

// backendEnv is what a command needs to generate: a backend plus, when
// running in process, the database it records to.
type backendEnv struct {
	Backend  session.Backend
	Database *db.DB
}

func (e *backendEnv) Close() {
	if e.Database != nil {
		e.Database.Close()
	}
}

// openBackend talks to serverURL when it is set and otherwise runs the
// gateway in process, recording history to the local database.
func openBackend(cfg *config.Config, serverURL string) (*backendEnv, error) {
	if serverURL != "" {
		logging.Debugf("using pageforge server at %s", serverURL)
		return &backendEnv{Backend: client.New(serverURL)}, nil
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	gw := newGateway(cfg, provider, history.NewStore(database))
	return &backendEnv{Backend: gw, Database: database}, nil
}

// newHeadless returns the chromedp renderer described by the config.
func newHeadless(cfg *config.Config) (*render.Headless, error) {
	return render.NewHeadless(render.HeadlessOptions{
		ChromePath: cfg.Render.ChromePath,
		Timeout:    cfg.RenderTimeout(),
		Width:      cfg.Render.ViewportWidth,
		Height:     cfg.Render.ViewportHeight,
	})
}

// readPrompt joins args, or reads stdin when there are none and it is
// not a terminal.
func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("a prompt is required")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// newRenderer writes documents to path and, when headless rendering is
// enabled, also loads them in Chrome so script errors surface early.
func newRenderer(cfg *config.Config, path, title string, raw bool) render.Renderer {
	renderers := render.Multi{&render.FileRenderer{Path: path, Title: title, Raw: raw}}
	if cfg.Render.Headless {
		h, err := newHeadless(cfg)
		if err != nil {
			logging.Warnf("headless rendering disabled: %v", err)
		} else {
			renderers = append(renderers, h)
		}
	}
	return renderers
}

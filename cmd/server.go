package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageforge/internal/generate"
	"github.com/ziadkadry99/pageforge/internal/history"
	"github.com/ziadkadry99/pageforge/internal/logging"
	"github.com/ziadkadry99/pageforge/internal/server"
	"github.com/ziadkadry99/pageforge/internal/session"
	"github.com/ziadkadry99/pageforge/internal/workspace"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the generation API and browser workspace",
	Long: `Starts the HTTP server: the generate, edit and visualize endpoints, the
generation history API, and the browser workspace with live preview.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Server.Port = serverPort
		}

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:              cfg.Server.Port,
			AllowAll:          cfg.Server.AllowAllOrigins,
			RequestTimeout:    cfg.RequestTimeout(),
			RequestsPerMinute: cfg.Server.RequestsPerMinute,
			Burst:             cfg.Server.Burst,
		}, database)

		historyStore := history.NewStore(database)
		gw := newGateway(cfg, provider, historyStore)

		generate.RegisterRoutes(srv.Generation(), gw, cfg.Server.MaxBodyBytes)
		history.RegisterRoutes(srv.Router(), historyStore)
		workspace.New(gw, session.NewSQLStore(database)).
			WithRequestTimeout(cfg.RequestTimeout()).
			RegisterRoutes(srv.Router())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		fmt.Fprintf(os.Stderr, "pageforge server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", provider.Name(), cfg.Model)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Workspace: http://localhost:%d/\n", cfg.Server.Port)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logging.Infof("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return <-errCh
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}

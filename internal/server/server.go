package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/pageforge/internal/db"
	"github.com/ziadkadry99/pageforge/internal/logging"
)

// Config holds server configuration.
type Config struct {
	Port              int
	AllowAll          bool          // allow all CORS origins (dev mode)
	RequestTimeout    time.Duration // bounds each generation call; zero means 120s
	RequestsPerMinute int           // per client on generation routes; zero disables limiting
	Burst             int
}

// Server is the pageforge HTTP server.
type Server struct {
	cfg        Config
	db         *db.DB
	limiter    *RateLimiter
	router     chi.Router
	generation chi.Router
	httpServer *http.Server
}

// New creates a server. Feature packages register their routes on Router,
// or on Generation for routes that call the model.
func New(cfg Config, database *db.DB) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		db:      database,
		limiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}

	s.router = s.buildRouter()
	s.generation = s.router.With(
		middleware.Timeout(cfg.RequestTimeout),
		s.limiter.Middleware,
	)
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logging.L(), NoColor: true}))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Generation returns a router whose routes are rate limited per client and
// bounded by the request timeout.
func (s *Server) Generation() chi.Router { return s.generation }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: generation streams are bounded by RequestTimeout
		// and websockets live as long as the browser tab.
		IdleTimeout: 120 * time.Second,
	}

	logging.Infof("pageforge server listening on %s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/plexdigest/internal/api/handlers"
	"github.com/amaumene/plexdigest/internal/api/middleware"
	"github.com/amaumene/plexdigest/internal/config"
	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the components served by the status API
type Deps struct {
	Version string
	Runs    handlers.RunStatus
	Trigger handlers.RunTrigger // nil disables POST /api/run
	NextRun func() time.Time
	Metrics *metrics.Metrics
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	deps   Deps
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Deps, logger *logrus.Logger) *Server {
	s := &Server{
		deps:   deps,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger, "/health", "/metrics"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, including middleware
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux, cfg *config.Config) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.deps.Version, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Status endpoint
	statusHandler := handlers.NewStatusHandler(s.deps.Runs, cfg.Schedule, s.deps.NextRun, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	// Prometheus metrics
	if s.deps.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Manual run
	if s.deps.Trigger != nil {
		runHandler := handlers.NewRunHandler(s.deps.Trigger, s.logger)
		mux.HandleFunc("/api/run", runHandler.ServeHTTP)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

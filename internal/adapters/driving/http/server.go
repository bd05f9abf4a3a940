package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	clipService   driving.ClipService
	jobService    driving.JobService
	schemaService driving.SchemaService

	// Infrastructure
	authAdapter    driven.AuthAdapter
	jobQueue       driven.JobQueue // optional; async saves are rejected without it
	db             Pinger          // PostgreSQL health check
	redisClient    Pinger          // Redis health check (optional)
	metricsHandler http.Handler    // optional
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authAdapter driven.AuthAdapter,
	clipService driving.ClipService,
	jobService driving.JobService,
	schemaService driving.SchemaService,
	jobQueue driven.JobQueue,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		clipService:    clipService,
		jobService:     jobService,
		schemaService:  schemaService,
		authAdapter:    authAdapter,
		jobQueue:       jobQueue,
		db:             db,
		redisClient:    redisClient,
		metricsHandler: cfg.MetricsHandler,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // synchronous saves wait on model calls and uploads
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the recovery and logging middleware
func (s *Server) Handler() http.Handler {
	return NewRecoveryMiddleware(s.logger).Handler(
		NewLoggingMiddleware(s.logger).Handler(s.router))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authAdapter)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	if s.metricsHandler != nil {
		s.router.Handle("GET /metrics", s.metricsHandler)
	}

	// Clip endpoints
	s.router.Handle("POST /api/v1/clips",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSaveClip)))
	s.router.Handle("GET /api/v1/clips/jobs/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetJob)))

	// Collection endpoints
	s.router.Handle("GET /api/v1/collections",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListCollections)))
	s.router.Handle("POST /api/v1/collections/refresh",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRefreshCollections)))
	s.router.Handle("GET /api/v1/collections/{id}/schema",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetSchema)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mockupgen/logging"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host to bind to (default: "0.0.0.0")
	Host string

	// Port to listen on (default: 8000)
	Port int

	// ReadTimeout for HTTP requests (default: 60s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. Generation requests run for
	// minutes on CPU, so this defaults high (default: 15m).
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// LogSkipPaths are paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8000,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    15 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogSkipPaths:    []string{"/health"},
	}
}

// Server is the HTTP server for the mockup service. It wires the
// handler set, optional API key auth, and request logging middleware
// around a standard net/http server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	handlers   *Handlers
	logger     *logging.Logger
}

// NewServer creates a configured server. The auth middleware is
// optional; pass nil to leave all endpoints open.
func NewServer(config ServerConfig, handlers *Handlers, auth *APIKeyAuth, logger *logging.Logger) (*Server, error) {
	if handlers == nil {
		return nil, fmt.Errorf("handlers are required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if config.Host == "" {
		config.Host = "0.0.0.0"
	}
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, auth)

	loggingMw := NewLoggingMiddleware(logger, config.LogSkipPaths)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &Server{
		mux:      mux,
		config:   config,
		handlers: handlers,
		logger:   logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      loggingMw.Handler(mux),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}

	logger.Infow("server created", "addr", addr, "auth_enabled", auth != nil)

	return server, nil
}

// Start begins listening for HTTP requests.
// This method blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Infow("server starting", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server, waiting up to
// ShutdownTimeout for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/config"
)

// Server wraps the HTTP server hosting the API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the API server from configuration.
func NewServer(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      NewRouter(handler),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server listening", slog.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("api server shutdown", slog.Any("error", err))
	}
}

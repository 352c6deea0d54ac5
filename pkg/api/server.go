package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
)

// Server serves the API router over HTTP.
type Server struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

// NewServer creates a stopped API server for handler (see NewRouter).
func NewServer(cfg Config, handler http.Handler) *Server {
	cfg.ApplyDefaults()

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		port: cfg.Port,
	}
}

// Name identifies the server in lifecycle logs.
func (s *Server) Name() string {
	return "api"
}

// Serve listens until ctx is cancelled or the listener fails. In-flight
// requests get up to 30s to finish after cancellation.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("api server failed to listen on port %d: %w", s.port, err)
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening on port %d", s.port)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	}
}

// Stop stops accepting connections and waits for in-flight requests until
// ctx expires. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("api server shutdown error: %w", err)
			return
		}
		logger.Info("API server stopped")
	})
	return shutdownErr
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.port
}

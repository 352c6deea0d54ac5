// Package server runs the long-lived parts of the service (API, metrics
// endpoint, thumbnail pool, queue reaper, garbage collector) under one
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
)

// DefaultShutdownTimeout bounds the whole shutdown sequence.
const DefaultShutdownTimeout = 30 * time.Second

// Service is a long-running component.
//
// Serve blocks until ctx is cancelled or the service fails. Stop asks the
// service to finish and must be safe to call more than once and before
// Serve returns.
type Service interface {
	Name() string
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Background is a component with its own goroutines, such as the
// thumbnail pool, the queue reaper or the garbage collector.
type Background interface {
	Start()
	Stop(ctx context.Context) error
}

// Config configures the orchestrator.
type Config struct {
	// ShutdownTimeout bounds stopping every service (default: 30s)
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Server owns a set of services.
//
// Lifecycle:
//  1. Creation: New()
//  2. Registration: Add() for each service
//  3. Startup: Serve() starts all services concurrently
//  4. Shutdown: cancellation or any service failure stops all services in
//     reverse registration order
//
// Register dependencies first: the API is added last so it stops accepting
// requests before the pieces it feeds are stopped.
type Server struct {
	mu              sync.Mutex
	services        []Service
	shutdownTimeout time.Duration
	served          bool
}

// New creates a server with no services.
func New(cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{shutdownTimeout: cfg.ShutdownTimeout}
}

// Add registers a service. Names must be unique and services cannot be
// added once Serve has been called.
func (s *Server) Add(svc Service) error {
	if svc == nil {
		return errors.New("service cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return errors.New("cannot add a service after Serve has been called")
	}
	for _, existing := range s.services {
		if existing.Name() == svc.Name() {
			return fmt.Errorf("service %s already registered", svc.Name())
		}
	}
	s.services = append(s.services, svc)
	logger.Debug("Registered %s service", svc.Name())
	return nil
}

// Services returns a copy of the registered services in registration order.
func (s *Server) Services() []Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Service(nil), s.services...)
}

// Serve starts every service and blocks until ctx is cancelled or one of
// them fails, then stops them all.
//
// Returns:
//   - ctx.Err() when shutdown was triggered by cancellation
//   - the first service error otherwise
//   - an error if no service is registered or Serve was already called
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return errors.New("server is already serving")
	}
	s.served = true
	services := append([]Service(nil), s.services...)
	s.mu.Unlock()

	if len(services) == 0 {
		return errors.New("no services registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("Starting %d service(s)", len(services))

	errChan := make(chan serviceError, len(services))
	var wg sync.WaitGroup
	for _, svc := range services {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()
			if err := svc.Serve(runCtx); err != nil && !errors.Is(err, context.Canceled) && runCtx.Err() == nil {
				logger.Error("%s service failed: %v", svc.Name(), err)
				errChan <- serviceError{name: svc.Name(), err: err}
				return
			}
			logger.Debug("%s service returned", svc.Name())
		}(svc)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()
	case serr := <-errChan:
		logger.Error("Service %s failed, shutting down: %v", serr.name, serr.err)
		shutdownErr = fmt.Errorf("%s service error: %w", serr.name, serr.err)
	}

	cancel()
	s.stopAll(services)
	wg.Wait()

	logger.Info("Server stopped")
	return shutdownErr
}

type serviceError struct {
	name string
	err  error
}

// stopAll stops services in reverse registration order under one deadline.
// Errors are logged and do not prevent the remaining services from stopping.
func (s *Server) stopAll(services []Service) {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if err := svc.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s service: %v", svc.Name(), err)
			continue
		}
		logger.Debug("%s service stopped", svc.Name())
	}
}

// ============================================================================
// Background Adapter
// ============================================================================

// backgroundService runs a Background as a Service.
type backgroundService struct {
	name string
	bg   Background
}

// Run adapts a Start/Stop component into a Service. Serve starts it and
// blocks until ctx is cancelled; Stop waits for its goroutines.
func Run(name string, bg Background) Service {
	return &backgroundService{name: name, bg: bg}
}

func (b *backgroundService) Name() string { return b.name }

func (b *backgroundService) Serve(ctx context.Context) error {
	b.bg.Start()
	<-ctx.Done()
	return nil
}

func (b *backgroundService) Stop(ctx context.Context) error {
	return b.bg.Stop(ctx)
}

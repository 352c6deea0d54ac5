// Package app assembles the service from a loaded configuration: stores,
// domain services, background workers and the HTTP API, registered with a
// server.Server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/internal/ratelimiter"
	"github.com/marmos91/filesmanager/pkg/api"
	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/config"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/files"
	"github.com/marmos91/filesmanager/pkg/gc"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/metrics"
	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/marmos91/filesmanager/pkg/server"
	"github.com/marmos91/filesmanager/pkg/session"
	"github.com/marmos91/filesmanager/pkg/thumbnail"
)

// App is a fully wired, not yet running service.
type App struct {
	cfg *config.Config

	Metadata metadata.MetadataStore
	Content  content.ContentStore
	Queue    queue.Queue
	Sessions session.Store

	Files *files.Manager
	Auth  *auth.Service

	server  *server.Server
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// New creates every component described by cfg. On error, stores opened so
// far are closed.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	m := config.InitializeMetrics(cfg)

	// ========================================================================
	// Step 1: Stores
	// ========================================================================

	if a.Metadata, err = config.CreateMetadataStore(ctx, &cfg.Metadata); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"metadata", a.Metadata.Close})
	logger.Info("Metadata store: %s", cfg.Metadata.Type)

	if a.Content, err = config.CreateContentStore(ctx, &cfg.Content, m.S3); err != nil {
		return nil, err
	}
	logger.Info("Content store: %s", cfg.Content.Type)

	if a.Queue, err = config.CreateQueue(ctx, &cfg.Queue); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"queue", a.Queue.Close})
	logger.Info("Thumbnail queue: %s (max_attempts=%d lease=%s)",
		cfg.Queue.Type, cfg.Queue.Options.MaxAttempts, cfg.Queue.Options.LeaseDuration)

	if a.Sessions, err = config.CreateSessionStore(ctx, &cfg.Sessions); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"sessions", a.Sessions.Close})

	if err := metrics.RegisterQueue(a.Queue); err != nil {
		return nil, fmt.Errorf("failed to register queue metrics: %w", err)
	}

	// ========================================================================
	// Step 2: Domain services
	// ========================================================================

	a.Files = files.NewManager(a.Metadata, a.Content, a.Queue, files.Options{
		PageSize: cfg.API.PageSize,
		Metrics:  m.Files,
	})

	a.Auth = auth.NewService(a.Metadata, a.Sessions, auth.Options{
		TokenTTL:   cfg.Sessions.TokenTTL,
		BcryptCost: cfg.Sessions.BcryptCost,
	})

	generator := thumbnail.NewGenerator(cfg.Thumbnail.JPEGQuality)
	worker := thumbnail.NewWorker(a.Metadata, a.Content, generator, m.Thumbnail)

	var limiter *ratelimiter.KeyedRateLimiter
	if cfg.API.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimiter.NewKeyed(cfg.API.RateLimit.RequestsPerSecond, cfg.API.RateLimit.Burst, 0, 0)
		logger.Info("Rate limiting: %d req/s per client (burst %d)",
			cfg.API.RateLimit.RequestsPerSecond, cfg.API.RateLimit.Burst)
	}

	router := api.NewRouter(cfg.API, api.Dependencies{
		Files:    a.Files,
		Auth:     a.Auth,
		Metadata: a.Metadata,
		Queue:    a.Queue,
		Content:  a.Content,
		Metrics:  m.HTTP,
		Limiter:  limiter,
	})

	// ========================================================================
	// Step 3: Services, stopped in reverse order of registration
	// ========================================================================

	services := []server.Service{}
	if m.Server != nil {
		services = append(services, m.Server)
	}
	if cfg.GC.Enabled {
		services = append(services, server.Run("gc", gc.NewCollector(a.Metadata, a.Content, cfg.GC)))
	}
	services = append(services,
		server.Run("reaper", queue.NewReaper(a.Queue, cfg.Queue.ReaperInterval)),
		server.Run("thumbnails", thumbnail.NewPool(a.Queue, worker, cfg.Thumbnail.Pool, m.Thumbnail)),
		api.NewServer(cfg.API, router),
	)

	a.server = server.New(server.Config{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	for _, svc := range services {
		if err := a.server.Add(svc); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Serve runs every service until ctx is cancelled or one fails.
// Cancellation is not reported as an error.
func (a *App) Serve(ctx context.Context) error {
	logger.Info("Server is running on port %d", a.cfg.API.Port)
	if err := a.server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close closes the stores in reverse order of creation. Call it after
// Serve has returned.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			logger.Warn("Failed to close %s store: %v", c.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

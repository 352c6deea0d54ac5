// Package gc removes blobs that no file record references.
//
// Orphans appear when the process dies between writing a blob and
// persisting its record, or when the compensating delete after a failed
// record write fails as well. Thumbnails belong to their original: the blob
// "<id>_<width>" lives as long as "<id>" is referenced.
package gc

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/metadata"
)

// Config configures the collector.
type Config struct {
	// Enabled turns periodic collection on
	Enabled bool `mapstructure:"enabled"`

	// Interval between runs (default: 24h)
	Interval time.Duration `mapstructure:"interval"`

	// MinAge spares blobs younger than this, whose record may still be
	// in flight (default: 1h)
	MinAge time.Duration `mapstructure:"min_age"`

	// Concurrency bounds parallel deletes (default: 4)
	Concurrency int `mapstructure:"concurrency"`

	// RunTimeout bounds a single run (default: 10m)
	RunTimeout time.Duration `mapstructure:"run_timeout"`

	// DryRun only logs what would be deleted
	DryRun bool `mapstructure:"dry_run"`
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.MinAge <= 0 {
		c.MinAge = time.Hour
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 10 * time.Minute
	}
	return c
}

// Collector sweeps the content store on a timer.
//
// Start and Stop follow the thumbnail pool: Start launches one goroutine,
// Stop cancels it and waits for the current run to end.
type Collector struct {
	md     metadata.MetadataStore
	cs     content.ContentStore
	config Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	// now is replaced in tests.
	now func() time.Time
}

// NewCollector creates a stopped collector.
func NewCollector(md metadata.MetadataStore, cs content.ContentStore, config Config) *Collector {
	return &Collector{
		md:     md,
		cs:     cs,
		config: config.withDefaults(),
		now:    time.Now,
	}
}

// Start launches periodic collection. It is a no-op when the collector is
// disabled or already started.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	logger.Info("Starting garbage collector: interval=%s min_age=%s dry_run=%v",
		c.config.Interval, c.config.MinAge, c.config.DryRun)

	go c.loop(ctx)
}

// Stop cancels periodic collection and waits for a running sweep to
// return, or for ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow sweeps once and blocks until the sweep ends or ctx is cancelled.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)")
	return c.sweep(ctx)
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runCtx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
		stats, err := c.sweep(runCtx)
		cancel()

		if err != nil {
			logger.Error("Garbage collection failed: %v", err)
			continue
		}
		logger.Info("Garbage collection completed: %s", stats.Summary())
	}
}

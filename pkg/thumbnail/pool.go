package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/queue"
	"golang.org/x/sync/errgroup"
)

// DefaultJobTimeout stays below the queue's default one-minute lease.
const DefaultJobTimeout = 45 * time.Second

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Workers is the number of concurrent consumers (default: 2)
	Workers int `mapstructure:"workers"`

	// JobTimeout bounds one job (default: 45s). Keep it below the queue's
	// lease duration so a slow job is not redelivered while still running.
	JobTimeout time.Duration `mapstructure:"job_timeout"`

	// ErrorBackoff is the pause after a failed Dequeue (default: 1s)
	ErrorBackoff time.Duration `mapstructure:"error_backoff"`
}

// Pool runs Workers consumers that lease jobs and pass them to a Worker.
//
// Lifecycle mirrors the garbage collector: Start launches the consumers,
// Stop stops leasing new jobs and waits for in-flight jobs to finish.
// A job panic is recovered and nacked as a retryable failure.
type Pool struct {
	queue   queue.Queue
	worker  *Worker
	config  PoolConfig
	metrics Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	doneCh  chan struct{}
	started bool
}

// WithDefaults fills unset fields.
func (c PoolConfig) WithDefaults() PoolConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = time.Second
	}
	return c
}

// NewPool creates a stopped pool. metrics may be nil.
func NewPool(q queue.Queue, worker *Worker, config PoolConfig, metrics Metrics) *Pool {
	config = config.WithDefaults()
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Pool{
		queue:   q,
		worker:  worker,
		config:  config,
		metrics: metrics,
	}
}

// Start launches the consumers. Safe to call multiple times.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.doneCh = make(chan struct{})

	logger.Info("Starting thumbnail pool: workers=%d", p.config.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.config.Workers; i++ {
		id := i
		g.Go(func() error {
			return p.consume(gctx, id)
		})
	}

	go func() {
		defer close(p.doneCh)
		if err := g.Wait(); err != nil {
			logger.Error("Thumbnail pool stopped with error: %v", err)
		}
	}()
}

// Stop stops leasing jobs and waits for running jobs to finish or ctx to
// expire. Safe to call multiple times.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	done := p.doneCh
	p.mu.Unlock()

	logger.Info("Stopping thumbnail pool...")

	select {
	case <-done:
		logger.Info("Thumbnail pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("thumbnail pool stop timeout: %w", ctx.Err())
	}
}

// consume leases and processes jobs until ctx is cancelled or the queue
// is closed.
func (p *Pool) consume(ctx context.Context, id int) error {
	logger.Debug("Thumbnail consumer %d started", id)
	defer logger.Debug("Thumbnail consumer %d stopped", id)

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			logger.Warn("Thumbnail consumer %d: dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.config.ErrorBackoff):
			}
			continue
		}

		// In-flight jobs finish even when the pool is stopping.
		p.handle(context.WithoutCancel(ctx), job)
	}
}

// handle runs one job and settles it with the queue.
func (p *Pool) handle(ctx context.Context, job *queue.Job) {
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	err := p.run(jobCtx, job)
	cancel()

	outcome := "completed"
	if err == nil {
		if ackErr := p.queue.Ack(ctx, job.ID); ackErr != nil {
			logger.Warn("Failed to ack thumbnail job %s: %v", job.ID, ackErr)
		}
	} else {
		switch {
		case errors.Is(err, errPanic):
			outcome = "panic"
		case queue.IsPermanent(err):
			outcome = "permanent"
		default:
			outcome = "failed"
		}
		logger.Warn("Thumbnail job %s failed (attempt %d): %v", job.ID, job.Attempts, err)
		if nackErr := p.queue.Nack(ctx, job.ID, err); nackErr != nil {
			logger.Warn("Failed to nack thumbnail job %s: %v", job.ID, nackErr)
		}
	}

	p.metrics.RecordJob(outcome, time.Since(start))
}

var errPanic = errors.New("thumbnail job panicked")

// run calls the worker, converting a panic into an error.
func (p *Pool) run(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Thumbnail job %s panicked: %v\n%s", job.ID, r, debug.Stack())
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return p.worker.Process(ctx, job)
}

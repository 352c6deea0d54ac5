package queue

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/internal/logger"
)

// Reaper periodically returns expired leases to the queue.
//
// Without it, a job leased by a consumer that crashed stays processing
// forever. Start/Stop follow the garbage collector's lifecycle.
type Reaper struct {
	queue    Queue
	interval time.Duration

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewReaper creates a reaper that runs every interval (default: 15s).
func NewReaper(q Queue, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Reaper{
		queue:    q,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. Subsequent calls are no-ops.
func (r *Reaper) Start() {
	r.startOnce.Do(func() {
		r.started = true
		go r.worker()
	})
}

// Stop signals the loop to exit and waits for it, bounded by ctx.
func (r *Reaper) Stop(ctx context.Context) error {
	if !r.started {
		return nil
	}
	r.stopOnce.Do(func() { close(r.stopCh) })

	select {
	case <-r.doneCh:
		return nil
	case <-ctx.Done():
		logger.Warn("Lease reaper shutdown timeout")
		return ctx.Err()
	}
}

// RunNow requeues expired leases once.
func (r *Reaper) RunNow(ctx context.Context) (int, error) {
	return r.queue.RequeueExpired(ctx)
}

func (r *Reaper) worker() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			moved, err := r.RunNow(ctx)
			cancel()

			if err != nil {
				logger.Error("Lease reaper failed: %v", err)
			} else if moved > 0 {
				logger.Info("Lease reaper requeued %d expired job(s)", moved)
			}

		case <-r.stopCh:
			return
		}
	}
}

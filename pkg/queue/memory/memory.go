package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/queue"
)

// MemoryQueue implements queue.Queue in process memory.
//
// Jobs are lost on restart. Used in tests and with queue.type: memory.
//
// Thread Safety:
// All state is guarded by mu. Dequeue waiters are woken through notify when
// a job becomes ready and otherwise re-check every PollInterval, which also
// covers jobs whose backoff elapses.
type MemoryQueue struct {
	mu   sync.Mutex
	opts queue.Options

	jobs      map[string]*queue.Job
	seq       map[string]uint64
	nextSeq   uint64
	completed int

	notify chan struct{}
	closed chan struct{}
	once   sync.Once

	// now is replaced in tests.
	now func() time.Time
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue(opts queue.Options) *MemoryQueue {
	return &MemoryQueue{
		opts:   opts.WithDefaults(),
		jobs:   make(map[string]*queue.Job),
		seq:    make(map[string]uint64),
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
		now:    time.Now,
	}
}

func (q *MemoryQueue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

// wake signals one blocked Dequeue without blocking the caller.
func (q *MemoryQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, payload []byte) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.isClosed() {
		return nil, queue.ErrClosed
	}

	now := q.now()
	job := &queue.Job{
		ID:        uuid.NewString(),
		Payload:   append([]byte(nil), payload...),
		State:     queue.StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
		ReadyAt:   now,
	}

	q.mu.Lock()
	q.nextSeq++
	q.jobs[job.ID] = job
	q.seq[job.ID] = q.nextSeq
	q.mu.Unlock()

	q.wake()
	return job.Clone(), nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if q.isClosed() {
			return nil, queue.ErrClosed
		}

		if job := q.tryLease(); job != nil {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closed:
			return nil, queue.ErrClosed
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// tryLease leases the ready job with the earliest ReadyAt, oldest first on ties.
func (q *MemoryQueue) tryLease() *queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var best *queue.Job
	for _, job := range q.jobs {
		if job.State != queue.StateQueued || job.ReadyAt.After(now) {
			continue
		}
		if best == nil || job.ReadyAt.Before(best.ReadyAt) ||
			(job.ReadyAt.Equal(best.ReadyAt) && q.seq[job.ID] < q.seq[best.ID]) {
			best = job
		}
	}
	if best == nil {
		return nil
	}

	best.State = queue.StateProcessing
	best.Attempts++
	best.UpdatedAt = now
	best.LeaseExpiresAt = now.Add(q.opts.LeaseDuration)
	return best.Clone()
}

// leased returns the job if it is currently processing.
func (q *MemoryQueue) leased(jobID string) (*queue.Job, error) {
	job, ok := q.jobs[jobID]
	if !ok || job.State != queue.StateProcessing {
		return nil, fmt.Errorf("job %s: %w", jobID, queue.ErrJobNotFound)
	}
	return job, nil
}

func (q *MemoryQueue) Ack(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.leased(jobID); err != nil {
		return err
	}
	delete(q.jobs, jobID)
	delete(q.seq, jobID)
	q.completed++
	return nil
}

func (q *MemoryQueue) Nack(ctx context.Context, jobID string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	job, err := q.leased(jobID)
	if err != nil {
		q.mu.Unlock()
		return err
	}
	dead := q.opts.Decide(job, cause, q.now())
	q.mu.Unlock()

	if !dead {
		q.wake()
	}
	return nil
}

func (q *MemoryQueue) Stats(ctx context.Context) (queue.Stats, error) {
	if err := ctx.Err(); err != nil {
		return queue.Stats{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stats := queue.Stats{Completed: q.completed}
	for _, job := range q.jobs {
		switch job.State {
		case queue.StateQueued:
			stats.Queued++
		case queue.StateProcessing:
			stats.Processing++
		case queue.StateDead:
			stats.Dead++
		}
	}
	return stats, nil
}

func (q *MemoryQueue) DeadJobs(ctx context.Context, limit int) ([]*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	dead := make([]*queue.Job, 0)
	for _, job := range q.jobs {
		if job.State == queue.StateDead {
			dead = append(dead, job.Clone())
		}
	}
	sort.Slice(dead, func(i, j int) bool {
		return q.seq[dead[i].ID] < q.seq[dead[j].ID]
	})
	if limit > 0 && len(dead) > limit {
		dead = dead[:limit]
	}
	return dead, nil
}

func (q *MemoryQueue) RequeueExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q.mu.Lock()
	now := q.now()
	moved := 0
	for _, job := range q.jobs {
		if job.State != queue.StateProcessing || job.LeaseExpiresAt.After(now) {
			continue
		}
		job.LeaseExpiresAt = time.Time{}
		job.UpdatedAt = now
		job.LastError = "lease expired"
		if q.opts.Exhausted(job.Attempts) {
			job.State = queue.StateDead
		} else {
			job.State = queue.StateQueued
			job.ReadyAt = now
		}
		moved++
	}
	q.mu.Unlock()

	if moved > 0 {
		q.wake()
	}
	return moved, nil
}

func (q *MemoryQueue) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.isClosed() {
		return queue.ErrClosed
	}
	return nil
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}

// Ensure interface compliance.
var _ queue.Queue = (*MemoryQueue)(nil)

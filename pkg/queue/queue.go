// Package queue provides a durable, at-least-once job queue used to hand
// thumbnail work from the API to background workers.
//
// Job Lifecycle:
//
//	Enqueue → queued ──Dequeue──▶ processing ──Ack──▶ completed
//	             ▲                    │
//	             └──Nack (retryable)──┤
//	                                  └──Nack (permanent or exhausted)──▶ dead
//
// A leased job is invisible to other consumers until it is acked, nacked, or
// its lease expires. Expired leases are returned to the queue by
// RequeueExpired (see Reaper), so a crashed consumer never loses a job.
package queue

import (
	"context"
	"errors"
	"time"
)

// State is the lifecycle state of a job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateDead       State = "dead"
)

// Job is a unit of work with an opaque payload.
type Job struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
	State   State  `json:"state"`

	// Attempts counts leases handed out for this job, including the current one.
	Attempts int `json:"attempts"`

	// LastError is the cause passed to the most recent Nack.
	LastError string `json:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ReadyAt is the earliest time the job may be leased.
	ReadyAt time.Time `json:"readyAt"`

	// LeaseExpiresAt is set while the job is processing.
	LeaseExpiresAt time.Time `json:"leaseExpiresAt,omitempty"`
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.Payload = append([]byte(nil), j.Payload...)
	return &c
}

// Stats is a point-in-time count of jobs per state.
type Stats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Dead       int `json:"dead"`
}

// Queue is a durable at-least-once job queue.
//
// Implementations must be safe for concurrent use and must guarantee that a
// job has at most one lease holder at a time.
type Queue interface {
	// Enqueue adds a job that is immediately ready.
	Enqueue(ctx context.Context, payload []byte) (*Job, error)

	// Dequeue blocks until a job is leased or ctx is done. The returned job
	// is in StateProcessing with Attempts incremented.
	//
	// Returns ctx.Err() when the context ends and ErrClosed after Close.
	Dequeue(ctx context.Context) (*Job, error)

	// Ack marks a leased job completed. Returns ErrJobNotFound if the job is
	// not currently leased.
	Ack(ctx context.Context, jobID string) error

	// Nack releases a leased job after a failure. The job is moved to dead
	// if cause is permanent (see Permanent) or attempts are exhausted, and
	// is otherwise requeued after an exponential backoff.
	Nack(ctx context.Context, jobID string, cause error) error

	// Stats returns job counts per state.
	Stats(ctx context.Context) (Stats, error)

	// DeadJobs returns up to limit dead jobs for inspection.
	DeadJobs(ctx context.Context, limit int) ([]*Job, error)

	// RequeueExpired returns jobs whose lease expired to the queue and
	// reports how many were moved. Jobs that already used all attempts are
	// moved to dead instead.
	RequeueExpired(ctx context.Context) (int, error)

	// Healthcheck verifies the queue backend is operational.
	Healthcheck(ctx context.Context) error

	// Close releases resources. Blocked Dequeue calls return ErrClosed.
	Close() error
}

var (
	// ErrJobNotFound indicates the job doesn't exist or isn't leased.
	ErrJobNotFound = errors.New("job not found")

	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue is closed")
)

// ============================================================================
// Permanent Failures
// ============================================================================

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Nack moves the job straight to dead.
// Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

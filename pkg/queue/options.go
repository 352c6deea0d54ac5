package queue

import (
	"fmt"
	"time"
)

// Options tunes retry and lease behavior. Zero values take the defaults
// documented on each field.
type Options struct {
	// MaxAttempts is the number of leases a job may receive before it is
	// moved to dead (default: 3)
	MaxAttempts int `mapstructure:"max_attempts" validate:"omitempty,min=1"`

	// LeaseDuration is how long a consumer holds a job before it becomes
	// eligible for redelivery (default: 1m)
	LeaseDuration time.Duration `mapstructure:"lease_duration"`

	// PollInterval is how often a blocked Dequeue re-checks for ready jobs
	// (default: 500ms)
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// BackoffBase is the delay before the first retry (default: 1s)
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// BackoffMax caps the retry delay (default: 1m)
	BackoffMax time.Duration `mapstructure:"backoff_max"`
}

// DefaultOptions returns the default queue options.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   3,
		LeaseDuration: time.Minute,
		PollInterval:  500 * time.Millisecond,
		BackoffBase:   time.Second,
		BackoffMax:    time.Minute,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MaxAttempts == 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.LeaseDuration == 0 {
		o.LeaseDuration = d.LeaseDuration
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.BackoffBase == 0 {
		o.BackoffBase = d.BackoffBase
	}
	if o.BackoffMax == 0 {
		o.BackoffMax = d.BackoffMax
	}
	return o
}

// Validate rejects negative settings.
func (o Options) Validate() error {
	if o.MaxAttempts < 0 || o.LeaseDuration < 0 || o.PollInterval < 0 || o.BackoffBase < 0 || o.BackoffMax < 0 {
		return fmt.Errorf("queue options must not be negative")
	}
	return nil
}

// Backoff returns the delay before the next attempt after a job failed
// its attempts-th lease: BackoffBase * 2^(attempts-1), capped at BackoffMax.
func (o Options) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := o.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= o.BackoffMax || delay <= 0 {
			return o.BackoffMax
		}
	}
	if delay > o.BackoffMax {
		return o.BackoffMax
	}
	return delay
}

// Exhausted reports whether a job with this many attempts may not be retried.
func (o Options) Exhausted(attempts int) bool {
	return attempts >= o.MaxAttempts
}

// Decide applies the Nack rules to a job in place: the job becomes dead if
// cause is permanent or attempts are exhausted, otherwise it is requeued with
// backoff. It reports whether the job is now dead.
func (o Options) Decide(job *Job, cause error, now time.Time) bool {
	job.LeaseExpiresAt = time.Time{}
	job.UpdatedAt = now
	if cause != nil {
		job.LastError = cause.Error()
	}

	if IsPermanent(cause) || o.Exhausted(job.Attempts) {
		job.State = StateDead
		return true
	}

	job.State = StateQueued
	job.ReadyAt = now.Add(o.Backoff(job.Attempts))
	return false
}

package testing

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/queue"
)

// QueueTestSuite is a conformance suite for queue.Queue implementations.
//
// Usage:
//
//	suite := &testing.QueueTestSuite{
//	    NewQueue: func(opts queue.Options) queue.Queue {
//	        return memory.NewMemoryQueue(opts)
//	    },
//	}
//	suite.Run(t)
type QueueTestSuite struct {
	// NewQueue creates a fresh, empty queue with the given options for each test.
	NewQueue func(opts queue.Options) queue.Queue
}

// Run executes all tests in the suite.
func (suite *QueueTestSuite) Run(t *testing.T) {
	t.Run("Delivery", suite.RunDeliveryTests)
	t.Run("Retry", suite.RunRetryTests)
	t.Run("Lease", suite.RunLeaseTests)
}

// fastOptions keep timing-based tests short.
func fastOptions() queue.Options {
	return queue.Options{
		MaxAttempts:   3,
		LeaseDuration: 100 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
		BackoffBase:   10 * time.Millisecond,
		BackoffMax:    40 * time.Millisecond,
	}
}

func (suite *QueueTestSuite) newQueue(t *testing.T, opts queue.Options) queue.Queue {
	t.Helper()
	q := suite.NewQueue(opts)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// dequeueWithin leases a job or fails the test after timeout.
func dequeueWithin(t *testing.T, q queue.Queue, timeout time.Duration) *queue.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	return job
}

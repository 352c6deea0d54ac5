package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *QueueTestSuite) RunDeliveryTests(t *testing.T) {
	t.Run("EnqueueDequeue", suite.testEnqueueDequeue)
	t.Run("FIFO", suite.testFIFO)
	t.Run("Dequeue_BlocksUntilDeadline", suite.testDequeueBlocksUntilDeadline)
	t.Run("Dequeue_WakesOnEnqueue", suite.testDequeueWakesOnEnqueue)
	t.Run("Ack", suite.testAck)
	t.Run("Ack_Unknown", suite.testAckUnknown)
	t.Run("Close_UnblocksDequeue", suite.testCloseUnblocksDequeue)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *QueueTestSuite) testEnqueueDequeue(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	enqueued, err := q.Enqueue(ctx, []byte(`{"fileId":"f","userId":"u"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, enqueued.ID)
	assert.Equal(t, queue.StateQueued, enqueued.State)

	job := dequeueWithin(t, q, time.Second)

	assert.Equal(t, enqueued.ID, job.ID)
	assert.Equal(t, `{"fileId":"f","userId":"u"}`, string(job.Payload))
	assert.Equal(t, queue.StateProcessing, job.State)
	assert.Equal(t, 1, job.Attempts)
	assert.False(t, job.LeaseExpiresAt.IsZero())

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Processing: 1}, stats)
}

func (suite *QueueTestSuite) testFIFO(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(ctx, []byte(fmt.Sprintf("job-%d", i)))
		require.NoError(t, err)
		// Distinct enqueue timestamps.
		time.Sleep(time.Millisecond)
	}

	for i := 0; i < 5; i++ {
		job := dequeueWithin(t, q, time.Second)
		assert.Equal(t, fmt.Sprintf("job-%d", i), string(job.Payload))
	}
}

func (suite *QueueTestSuite) testDequeueBlocksUntilDeadline(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (suite *QueueTestSuite) testDequeueWakesOnEnqueue(t *testing.T) {
	q := suite.newQueue(t, fastOptions())

	got := make(chan *queue.Job, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		job, err := q.Dequeue(ctx)
		if err == nil {
			got <- job
		}
		close(got)
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := q.Enqueue(context.Background(), []byte("late"))
	require.NoError(t, err)

	job, ok := <-got
	require.True(t, ok, "blocked Dequeue should receive the job")
	assert.Equal(t, "late", string(job.Payload))
}

func (suite *QueueTestSuite) testAck(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()
	_, err := q.Enqueue(ctx, []byte("x"))
	require.NoError(t, err)
	job := dequeueWithin(t, q, time.Second)

	require.NoError(t, q.Ack(ctx, job.ID))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Completed: 1}, stats)

	// A completed job cannot be acked again.
	assert.ErrorIs(t, q.Ack(ctx, job.ID), queue.ErrJobNotFound)
}

func (suite *QueueTestSuite) testAckUnknown(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	assert.ErrorIs(t, q.Ack(ctx, "missing"), queue.ErrJobNotFound)
	assert.ErrorIs(t, q.Nack(ctx, "missing", nil), queue.ErrJobNotFound)

	// Queued but not leased.
	queued, err := q.Enqueue(ctx, []byte("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, q.Ack(ctx, queued.ID), queue.ErrJobNotFound)
}

func (suite *QueueTestSuite) testCloseUnblocksDequeue(t *testing.T) {
	q := suite.NewQueue(fastOptions())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, queue.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not return after Close")
	}
}

func (suite *QueueTestSuite) testHealthcheck(t *testing.T) {
	q := suite.newQueue(t, fastOptions())

	assert.NoError(t, q.Healthcheck(context.Background()))
}

// drain runs consumers that lease and ack until want jobs were seen,
// returning how often each payload was delivered.
func drain(t *testing.T, q queue.Queue, consumers int, want int) map[string]int {
	t.Helper()

	var mu sync.Mutex
	seen := make(map[string]int)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				total := 0
				for _, n := range seen {
					total += n
				}
				mu.Unlock()
				if total >= want {
					return
				}

				pollCtx, pollCancel := context.WithTimeout(ctx, 50*time.Millisecond)
				job, err := q.Dequeue(pollCtx)
				pollCancel()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					continue
				}

				mu.Lock()
				seen[string(job.Payload)]++
				mu.Unlock()
				assert.NoError(t, q.Ack(context.Background(), job.ID))
			}
		}()
	}
	wg.Wait()
	return seen
}

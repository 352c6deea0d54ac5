package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *QueueTestSuite) RunLeaseTests(t *testing.T) {
	t.Run("LeaseIsExclusive", suite.testLeaseIsExclusive)
	t.Run("LeasedJobInvisible", suite.testLeasedJobInvisible)
	t.Run("RequeueExpired", suite.testRequeueExpired)
	t.Run("RequeueExpired_Exhausted", suite.testRequeueExpiredExhausted)
	t.Run("RequeueExpired_LiveLeaseKept", suite.testRequeueExpiredLiveLeaseKept)
}

// testLeaseIsExclusive races several consumers over many jobs; every job
// must be delivered exactly once.
func (suite *QueueTestSuite) testLeaseIsExclusive(t *testing.T) {
	opts := fastOptions()
	opts.LeaseDuration = time.Minute
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	const jobs = 40
	for i := 0; i < jobs; i++ {
		_, err := q.Enqueue(ctx, []byte(fmt.Sprintf("job-%02d", i)))
		require.NoError(t, err)
	}

	seen := drain(t, q, 4, jobs)

	assert.Len(t, seen, jobs)
	for payload, count := range seen {
		assert.Equal(t, 1, count, "job %s delivered more than once", payload)
	}

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Completed: jobs}, stats)
}

func (suite *QueueTestSuite) testLeasedJobInvisible(t *testing.T) {
	opts := fastOptions()
	opts.LeaseDuration = time.Minute
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("only"))
	require.NoError(t, err)
	dequeueWithin(t, q, time.Second)

	shortCtx, cancel := context.WithTimeout(ctx, 40*time.Millisecond)
	defer cancel()
	_, err = q.Dequeue(shortCtx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (suite *QueueTestSuite) testRequeueExpired(t *testing.T) {
	opts := fastOptions()
	opts.LeaseDuration = 20 * time.Millisecond
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("crashy"))
	require.NoError(t, err)
	first := dequeueWithin(t, q, time.Second)

	// Consumer "crashes": no Ack, no Nack.
	time.Sleep(40 * time.Millisecond)

	moved, err := q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	second := dequeueWithin(t, q, time.Second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Attempts)

	require.NoError(t, q.Ack(ctx, second.ID))
}

func (suite *QueueTestSuite) testRequeueExpiredExhausted(t *testing.T) {
	opts := fastOptions()
	opts.MaxAttempts = 1
	opts.LeaseDuration = 10 * time.Millisecond
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("last chance"))
	require.NoError(t, err)
	dequeueWithin(t, q, time.Second)
	time.Sleep(30 * time.Millisecond)

	moved, err := q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Dead: 1}, stats)
}

func (suite *QueueTestSuite) testRequeueExpiredLiveLeaseKept(t *testing.T) {
	opts := fastOptions()
	opts.LeaseDuration = time.Minute
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("busy"))
	require.NoError(t, err)
	dequeueWithin(t, q, time.Second)

	moved, err := q.RequeueExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processing)
}

package testing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *QueueTestSuite) RunRetryTests(t *testing.T) {
	t.Run("Nack_RequeuesWithBackoff", suite.testNackRequeuesWithBackoff)
	t.Run("Nack_ExhaustedGoesDead", suite.testNackExhaustedGoesDead)
	t.Run("Nack_PermanentGoesDead", suite.testNackPermanentGoesDead)
	t.Run("DeadJobs_Limit", suite.testDeadJobsLimit)
}

func (suite *QueueTestSuite) testNackRequeuesWithBackoff(t *testing.T) {
	opts := fastOptions()
	opts.BackoffBase = 60 * time.Millisecond
	opts.BackoffMax = time.Second
	q := suite.newQueue(t, opts)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("retry me"))
	require.NoError(t, err)
	first := dequeueWithin(t, q, time.Second)

	nackedAt := time.Now()
	require.NoError(t, q.Nack(ctx, first.ID, errors.New("transient")))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 0, stats.Processing)

	second := dequeueWithin(t, q, 2*time.Second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Attempts)
	assert.Equal(t, "transient", second.LastError)
	assert.GreaterOrEqual(t, time.Since(nackedAt), 50*time.Millisecond, "redelivery must wait for the backoff")
}

func (suite *QueueTestSuite) testNackExhaustedGoesDead(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("always fails"))
	require.NoError(t, err)

	for attempt := 1; attempt <= 3; attempt++ {
		job := dequeueWithin(t, q, 2*time.Second)
		require.Equal(t, attempt, job.Attempts)
		require.NoError(t, q.Nack(ctx, job.ID, fmt.Errorf("failure %d", attempt)))
	}

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Dead: 1}, stats)

	dead, err := q.DeadJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, queue.StateDead, dead[0].State)
	assert.Equal(t, 3, dead[0].Attempts)
	assert.Equal(t, "failure 3", dead[0].LastError)

	// Dead jobs are never redelivered.
	shortCtx, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	_, err = q.Dequeue(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (suite *QueueTestSuite) testNackPermanentGoesDead(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	_, err := q.Enqueue(ctx, []byte("not json"))
	require.NoError(t, err)
	job := dequeueWithin(t, q, time.Second)

	require.NoError(t, q.Nack(ctx, job.ID, queue.Permanent(errors.New("invalid payload"))))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Dead: 1}, stats)

	dead, err := q.DeadJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 1, dead[0].Attempts)
}

func (suite *QueueTestSuite) testDeadJobsLimit(t *testing.T) {
	q := suite.newQueue(t, fastOptions())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, []byte(fmt.Sprintf("dead-%d", i)))
		require.NoError(t, err)
		job := dequeueWithin(t, q, time.Second)
		require.NoError(t, q.Nack(ctx, job.ID, queue.Permanent(errors.New("bad"))))
	}

	dead, err := q.DeadJobs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, dead, 2)
}

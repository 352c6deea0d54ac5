package thumbnail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/marmos91/filesmanager/pkg/queue"
	queuememory "github.com/marmos91/filesmanager/pkg/queue/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) RecordJob(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordResize(int, time.Duration, error) {}

func (m *recordingMetrics) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.outcomes...)
}

func newTestQueue(t *testing.T) queue.Queue {
	t.Helper()
	q := queuememory.NewMemoryQueue(queue.Options{
		MaxAttempts:   2,
		LeaseDuration: time.Second,
		PollInterval:  5 * time.Millisecond,
		BackoffBase:   5 * time.Millisecond,
		BackoffMax:    10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func stopPool(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
}

func TestPool_ProcessesJobs(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	q := newTestQueue(t)
	metrics := &recordingMetrics{}

	record := f.addImage(t, "u1", pngBytes(t, 640, 480))
	_, err := q.Enqueue(ctx, jobFor(t, record.ID, "u1").Payload)
	require.NoError(t, err)

	pool := NewPool(q, f.worker, PoolConfig{Workers: 2}, metrics)
	pool.Start()
	defer stopPool(t, pool)

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx)
		return err == nil && stats.Completed == 1
	}, 5*time.Second, 10*time.Millisecond)

	for _, width := range Widths {
		exists, err := f.cs.ContentExists(ctx, content.ThumbnailID(record.ContentID, width))
		require.NoError(t, err)
		assert.True(t, exists, "width %d", width)
	}
	assert.Equal(t, []string{"completed"}, metrics.snapshot())
}

func TestPool_PermanentFailureGoesDead(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	q := newTestQueue(t)
	metrics := &recordingMetrics{}

	_, err := q.Enqueue(ctx, []byte(`{"fileId":"missing","ownerId":"u1"}`))
	require.NoError(t, err)

	pool := NewPool(q, f.worker, PoolConfig{Workers: 1}, metrics)
	pool.Start()
	defer stopPool(t, pool)

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx)
		return err == nil && stats.Dead == 1
	}, 5*time.Second, 10*time.Millisecond)

	dead, err := q.DeadJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 1, dead[0].Attempts)
	assert.Equal(t, []string{"permanent"}, metrics.snapshot())
}

func TestPool_RetriesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	q := newTestQueue(t)

	record := f.addImage(t, "u1", []byte("corrupt"))
	_, err := q.Enqueue(ctx, jobFor(t, record.ID, "u1").Payload)
	require.NoError(t, err)

	pool := NewPool(q, f.worker, PoolConfig{Workers: 1}, nil)
	pool.Start()
	defer stopPool(t, pool)

	require.Eventually(t, func() bool {
		stats, err := q.Stats(ctx)
		return err == nil && stats.Dead == 1
	}, 5*time.Second, 10*time.Millisecond)

	dead, err := q.DeadJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, 2, dead[0].Attempts)
	assert.Contains(t, dead[0].LastError, "unsupported image format")
}

func TestPool_StartStopIdempotent(t *testing.T) {
	f := newWorkerFixture(t)
	pool := NewPool(newTestQueue(t), f.worker, PoolConfig{}, nil)

	// Stop before Start is a no-op.
	stopPool(t, pool)

	pool.Start()
	pool.Start()
	stopPool(t, pool)
	stopPool(t, pool)
}

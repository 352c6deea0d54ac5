package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stopLog records stop order across services.
type stopLog struct {
	mu    sync.Mutex
	names []string
}

func (l *stopLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *stopLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

type fakeService struct {
	name    string
	log     *stopLog
	failErr error
	stopped chan struct{}
	once    sync.Once
}

func newFake(name string, log *stopLog) *fakeService {
	return &fakeService{name: name, log: log, stopped: make(chan struct{})}
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Serve(ctx context.Context) error {
	if f.failErr != nil {
		return f.failErr
	}
	select {
	case <-ctx.Done():
	case <-f.stopped:
	}
	return nil
}

func (f *fakeService) Stop(context.Context) error {
	f.once.Do(func() {
		f.log.add(f.name)
		close(f.stopped)
	})
	return nil
}

type fakeBackground struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (b *fakeBackground) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
}

func (b *fakeBackground) Stop(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	return nil
}

func (b *fakeBackground) state() (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started, b.stopped
}

func TestServeStopsInReverseOrder(t *testing.T) {
	log := &stopLog{}
	srv := New(Config{ShutdownTimeout: time.Second})
	for _, name := range []string{"metrics", "pool", "api"} {
		require.NoError(t, srv.Add(newFake(name, log)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, []string{"api", "pool", "metrics"}, log.get())
}

func TestServiceFailureStopsAll(t *testing.T) {
	log := &stopLog{}
	srv := New(Config{})

	healthy := newFake("metrics", log)
	broken := newFake("api", log)
	broken.failErr = errors.New("bind: address already in use")
	require.NoError(t, srv.Add(healthy))
	require.NoError(t, srv.Add(broken))

	err := srv.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api service error")
	assert.Contains(t, log.get(), "metrics")
}

func TestAddRules(t *testing.T) {
	srv := New(Config{})
	log := &stopLog{}

	assert.Error(t, srv.Add(nil))
	require.NoError(t, srv.Add(newFake("api", log)))
	assert.Error(t, srv.Add(newFake("api", log)), "duplicate name")
	assert.Len(t, srv.Services(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = srv.Serve(ctx)

	assert.Error(t, srv.Add(newFake("late", log)))
	assert.Error(t, srv.Serve(context.Background()), "second Serve")
}

func TestServeWithoutServices(t *testing.T) {
	assert.Error(t, New(Config{}).Serve(context.Background()))
}

func TestRunBackground(t *testing.T) {
	bg := &fakeBackground{}
	svc := Run("gc", bg)
	assert.Equal(t, "gc", svc.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool {
		started, _ := bg.state()
		return started
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, svc.Stop(context.Background()))

	_, stopped := bg.state()
	assert.True(t, stopped)
}

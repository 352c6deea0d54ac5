package ratelimiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "request %d should be allowed (within burst)", i)
	}
	assert.False(t, limiter.Allow(), "request beyond burst should be rejected")
}

func TestAllow_Refills(t *testing.T) {
	limiter := New(100, 1)
	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	assert.Eventually(t, limiter.Allow, time.Second, 5*time.Millisecond)
}

func TestNew_BurstDefaultsToRate(t *testing.T) {
	limiter := New(5, 0)
	assert.InDelta(t, 5.0, limiter.Tokens(), 0.5)
}

func TestUnlimitedRate(t *testing.T) {
	limiter := New(0, 0)
	for i := 0; i < 10000; i++ {
		require.True(t, limiter.Allow(), "request %d should be allowed with unlimited rate", i)
	}
}

func TestKeyed_IsolatesKeys(t *testing.T) {
	limiter := NewKeyed(1, 2, 0, 0)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// Another client has its own bucket.
	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.Len())
}

func TestKeyed_BoundsTrackedKeys(t *testing.T) {
	limiter := NewKeyed(1, 1, 3, time.Minute)
	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i))
	}
	assert.Equal(t, 3, limiter.Len())
}

func TestKeyed_IdleClientsExpire(t *testing.T) {
	limiter := NewKeyed(1, 1, 10, 50*time.Millisecond)
	require.True(t, limiter.Allow("a"))
	require.False(t, limiter.Allow("a"))

	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestKeyed_Unlimited(t *testing.T) {
	limiter := NewKeyed(0, 0, 0, 0)
	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow("a"))
	}
	assert.Zero(t, limiter.Len())
}

func BenchmarkKeyedAllow(b *testing.B) {
	limiter := NewKeyed(0, 0, 0, 0)
	for i := 0; i < b.N; i++ {
		limiter.Allow("bench")
	}
}

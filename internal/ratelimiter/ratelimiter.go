// Package ratelimiter throttles API requests with token buckets.
package ratelimiter

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// unlimited stands in for rate.Inf, which has edge cases with burst 0.
const unlimited = 1_000_000_000

// RateLimiter is a single token bucket shared by all callers.
//
// The token bucket algorithm works as follows:
//  1. Tokens are added to the bucket at a constant rate (requests per second)
//  2. Each request consumes one token from the bucket
//  3. If the bucket is empty, the request is rejected
//  4. Burst capacity allows temporary spikes above the sustained rate
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// Parameters:
//   - requestsPerSecond: Maximum sustained rate; 0 disables limiting
//   - burst: Bucket capacity; 0 defaults to requestsPerSecond
//
// Example:
//
//	// Allow 100 req/s sustained, 200 req/s burst
//	limiter := New(100, 200)
func New(requestsPerSecond, burst uint) *RateLimiter {
	return &RateLimiter{limiter: newLimiter(requestsPerSecond, burst)}
}

func newLimiter(requestsPerSecond, burst uint) *rate.Limiter {
	if requestsPerSecond == 0 {
		return rate.NewLimiter(rate.Limit(unlimited), unlimited)
	}
	if burst == 0 {
		burst = requestsPerSecond
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))
}

// Allow reports whether a request may proceed, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Tokens returns the tokens currently in the bucket. Useful in tests and
// debugging only; the value changes as soon as it is read.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

// ============================================================================
// Per-client limiting
// ============================================================================

// KeyedRateLimiter keeps one bucket per key (typically a client address).
//
// Buckets live in an expiring LRU: a client idle for longer than the TTL
// starts again with a full bucket, and at most maxKeys clients are tracked.
type KeyedRateLimiter struct {
	requestsPerSecond uint
	burst             uint

	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewKeyed creates a per-key limiter. maxKeys defaults to 10000 and idleTTL
// to 10 minutes.
func NewKeyed(requestsPerSecond, burst uint, maxKeys int, idleTTL time.Duration) *KeyedRateLimiter {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedRateLimiter{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		buckets:           expirable.NewLRU[string, *rate.Limiter](maxKeys, nil, idleTTL),
	}
}

// Allow reports whether key may make a request now.
func (k *KeyedRateLimiter) Allow(key string) bool {
	if k.requestsPerSecond == 0 {
		return true
	}

	k.mu.Lock()
	limiter, ok := k.buckets.Get(key)
	if !ok {
		limiter = newLimiter(k.requestsPerSecond, k.burst)
	}
	// Re-adding refreshes the idle TTL.
	k.buckets.Add(key, limiter)
	k.mu.Unlock()

	return limiter.Allow()
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	return k.buckets.Len()
}

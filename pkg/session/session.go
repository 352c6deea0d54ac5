// Package session stores authentication tokens.
//
// A session maps an opaque token to a user id for a bounded time. Tokens are
// revocable: Delete invalidates a token immediately.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates the token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions.
type Store interface {
	// Set binds token to userID for ttl.
	Set(ctx context.Context, token, userID string, ttl time.Duration) error

	// Get resolves a token. Returns ErrSessionNotFound if it is unknown or
	// has expired.
	Get(ctx context.Context, token string) (string, error)

	// Delete revokes a token. Returns ErrSessionNotFound if it was not set.
	Delete(ctx context.Context, token string) error

	// Close releases resources.
	Close() error
}

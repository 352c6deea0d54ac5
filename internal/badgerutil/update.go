// Package badgerutil holds transaction helpers shared by the BadgerDB stores.
package badgerutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/filesmanager/internal/logger"
)

// RetryPolicy bounds how a conflicting transaction is replayed.
type RetryPolicy struct {
	// MaxRetries is the number of replays after the first attempt
	MaxRetries uint64

	// InitialInterval is the first pause; later pauses grow exponentially
	// with jitter up to MaxInterval
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows roughly a second of contention before giving up.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      16,
	InitialInterval: time.Millisecond,
	MaxInterval:     100 * time.Millisecond,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// Update runs fn in a read-write transaction. A badger.ErrConflict is
// retried with jittered exponential backoff; any other error is returned
// as is. name labels the debug log emitted on each retry.
func Update(ctx context.Context, db *badger.DB, policy RetryPolicy, name string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	op := func() error {
		err := db.Update(fn)
		if err == nil || errors.Is(err, badger.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		logger.Debug("%s transaction conflict, retrying in %v (attempt %d)", name, wait, attempt)
	}

	return backoff.RetryNotify(op, policy.backOff(ctx), notify)
}

package badgerutil

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{
	MaxRetries:      4,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// readThenWrite reads key, lets interfere run, then writes key. A commit
// from interfere between the read and the write makes the outer commit
// conflict.
func readThenWrite(key []byte, interfere func()) func(txn *badger.Txn) error {
	return func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		interfere()
		return txn.Set(key, []byte("outer"))
	}
}

func TestUpdate_RetriesConflict(t *testing.T) {
	db := openDB(t)
	key := []byte("k")

	calls := 0
	err := Update(context.Background(), db, fastPolicy, "test", readThenWrite(key, func() {
		calls++
		if calls == 1 {
			require.NoError(t, db.Update(func(txn *badger.Txn) error {
				return txn.Set(key, []byte("inner"))
			}))
		}
	}))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.NoError(t, db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		require.NoError(t, err)
		val, err := item.ValueCopy(nil)
		require.NoError(t, err)
		assert.Equal(t, "outer", string(val))
		return nil
	}))
}

func TestUpdate_GivesUpAfterMaxRetries(t *testing.T) {
	db := openDB(t)
	key := []byte("k")

	calls := 0
	err := Update(context.Background(), db, fastPolicy, "test", readThenWrite(key, func() {
		calls++
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, []byte("inner"))
		}))
	}))

	assert.ErrorIs(t, err, badger.ErrConflict)
	assert.Equal(t, int(fastPolicy.MaxRetries)+1, calls)
}

func TestUpdate_OtherErrorsAreNotRetried(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	calls := 0
	err := Update(context.Background(), db, fastPolicy, "test", func(txn *badger.Txn) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestUpdate_CancelledContext(t *testing.T) {
	db := openDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Update(ctx, db, fastPolicy, "test", func(txn *badger.Txn) error {
		t.Fatal("transaction must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

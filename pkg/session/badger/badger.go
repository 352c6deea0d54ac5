package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/filesmanager/pkg/session"
)

// prefixSession namespaces session keys: s:<token> → user id.
const prefixSession = "s:"

// BadgerSessionStore persists sessions in BadgerDB using native key TTLs,
// so expired sessions disappear without a sweeper.
type BadgerSessionStore struct {
	db *badger.DB
}

// BadgerSessionStoreConfig is decoded from the sessions.badger config section.
type BadgerSessionStoreConfig struct {
	DBPath   string `mapstructure:"db_path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// NewBadgerSessionStore opens (or creates) the session database.
func NewBadgerSessionStore(ctx context.Context, cfg BadgerSessionStoreConfig) (*BadgerSessionStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger session store: db_path is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING).
		WithCompression(options.None).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(8 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}
	return &BadgerSessionStore{db: db}, nil
}

func keySession(token string) []byte {
	return []byte(prefixSession + token)
}

func (s *BadgerSessionStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" || userID == "" {
		return fmt.Errorf("token and user id are required")
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(keySession(token), []byte(userID)).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySession(token))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		userID = string(raw)
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", session.ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return userID, nil
}

func (s *BadgerSessionStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keySession(token)); err != nil {
			return err
		}
		return txn.Delete(keySession(token))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return session.ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// Ensure interface compliance.
var _ session.Store = (*BadgerSessionStore)(nil)

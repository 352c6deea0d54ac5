package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/metadata/internal"
)

// CreateUser writes the user and its email index entry in one transaction,
// so two concurrent registrations of the same email cannot both succeed.
func (s *BadgerMetadataStore) CreateUser(ctx context.Context, user *metadata.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" || user.Email == "" {
		return metadata.NewInvalidArgumentError("user id and email are required")
	}

	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	email := internal.NormalizeEmail(user.Email)

	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(keyEmail(email)); err == nil {
			return metadata.NewAlreadyExistsError("user", user.Email)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if _, err := txn.Get(keyUser(user.ID)); err == nil {
			return metadata.NewAlreadyExistsError("user", user.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check user: %w", err)
		}

		if err := txn.Set(keyUser(user.ID), data); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		if err := txn.Set(keyEmail(email), []byte(user.ID)); err != nil {
			return fmt.Errorf("failed to store email index: %w", err)
		}
		return nil
	})
}

func (s *BadgerMetadataStore) GetUser(ctx context.Context, id string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUserTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *BadgerMetadataStore) GetUserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyEmail(internal.NormalizeEmail(email)))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return metadata.NewNotFoundError("user", email)
			}
			return fmt.Errorf("failed to get email index: %w", err)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read email index: %w", err)
		}
		user, err = getUserTxn(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *BadgerMetadataStore) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func getUserTxn(txn *badger.Txn, id string) (*metadata.User, error) {
	item, err := txn.Get(keyUser(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user *metadata.User
	err = item.Value(func(val []byte) error {
		var err error
		user, err = decodeUser(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/metadata/internal"
)

// CreateFile persists a record and its listing index entry in one transaction.
//
// The sequence number is drawn before the transaction starts. A conflicting
// retry keeps the same number, so listing order follows the order in which
// creations started rather than the order they committed.
func (s *BadgerMetadataStore) CreateFile(ctx context.Context, record *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || record.ID == "" {
		return metadata.NewInvalidArgumentError("record id is required")
	}

	next, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	stored := record.Clone()
	stored.ParentID = internal.NormalizeParentID(stored.ParentID)
	// Sequence starts at 0; reserve 0 for "unset".
	stored.Seq = next + 1

	data, err := encodeFile(stored)
	if err != nil {
		return err
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(keyFile(stored.ID))
		if err == nil {
			return metadata.NewAlreadyExistsError("file", stored.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check file: %w", err)
		}

		if err := txn.Set(keyFile(stored.ID), data); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}
		if err := txn.Set(keyIndex(stored.OwnerID, stored.ParentID, stored.Seq), []byte(stored.ID)); err != nil {
			return fmt.Errorf("failed to store listing index: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	record.Seq = stored.Seq
	return nil
}

func (s *BadgerMetadataStore) GetFile(ctx context.Context, id string) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			return cached.Clone(), nil
		}
	}

	var record *metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = getFileTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(id, record.Clone())
	}
	return record, nil
}

func (s *BadgerMetadataStore) ListFiles(ctx context.Context, ownerID, parentID string, offset, limit int) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, metadata.NewInvalidArgumentError("offset and limit must be non-negative")
	}

	result := []*metadata.FileRecord{}
	if limit == 0 {
		return result, nil
	}

	prefix := keyIndexPrefix(ownerID, internal.NormalizeParentID(parentID))

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if skipped < offset {
				skipped++
				continue
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read listing index: %w", err)
			}
			record, err := getFileTxn(txn, string(id))
			if err != nil {
				return err
			}
			result = append(result, record)
			if len(result) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerMetadataStore) SetPublic(ctx context.Context, id string, isPublic bool) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.lockRecord(id)
	defer unlock()

	var updated *metadata.FileRecord
	err := s.update(ctx, func(txn *badger.Txn) error {
		record, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}
		record.IsPublic = isPublic

		data, err := encodeFile(record)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(id), data); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		if s.cache != nil {
			s.cache.Remove(id)
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(id, updated.Clone())
	}
	return updated, nil
}

func (s *BadgerMetadataStore) CountFiles(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixFile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

func (s *BadgerMetadataStore) ListContentIDs(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				record, err := decodeFile(val)
				if err != nil {
					return err
				}
				if record.ContentID != "" {
					ids[record.ContentID] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content ids: %w", err)
	}
	return ids, nil
}

// getFileTxn loads a record inside an existing transaction.
func getFileTxn(txn *badger.Txn, id string) (*metadata.FileRecord, error) {
	item, err := txn.Get(keyFile(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.NewNotFoundError("file", id)
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	var record *metadata.FileRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = decodeFile(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/marmos91/filesmanager/pkg/content"
)

// blob is a stored payload with its write time.
type blob struct {
	data    []byte
	modTime time.Time
}

// MemoryContentStore implements ContentStore using in-memory storage.
//
// It is designed for tests and ephemeral deployments (content.type: memory).
// Data is lost on restart.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on write
// and handed out through a fresh reader, so callers never alias store memory.
type MemoryContentStore struct {
	// data stores blobs keyed by content id
	data map[string]blob

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates a new, empty in-memory content store.
//
// Returns an error only if ctx is already cancelled.
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		data: make(map[string]blob),
	}, nil
}

func (s *MemoryContentStore) WriteContent(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = blob{data: copied, modTime: time.Now()}
	return nil
}

func (s *MemoryContentStore) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	// Stored slices are never mutated after write, so sharing is safe.
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (s *MemoryContentStore) ContentExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok, nil
}

func (s *MemoryContentStore) GetContentSize(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[id]
	if !ok {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return int64(len(b.data)), nil
}

func (s *MemoryContentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Location returns a memory:// URI; there is no on-disk path.
func (s *MemoryContentStore) Location(id string) string {
	return "memory://" + id
}

func (s *MemoryContentStore) ListAllContent(ctx context.Context) ([]content.ContentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]content.ContentInfo, 0, len(s.data))
	for id, b := range s.data {
		infos = append(infos, content.ContentInfo{
			ID:      id,
			Size:    int64(len(b.data)),
			ModTime: b.modTime,
		})
	}
	return infos, nil
}

func (s *MemoryContentStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

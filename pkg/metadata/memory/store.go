package memory

import (
	"context"
	"sync"

	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/metadata/internal"
)

// listKey groups records by owner and parent for listings.
type listKey struct {
	ownerID  string
	parentID string
}

// MemoryMetadataStore implements MetadataStore using in-memory storage.
//
// It is suitable for tests, development and ephemeral deployments. Data is
// lost on restart.
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu). Records are
// cloned on the way in and out so callers never share memory with the store.
//
// Storage Model:
//   - files: id → record
//   - children: (owner, parent) → ids in creation order
//   - users: id → user, with an email → id index
type MemoryMetadataStore struct {
	mu sync.RWMutex

	files    map[string]*metadata.FileRecord
	children map[listKey][]string
	seq      uint64

	users        map[string]*metadata.User
	usersByEmail map[string]string

	closed bool
}

// MemoryMetadataStoreConfig is decoded from the metadata.memory config section.
// The memory store currently has no tunables.
type MemoryMetadataStoreConfig struct{}

// NewMemoryMetadataStore creates an empty in-memory store.
func NewMemoryMetadataStore(_ MemoryMetadataStoreConfig) *MemoryMetadataStore {
	return &MemoryMetadataStore{
		files:        make(map[string]*metadata.FileRecord),
		children:     make(map[listKey][]string),
		users:        make(map[string]*metadata.User),
		usersByEmail: make(map[string]string),
	}
}

// NewMemoryMetadataStoreWithDefaults creates an empty in-memory store.
func NewMemoryMetadataStoreWithDefaults() *MemoryMetadataStore {
	return NewMemoryMetadataStore(MemoryMetadataStoreConfig{})
}

// ============================================================================
// File Records
// ============================================================================

func (s *MemoryMetadataStore) CreateFile(ctx context.Context, record *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || record.ID == "" {
		return metadata.NewInvalidArgumentError("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[record.ID]; exists {
		return metadata.NewAlreadyExistsError("file", record.ID)
	}

	s.seq++
	record.Seq = s.seq

	stored := record.Clone()
	stored.ParentID = internal.NormalizeParentID(stored.ParentID)
	s.files[record.ID] = stored
	key := listKey{ownerID: stored.OwnerID, parentID: stored.ParentID}
	s.children[key] = append(s.children[key], record.ID)

	return nil
}

func (s *MemoryMetadataStore) GetFile(ctx context.Context, id string) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.files[id]
	if !ok {
		return nil, metadata.NewNotFoundError("file", id)
	}
	return record.Clone(), nil
}

func (s *MemoryMetadataStore) ListFiles(ctx context.Context, ownerID, parentID string, offset, limit int) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, metadata.NewInvalidArgumentError("offset and limit must be non-negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[listKey{ownerID: ownerID, parentID: internal.NormalizeParentID(parentID)}]
	if offset >= len(ids) || limit == 0 {
		return []*metadata.FileRecord{}, nil
	}

	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	result := make([]*metadata.FileRecord, 0, end-offset)
	for _, id := range ids[offset:end] {
		result = append(result, s.files[id].Clone())
	}
	return result, nil
}

func (s *MemoryMetadataStore) SetPublic(ctx context.Context, id string, isPublic bool) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.files[id]
	if !ok {
		return nil, metadata.NewNotFoundError("file", id)
	}
	record.IsPublic = isPublic
	return record.Clone(), nil
}

func (s *MemoryMetadataStore) CountFiles(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files), nil
}

func (s *MemoryMetadataStore) ListContentIDs(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.files))
	for _, record := range s.files {
		if record.ContentID != "" {
			ids[record.ContentID] = struct{}{}
		}
	}
	return ids, nil
}

// ============================================================================
// Users
// ============================================================================

func (s *MemoryMetadataStore) CreateUser(ctx context.Context, user *metadata.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" || user.Email == "" {
		return metadata.NewInvalidArgumentError("user id and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := internal.NormalizeEmail(user.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return metadata.NewAlreadyExistsError("user", user.Email)
	}
	if _, exists := s.users[user.ID]; exists {
		return metadata.NewAlreadyExistsError("user", user.ID)
	}

	s.users[user.ID] = user.Clone()
	s.usersByEmail[email] = user.ID
	return nil
}

func (s *MemoryMetadataStore) GetUser(ctx context.Context, id string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, metadata.NewNotFoundError("user", id)
	}
	return user.Clone(), nil
}

func (s *MemoryMetadataStore) GetUserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[internal.NormalizeEmail(email)]
	if !ok {
		return nil, metadata.NewNotFoundError("user", email)
	}
	return s.users[id].Clone(), nil
}

func (s *MemoryMetadataStore) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *MemoryMetadataStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &metadata.StoreError{Code: metadata.ErrIOError, Message: "store is closed"}
	}
	return nil
}

func (s *MemoryMetadataStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

package metadata

import "context"

// ============================================================================
// MetadataStore Interface
// ============================================================================

// MetadataStore is the durable repository of file records and user accounts.
//
// The store only persists and queries; ownership and visibility rules are
// enforced by the file manager. Implementations must be safe for concurrent
// use, and every mutation of a single record must be atomic.
//
// Ordering:
// ListFiles returns records in creation order. Stores assign FileRecord.Seq
// on CreateFile from a monotonic sequence and order listings by it.
//
// Errors:
// Domain failures are returned as *StoreError (see errors.go). Anything else
// is an infrastructure failure wrapped with context.
type MetadataStore interface {
	// ========================================================================
	// File Records
	// ========================================================================

	// CreateFile persists a new record and assigns record.Seq.
	//
	// Returns ErrAlreadyExists if a record with the same ID exists and
	// ErrInvalidArgument if the record is nil or has an empty ID.
	CreateFile(ctx context.Context, record *FileRecord) error

	// GetFile returns the record with the given id or ErrNotFound.
	GetFile(ctx context.Context, id string) (*FileRecord, error)

	// ListFiles returns up to limit records owned by ownerID whose parent is
	// parentID, in creation order, skipping the first offset matches.
	//
	// An offset past the last record yields an empty slice, not an error.
	ListFiles(ctx context.Context, ownerID, parentID string, offset, limit int) ([]*FileRecord, error)

	// SetPublic atomically updates the visibility flag and returns the
	// updated record. Returns ErrNotFound if the record doesn't exist.
	SetPublic(ctx context.Context, id string, isPublic bool) (*FileRecord, error)

	// CountFiles returns the number of file records (folders included).
	CountFiles(ctx context.Context) (int, error)

	// ListContentIDs returns the set of content ids referenced by records.
	// Used by garbage collection to find orphaned blobs.
	ListContentIDs(ctx context.Context) (map[string]struct{}, error)

	// ========================================================================
	// Users
	// ========================================================================

	// CreateUser persists a new user. Returns ErrAlreadyExists when the
	// email is already registered.
	CreateUser(ctx context.Context, user *User) error

	// GetUser returns the user with the given id or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail returns the user registered with email or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

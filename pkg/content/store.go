package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ============================================================================
// ContentStore Interface
// ============================================================================

// ContentStore persists opaque blobs keyed by content id.
//
// Separation of Concerns:
// The content store manages only raw bytes. Names, ownership and visibility
// live in the metadata store, which references blobs through
// FileRecord.ContentID. Thumbnails are ordinary blobs whose id is the
// original's id suffixed with "_<width>".
//
// Content Identifiers:
// Ids are opaque to callers. New uploads use a random UUID. Ids must not
// contain path separators (see ValidateID).
//
// Thread Safety:
// Implementations must be safe for concurrent use. Concurrent writes to the
// same id are last-write-wins and never expose a partially written blob.
type ContentStore interface {
	// WriteContent stores data under id, replacing any existing blob.
	WriteContent(ctx context.Context, id string, data []byte) error

	// ReadContent returns a reader for the blob. The caller must close it.
	// Returns ErrContentNotFound if the blob doesn't exist.
	ReadContent(ctx context.Context, id string) (io.ReadCloser, error)

	// ContentExists reports whether a blob exists. A missing blob is
	// (false, nil), not an error.
	ContentExists(ctx context.Context, id string) (bool, error)

	// GetContentSize returns the blob size in bytes or ErrContentNotFound.
	GetContentSize(ctx context.Context, id string) (int64, error)

	// Delete removes a blob. Deleting a missing blob succeeds.
	Delete(ctx context.Context, id string) error

	// Location returns the path recorded as FileRecord.LocalPath for id.
	// It performs no I/O.
	Location(id string) string

	// ListAllContent returns every blob in the store. Used by the garbage
	// collector to find blobs no record references.
	ListAllContent(ctx context.Context) ([]ContentInfo, error)

	// Healthcheck verifies the backend is reachable and writable.
	Healthcheck(ctx context.Context) error
}

// ContentInfo describes a stored blob.
type ContentInfo struct {
	ID      string
	Size    int64
	ModTime time.Time
}

// ThumbnailID returns the id of the derivative of contentID at width.
//
// Example:
//
//	ThumbnailID("550e8400-e29b-41d4-a716-446655440000", 250)
//	// → "550e8400-e29b-41d4-a716-446655440000_250"
func ThumbnailID(contentID string, width int) string {
	return fmt.Sprintf("%s_%d", contentID, width)
}

// BaseID strips a thumbnail suffix, returning the id of the original blob.
// Ids without a suffix are returned unchanged.
func BaseID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return id
}

// ValidateID rejects ids that could escape the store's namespace.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%q: %w", id, ErrInvalidContentID)
	}
	return nil
}

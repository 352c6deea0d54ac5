package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all content store implementations. Callers check them with errors.Is.
//
// Implementations wrap them with additional context:
//
//	if !fileExists {
//	    return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
//	}

var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// Returned by ReadContent and GetContentSize. Delete and ContentExists
	// never return it.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates the id cannot name a blob: it is empty
	// or contains path separators or parent references.
	ErrInvalidContentID = errors.New("invalid content ID")

	// ErrUnavailable indicates the storage backend is temporarily unavailable.
	ErrUnavailable = errors.New("storage unavailable")
)

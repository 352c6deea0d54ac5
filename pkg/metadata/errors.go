package metadata

import "errors"

// StoreError represents a domain error from metadata store operations.
//
// These are business logic errors (record not found, duplicate email, etc.)
// as opposed to infrastructure errors (disk failure, closed database), which
// stores return wrapped with fmt.Errorf.
//
// The file manager translates StoreError codes into its own error taxonomy;
// any other error is treated as an upstream failure.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the record identifier related to the error (if applicable)
	ID string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// ErrorCode represents the category of a store error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested record doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates a record with the same unique key exists
	// (duplicate file id, duplicate user email)
	ErrAlreadyExists

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty id, nil record, negative limit
	ErrInvalidArgument

	// ErrIOError indicates the underlying storage failed
	ErrIOError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrAlreadyExists:
		return "already_exists"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// NewNotFoundError returns a StoreError with code ErrNotFound.
func NewNotFoundError(kind, id string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: kind + " not found", ID: id}
}

// NewAlreadyExistsError returns a StoreError with code ErrAlreadyExists.
func NewAlreadyExistsError(kind, id string) *StoreError {
	return &StoreError{Code: ErrAlreadyExists, Message: kind + " already exists", ID: id}
}

// NewInvalidArgumentError returns a StoreError with code ErrInvalidArgument.
func NewInvalidArgumentError(message string) *StoreError {
	return &StoreError{Code: ErrInvalidArgument, Message: message}
}

// IsNotFoundError reports whether err is (or wraps) a StoreError with ErrNotFound.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrNotFound)
}

// IsAlreadyExistsError reports whether err is (or wraps) a StoreError with ErrAlreadyExists.
func IsAlreadyExistsError(err error) bool {
	return hasCode(err, ErrAlreadyExists)
}

func hasCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

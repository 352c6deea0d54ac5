package files

import (
	"errors"
	"fmt"
)

// Kind classifies a File Manager failure. API handlers map kinds to HTTP
// status codes; nothing else about an error leaves the service.
type Kind int

const (
	// KindValidation is malformed or missing input (400).
	KindValidation Kind = iota

	// KindUnauthorized is a missing or invalid caller identity (401).
	KindUnauthorized

	// KindNotFound is an absent record, or one the caller may not see (404).
	KindNotFound

	// KindInvalidOperation is a well-formed but disallowed request (400).
	KindInvalidOperation

	// KindUpstream is a failing collaborator: metadata, blob or queue (500).
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is returned by every Manager operation.
//
// Message is safe to show to clients. Err, when set, is the collaborator
// failure behind a KindUpstream error and is only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client-facing messages.
const (
	MsgMissingName       = "Missing name"
	MsgMissingType       = "Missing type"
	MsgMissingData       = "Missing data"
	MsgInvalidData       = "Invalid data"
	MsgParentNotFound    = "Parent not found"
	MsgParentNotFolder   = "Parent is not a folder"
	MsgInvalidSize       = "Invalid size parameter"
	MsgFolderHasNoData   = "A folder doesn't have content"
	MsgNotFound          = "Not found"
	MsgUnauthorized      = "Unauthorized"
	MsgInternalServerErr = "Internal Server Error"
)

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError() *Error {
	return &Error{Kind: KindNotFound, Message: MsgNotFound}
}

func upstreamError(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: MsgInternalServerErr, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of err. Errors that are not *Error are upstream
// failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

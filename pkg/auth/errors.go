package auth

import "errors"

// ErrUnauthorized is returned for any credential or token failure. The
// cause is logged, never returned, so callers cannot tell a wrong password
// from an unknown email.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError is a rejected registration request. Message is safe to
// show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

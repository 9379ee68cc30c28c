package models

import "errors"

// Stable error kinds surfaced to API clients. Services wrap these with
// fmt.Errorf("...: %w", Err...) so handlers can map them to HTTP statuses
// while keeping a human-readable message.
var (
	ErrValidation      = errors.New("validation_error")
	ErrNotFound        = errors.New("not_found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
)

// ErrorKind returns the machine-readable kind for err, or "internal_error"
// when err does not wrap one of the known kinds.
func ErrorKind(err error) string {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrConflict} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal_error"
}

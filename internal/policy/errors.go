package policy

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrUnauthorized = errors.New("you do not have permission to perform this operation")
	ErrNotFound     = errors.New("record not found")
	ErrConflict     = errors.New("record already exists")
)

// ValidationError carries a human-readable message for a rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

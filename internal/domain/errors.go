package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicatePassage is returned when a passage with the same id was already ingested
var ErrDuplicatePassage = errors.New("passage already exists")

// ValidationError indicates that an incoming passage failed schema or range checks.
// It is a client error and must never be retried as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

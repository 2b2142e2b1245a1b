package services

import (
	"errors"
	"strings"
)

var (
	// ErrNotAccessible covers both missing resources and resources the caller
	// may not see or change. Callers cannot tell the two apart.
	ErrNotAccessible      = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrInactiveAccount    = errors.New("inactive account")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails validation before any store
// access happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// IsValidationError reports whether err carries field-level detail.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no record matches the id or slug.
	ErrNotFound = errors.New("not found")

	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned when an admin login is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

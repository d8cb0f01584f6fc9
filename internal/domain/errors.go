package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when an entity does not exist or is not
	// visible to the caller (owner-scoped lookups report foreign rows
	// as not found rather than forbidden).
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input that failed field validation. Wrap it
	// with the field-level detail: fmt.Errorf("%w: title is required", ErrValidation).
	ErrValidation = errors.New("validation failed")

	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Entity-specific not-found errors. All of them match ErrNotFound with errors.Is.
var (
	ErrTenantNotFound     = fmt.Errorf("tenant %w", ErrNotFound)
	ErrCollectionNotFound = fmt.Errorf("collection %w", ErrNotFound)
	ErrDocumentNotFound   = fmt.Errorf("document %w", ErrNotFound)
)

// ErrConflict indicates a uniqueness conflict, e.g. a tenant name that is already taken.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates malformed input (shape, charset, length, pagination bounds).
var ErrValidation = errors.New("validation failed")

// ErrNoTenant indicates that no tenant could be derived from the request host.
var ErrNoTenant = errors.New("could not determine tenant from request")

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationMessage returns the user-facing message of a validation error, or
// the plain error text when err is not a *ValidationError.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

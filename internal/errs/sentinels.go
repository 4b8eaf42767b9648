// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates caller-correctable input (bad policy fields, bad targets).
	ErrValidation = errors.New("validation")

	// ErrForbidden indicates that referenced records belong to another owner.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the operation collides with existing state
	// (e.g. deleting a custom status that is still referenced).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError describes a single malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is a shorthand constructor for ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// OwnershipError rejects a batch in which some ids are not owned by the caller.
type OwnershipError struct {
	IDs []uuid.UUID
}

func (e *OwnershipError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return "forbidden: not owned: " + strings.Join(ids, ",")
}

// Unwrap lets errors.Is match ErrForbidden.
func (e *OwnershipError) Unwrap() error { return ErrForbidden }

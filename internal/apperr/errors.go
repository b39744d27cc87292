// Package apperr defines the error taxonomy shared by the store, the engines
// and the transport layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStoreFailure    = errors.New("store failure")
)

// ValidationError carries field-level messages (usually ozzo validation.Errors).
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation wraps err as a ValidationError. A nil err stays nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// Invalid builds a ValidationError from a plain message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// Store wraps a backing store error so that errors.Is(err, ErrStoreFailure) holds.
func Store(op string, err error) error {
	return fmt.Errorf("store: %s: %w", op, errors.Join(ErrStoreFailure, err))
}

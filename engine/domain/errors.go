package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for selection and catalog failures.
var (
	ErrIncompleteSelection = errors.New("incomplete selection")
	ErrUnknownBrand        = errors.New("unknown brand")
	ErrUnknownModel        = errors.New("unknown model")
	ErrUnknownGeneration   = errors.New("unknown generation")
	ErrUnknownEngineCode   = errors.New("unknown engine code")
	ErrProfileNotFound     = errors.New("engine profile not found")
	ErrInvalidRiskRating   = errors.New("risk rating out of range")
	ErrDuplicateProfile    = errors.New("duplicate engine profile")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// NotFoundError reports a composite key with no profile behind it.
type NotFoundError struct {
	Selection Selection
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProfileNotFound, e.Selection)
}

func (e *NotFoundError) Unwrap() error { return ErrProfileNotFound }

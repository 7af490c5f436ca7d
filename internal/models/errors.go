package models

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound marks a lookup that resolved to nothing. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicateOrderNumber surfaces a unique-constraint hit on order_number so
// the caller can regenerate and retry.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

// ValidationError aggregates every problem found in one input so the caller
// sees them all at once. Handlers map it to 400.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

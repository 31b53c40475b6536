/*
errors.go - Error types for the pricing engine

PURPOSE:
  The pricing engine raises exactly one kind of error: invalid input.
  Callers distinguish it from storage or transport failures with
  errors.Is(err, ErrInvalidInput) or errors.As into *InvalidInputError.

RECOVERY:
  An invalid shape is not recoverable by the evaluator. The batch
  generator filters the offending student out and keeps going.

SEE ALSO:
  - evaluator.go: Shape validation
  - discount.go: Percent and base price validation
  - billing/generator.go: Skips students failing with these errors
*/
package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel behind every InvalidInputError.
var ErrInvalidInput = errors.New("invalid pricing input")

// InvalidInputError describes which field was rejected and why.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field string, value any, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

// IsInvalidInput reports whether err was caused by rejected input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

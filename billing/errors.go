/*
errors.go - Error types for monthly generation

ERROR CATEGORIES:
  1. Client errors - a malformed period (ErrInvalidPeriod)
  2. Student errors - pricing.ErrInvalidInput; never abort a run, they
     are collected in Summary.Skipped
  3. Store errors - read or write failures; surfaced to the operator as
     *StoreError so they can fix the data and re-run the period

SEE ALSO:
  - generator.go: Produces these errors
  - pricing/errors.go: Per-student input errors
*/
package billing

import (
	"errors"
	"fmt"

	"github.com/mateatletas/cuotas/pricing"
)

var (
	// ErrInvalidPeriod is returned for periods that are not a real month.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrStoreFailure wraps any failure of a Source or Store.
	ErrStoreFailure = errors.New("store failure")

	// ErrStoreRequired is returned when an operation needs a store capability
	// the configured store does not provide.
	ErrStoreRequired = errors.New("operation requires extended store interface")
)

// StoreError says which step of a run failed.
type StoreError struct {
	Op        string // "load", "clear", "save"
	Period    Period
	StudentID string
	Err       error
}

func (e *StoreError) Error() string {
	if e.StudentID != "" {
		return fmt.Sprintf("%s %s for student %s: %v", e.Op, e.Period, e.StudentID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Period, e.Err)
}

// Is lets errors.Is match both ErrStoreFailure and the underlying cause.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsClientError returns true if err is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) || errors.Is(err, pricing.ErrInvalidInput)
}

/*
errors.go - Centralized error types for the CRM engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The service and API layers classify errors with the helpers below
  instead of matching on concrete types.

ERROR CATEGORIES:
  1. Validation errors - Bad input from the caller
  2. Conflict errors - State rules (closed month, duplicate salary)
  3. Not-found errors - Missing records
  4. Store errors - Persistence failures (logged, not surfaced as truth)

SEE ALSO:
  - service/service.go: Wraps these with operation context
  - api/handlers.go: Maps categories to HTTP status codes
*/
package crm

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrMonthClosed is returned when closing a month that already has an
	// archive. Archives are immutable, there is no overwrite path.
	ErrMonthClosed = errors.New("month already closed")

	// ErrDuplicateSalary is returned when a salary record already exists
	// for the same (month, manager) pair.
	ErrDuplicateSalary = errors.New("salary already exists for this month and manager")

	// ErrLastManager is returned when deleting the only remaining manager.
	ErrLastManager = errors.New("cannot delete the last manager")

	// ErrLastSource is returned when deleting the only remaining order source.
	ErrLastSource = errors.New("cannot delete the last order source")

	// ErrDuplicateName is returned when a manager or source name is taken.
	ErrDuplicateName = errors.New("name already exists")

	// ErrOrderNotFound, ErrExpenseNotFound, ErrSalaryNotFound,
	// ErrArchiveNotFound are returned for lookups of missing records.
	ErrOrderNotFound   = errors.New("order not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrSalaryNotFound  = errors.New("salary not found")
	ErrArchiveNotFound = errors.New("archive not found")
	ErrManagerNotFound = errors.New("manager not found")
	ErrSourceNotFound  = errors.New("order source not found")

	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a single bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MonthClosedError reports an attempt to close an already-archived month.
type MonthClosedError struct {
	Month MonthKey
}

func (e *MonthClosedError) Error() string {
	return fmt.Sprintf("month %s already closed", e.Month)
}

func (e *MonthClosedError) Unwrap() error { return ErrMonthClosed }

// DuplicateSalaryError reports a (month, manager) uniqueness violation.
type DuplicateSalaryError struct {
	Month   MonthKey
	Manager string
}

func (e *DuplicateSalaryError) Error() string {
	return fmt.Sprintf("salary for %s already exists in %s", e.Manager, e.Month)
}

func (e *DuplicateSalaryError) Unwrap() error { return ErrDuplicateSalary }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict returns true if the error is a state-rule conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrMonthClosed) ||
		errors.Is(err, ErrDuplicateSalary) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrLastManager) ||
		errors.Is(err, ErrLastSource)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrSalaryNotFound) ||
		errors.Is(err, ErrArchiveNotFound) ||
		errors.Is(err, ErrManagerNotFound) ||
		errors.Is(err, ErrSourceNotFound)
}

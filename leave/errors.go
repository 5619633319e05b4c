/*
errors.go - Centralized error kinds for the leave domain

PURPOSE:
  All domain error kinds in one place. Every error is recoverable and
  local: the lifecycle manager returns them to its caller, nothing here
  is fatal to the process. The transport layer translates these into
  status codes and user-visible messages.

ERROR CATEGORIES:
  1. Validation errors - a business rule rejected the request
  2. State errors      - not found, non-pending request, bad approver
  3. Persistence       - the store failed to apply an otherwise-valid change

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) { ... }

  var overlap *leave.OverlapError
  if errors.As(err, &overlap) { ... overlap.ConflictID ... }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when dates are malformed or start > end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrPriorToJoining is returned when leave starts before the employee joined.
	ErrPriorToJoining = errors.New("leave starts before joining date")

	// ErrBeyondHorizon is returned when leave starts too far in the future.
	ErrBeyondHorizon = errors.New("leave starts beyond the allowed horizon")

	// ErrNoWorkingDays is returned when the range contains only weekend days.
	ErrNoWorkingDays = errors.New("leave period contains no working days")

	// ErrExceedsMaxDuration is returned when the working-day count exceeds
	// the configured maximum consecutive duration.
	ErrExceedsMaxDuration = errors.New("exceeds maximum leave duration")

	// ErrOverlappingRequest is returned when an existing non-rejected request
	// for the same employee intersects the requested range.
	ErrOverlappingRequest = errors.New("overlapping leave request exists")

	// ErrInsufficientBalance is returned when the requested working days
	// exceed the current balance for that leave type and year.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrInvalidLeaveType is returned for a leave type outside the enumeration.
	ErrInvalidLeaveType = errors.New("invalid leave type")

	// ErrEmployeeNotFound is returned when a referenced employee does not
	// exist or has been deactivated.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a referenced request does not exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrInvalidStateTransition is returned when acting on a non-pending request.
	ErrInvalidStateTransition = errors.New("request is not pending")

	// ErrUnauthorizedApprover is returned when the approver is the requester
	// or is not an active employee.
	ErrUnauthorizedApprover = errors.New("approver not authorized")

	// ErrInvalidEmployee is returned when employee fields fail validation.
	ErrInvalidEmployee = errors.New("invalid employee")

	// ErrDuplicateEmail is returned when creating an employee with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("employee with this email already exists")

	// ErrPersistence wraps storage failures during an otherwise-valid
	// operation. Distinguishes "the system failed" from "the rules said no".
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending fields
// =============================================================================

// InsufficientBalanceError reports a balance shortage for a specific key.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Type       LeaveType
	Year       int
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %d: available %s, requested %s",
		e.Type, e.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError reports the conflicting request.
type OverlapError struct {
	EmployeeID EmployeeID
	Start      Date
	End        Date
	ConflictID RequestID
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range %s..%s overlaps request %s", e.Start, e.End, e.ConflictID)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// StateTransitionError reports the terminal status of a request that was
// asked to transition again.
type StateTransitionError struct {
	RequestID RequestID
	Status    RequestStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("request %s is already %s", e.RequestID, e.Status)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// PersistenceError wraps the storage-level cause of a failed effect set.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a business-rule rejection of a request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrPriorToJoining) ||
		errors.Is(err, ErrBeyondHorizon) ||
		errors.Is(err, ErrNoWorkingDays) ||
		errors.Is(err, ErrExceedsMaxDuration) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidLeaveType) ||
		errors.Is(err, ErrInvalidEmployee) ||
		errors.Is(err, ErrDuplicateEmail)
}

// IsNotFound reports whether err indicates a missing employee or request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRequestNotFound)
}

/*
Package leave contains the core leave-management domain.

PURPOSE:
  This package holds the business logic for employee leave: request
  validation, the append-only balance ledger, the request lifecycle
  (pending -> approved/rejected), and read-only reporting. HTTP transport
  and storage engines live outside; they talk to this package through
  the interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: identity plus joining date, never hard-deleted
  - LeaveRequest: one employee's request for a date range, with status
  - LedgerEntry: an immutable balance snapshot per (employee, type, year)
  - LeaveType / RequestStatus: closed enumerations

DESIGN PRINCIPLES:
  1. Immutability: ledger entries are appended, never edited
  2. Precision: balances use decimal.Decimal, not floats
  3. Type safety: distinct ID types prevent mixing employees and requests
  4. Terminal states: approved/rejected requests never transition again

SEE ALSO:
  - validator.go: request validation rules
  - ledger.go: balance computation from entries
  - service.go: lifecycle orchestration
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string
type EntryID string

// =============================================================================
// LEAVE TYPE - Balances are tracked independently per type and year
// =============================================================================

type LeaveType string

const (
	LeaveAnnual    LeaveType = "annual"
	LeaveSick      LeaveType = "sick"
	LeaveEmergency LeaveType = "emergency"
	LeaveMaternity LeaveType = "maternity"
	LeavePaternity LeaveType = "paternity"
)

// AllLeaveTypes lists every supported type, in allocation-seeding order.
var AllLeaveTypes = []LeaveType{
	LeaveAnnual, LeaveSick, LeaveEmergency, LeaveMaternity, LeavePaternity,
}

// Valid reports whether t is one of the supported leave types.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveSick, LeaveEmergency, LeaveMaternity, LeavePaternity:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the owning side of requests and ledger entries.
// Identity fields are immutable after creation except via admin edits;
// employees are soft-deactivated, never deleted.
type Employee struct {
	ID          EmployeeID
	Name        string
	Email       string // unique, stored lowercase
	Department  string
	JoiningDate Date
	Active      bool
	CreatedAt   time.Time
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// LeaveRequest is a request to take leave over [StartDate, EndDate].
//
// Invariants:
//   - StartDate <= EndDate
//   - StartDate >= the requester's joining date
//   - transitions are one-directional: pending -> approved|rejected
type LeaveRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	Type       LeaveType
	StartDate  Date
	EndDate    Date

	// WorkingDays is the inclusive weekday count of the range, computed at
	// submission and deducted from the balance at approval.
	WorkingDays decimal.Decimal

	Reason string
	Status RequestStatus

	// Approval audit fields, set when the request leaves pending.
	ApproverID      *EmployeeID
	DecidedAt       *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the request's range intersects [start, end].
func (r *LeaveRequest) Overlaps(start, end Date) bool {
	return r.StartDate.BeforeOrEqual(end) && start.BeforeOrEqual(r.EndDate)
}

// =============================================================================
// LEDGER ENTRY - Immutable balance snapshot
// =============================================================================

// LedgerEntry records the balance for (employee, leave type, year) at a point
// in time. The current balance for a key is the most recently created entry;
// entries are append-only so the full history stays auditable.
type LedgerEntry struct {
	ID         EntryID
	EmployeeID EmployeeID
	Type       LeaveType
	Year       int

	// Balance is the value after this change was applied.
	Balance decimal.Decimal
	// Change is the signed delta that produced Balance (negative = deduction).
	Change decimal.Decimal

	Reason    string
	RequestID RequestID // non-empty when the entry came from an approval
	CreatedAt time.Time
	Sequence  int64 // monotonic per store, breaks CreatedAt ties
}

// BalanceKey identifies the shared resource approvals must serialize on.
type BalanceKey struct {
	EmployeeID EmployeeID
	Type       LeaveType
	Year       int
}

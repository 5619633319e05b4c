/*
validator.go - Pure leave request validation

PURPOSE:
  Checks a candidate request against the employee, their existing requests,
  and the current balance. No side effects: every input is a parameter, so
  the same inputs always validate the same way.

CHECK ORDER (short-circuits on first failure):
  1. Date sanity: start <= end
  2. Joining date: start >= employee.JoiningDate
  3. Horizon: start <= today + Rules.HorizonDays
  4. Duration: working days >= 1 and <= Rules.MaxConsecutiveDays
  5. Overlap: no non-rejected request of the same employee intersects
  6. Balance: working days <= currentBalance

Each failure maps to a distinct error kind in errors.go, carrying the
offending fields where that helps the caller.
*/
package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validator applies the submission rules. It is a pure function of its
// arguments plus the injected Rules.
type Validator struct {
	Rules Rules
}

// Validate checks req against the employee snapshot, their existing requests,
// and currentBalance for (req.Type, year of req.StartDate). today anchors the
// horizon check so tests can pin it.
func (v Validator) Validate(
	req *LeaveRequest,
	emp *Employee,
	existing []LeaveRequest,
	currentBalance decimal.Decimal,
	today Date,
) error {
	// 1. Date sanity
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: missing start or end date", ErrInvalidDateRange)
	}
	if req.StartDate.After(req.EndDate) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange, req.StartDate, req.EndDate)
	}

	// 2. Joining date
	if req.StartDate.Before(emp.JoiningDate) {
		return fmt.Errorf("%w: start %s precedes joining date %s",
			ErrPriorToJoining, req.StartDate, emp.JoiningDate)
	}

	// 3. Horizon
	horizon := today.AddDays(v.Rules.HorizonDays)
	if req.StartDate.After(horizon) {
		return fmt.Errorf("%w: start %s is after %s", ErrBeyondHorizon, req.StartDate, horizon)
	}

	// 4. Duration
	days := WorkingDays(req.StartDate, req.EndDate)
	if days.IsZero() {
		return fmt.Errorf("%w: %s..%s", ErrNoWorkingDays, req.StartDate, req.EndDate)
	}
	if days.GreaterThan(v.Rules.MaxConsecutiveDays) {
		return fmt.Errorf("%w: %s working days, maximum %s",
			ErrExceedsMaxDuration, days, v.Rules.MaxConsecutiveDays)
	}

	// 5. Overlap with existing non-rejected requests
	for i := range existing {
		other := &existing[i]
		if other.ID == req.ID || other.Status == StatusRejected {
			continue
		}
		if other.Overlaps(req.StartDate, req.EndDate) {
			return &OverlapError{
				EmployeeID: req.EmployeeID,
				Start:      req.StartDate,
				End:        req.EndDate,
				ConflictID: other.ID,
			}
		}
	}

	// 6. Balance
	if days.GreaterThan(currentBalance) {
		return &InsufficientBalanceError{
			EmployeeID: req.EmployeeID,
			Type:       req.Type,
			Year:       req.StartDate.Year(),
			Available:  currentBalance,
			Requested:  days,
		}
	}

	return nil
}

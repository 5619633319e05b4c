package leave

import "github.com/shopspring/decimal"

// =============================================================================
// RULES - Injectable validation constants
// =============================================================================

// Rules holds the policy constants the validator and ledger depend on.
// They are configuration, not literals baked into business code, so the
// validator stays a pure function of (request, employee, context, rules).
type Rules struct {
	// MaxConsecutiveDays caps the working-day count of a single request.
	MaxConsecutiveDays decimal.Decimal

	// HorizonDays is how far in the future a request may start.
	HorizonDays int

	// Allocations is the default yearly grant per leave type, used when no
	// ledger entry exists for a (employee, type, year) key.
	Allocations map[LeaveType]decimal.Decimal
}

// DefaultRules returns the stock policy: 30 consecutive working days max,
// a one-year horizon, and the standard per-type yearly allocations.
func DefaultRules() Rules {
	return Rules{
		MaxConsecutiveDays: decimal.NewFromInt(30),
		HorizonDays:        365,
		Allocations: map[LeaveType]decimal.Decimal{
			LeaveAnnual:    decimal.NewFromInt(21),
			LeaveSick:      decimal.NewFromInt(10),
			LeaveEmergency: decimal.NewFromInt(5),
			LeaveMaternity: decimal.NewFromInt(90),
			LeavePaternity: decimal.NewFromInt(15),
		},
	}
}

// AllocationFor returns the default yearly allocation for a leave type.
// Unknown types get zero, which makes any deduction fail balance checks.
func (r Rules) AllocationFor(t LeaveType) decimal.Decimal {
	if a, ok := r.Allocations[t]; ok {
		return a
	}
	return decimal.Zero
}

package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/symplora/leave-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func decimalInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// testToday is a fixed Monday all validator tests anchor to.
func testToday() leave.Date {
	return leave.NewDate(2025, time.June, 2)
}

func testEmployee() *leave.Employee {
	return &leave.Employee{
		ID:          "emp-1",
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Department:  "Engineering",
		JoiningDate: leave.NewDate(2024, time.January, 15),
		Active:      true,
	}
}

func candidate(start, end leave.Date) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:          "req-new",
		EmployeeID:  "emp-1",
		Type:        leave.LeaveAnnual,
		StartDate:   start,
		EndDate:     end,
		WorkingDays: leave.WorkingDays(start, end),
		Status:      leave.StatusPending,
	}
}

func newValidator() leave.Validator {
	return leave.Validator{Rules: leave.DefaultRules()}
}

// =============================================================================
// CHECK 1: DATE SANITY
// =============================================================================

func TestValidate_StartAfterEnd_Rejected(t *testing.T) {
	// GIVEN: A request whose start is after its end
	// WHEN: Validating
	// THEN: Date range error, before any other check

	v := newValidator()
	req := candidate(leave.NewDate(2025, time.June, 10), leave.NewDate(2025, time.June, 6))

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestValidate_MissingDates_Rejected(t *testing.T) {
	v := newValidator()
	req := candidate(leave.Date{}, leave.Date{})

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

// =============================================================================
// CHECK 2: JOINING DATE
// =============================================================================

func TestValidate_StartBeforeJoining_Rejected(t *testing.T) {
	// GIVEN: Employee joined 2024-01-15
	// WHEN: Requesting leave starting 2024-01-10
	// THEN: Rejected with ErrPriorToJoining

	v := newValidator()
	req := candidate(leave.NewDate(2024, time.January, 10), leave.NewDate(2024, time.January, 17))

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrPriorToJoining)
}

func TestValidate_StartOnJoiningDay_Allowed(t *testing.T) {
	// GIVEN: Leave starting exactly on the joining date (a Monday)
	// THEN: The joining check passes; past dates are not themselves rejected

	v := newValidator()
	start := leave.NewDate(2024, time.January, 15)
	req := candidate(start, start.AddDays(2))

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.NoError(t, err)
}

// =============================================================================
// CHECK 3: HORIZON
// =============================================================================

func TestValidate_BeyondHorizon_Rejected(t *testing.T) {
	// GIVEN: Horizon of 365 days from today (2025-06-02)
	// WHEN: Requesting leave starting 366 days out
	// THEN: Rejected with ErrBeyondHorizon

	v := newValidator()
	start := testToday().AddDays(366)
	req := candidate(start, start.AddDays(4))

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrBeyondHorizon)
}

func TestValidate_ExactlyAtHorizon_Allowed(t *testing.T) {
	v := newValidator()
	start := testToday().AddDays(365)
	// 365 days from a Monday lands on a Tuesday; a single weekday is enough.
	req := candidate(start, start)

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.NoError(t, err)
}

// =============================================================================
// CHECK 4: DURATION
// =============================================================================

func TestValidate_WeekendOnly_Rejected(t *testing.T) {
	// GIVEN: A Saturday-Sunday range with zero working days
	// THEN: Rejected with ErrNoWorkingDays, not silently approved for 0 days

	v := newValidator()
	req := candidate(leave.NewDate(2025, time.June, 7), leave.NewDate(2025, time.June, 8))

	err := v.Validate(req, testEmployee(), nil, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrNoWorkingDays)
}

func TestValidate_ExceedsMaxDuration_Rejected(t *testing.T) {
	// GIVEN: Max 30 consecutive working days
	// WHEN: Requesting 7 full calendar weeks (35 working days)
	// THEN: Rejected with ErrExceedsMaxDuration

	v := newValidator()
	start := leave.NewDate(2025, time.June, 2)
	req := candidate(start, start.AddDays(46)) // 7 weeks minus the trailing weekend

	err := v.Validate(req, testEmployee(), nil, decimalInt(100), testToday())
	assert.ErrorIs(t, err, leave.ErrExceedsMaxDuration)
}

// =============================================================================
// CHECK 5: OVERLAP
// =============================================================================

func TestValidate_OverlapWithPending_Rejected(t *testing.T) {
	// GIVEN: A pending request for June 4-6
	// WHEN: Submitting June 6-10 (shares June 6)
	// THEN: Rejected, and the error names the conflicting request

	v := newValidator()
	existing := []leave.LeaveRequest{{
		ID:         "req-old",
		EmployeeID: "emp-1",
		Type:       leave.LeaveAnnual,
		StartDate:  leave.NewDate(2025, time.June, 4),
		EndDate:    leave.NewDate(2025, time.June, 6),
		Status:     leave.StatusPending,
	}}
	req := candidate(leave.NewDate(2025, time.June, 6), leave.NewDate(2025, time.June, 10))

	err := v.Validate(req, testEmployee(), existing, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest)

	var overlap *leave.OverlapError
	assert.ErrorAs(t, err, &overlap)
	assert.Equal(t, leave.RequestID("req-old"), overlap.ConflictID)
}

func TestValidate_OverlapWithApproved_Rejected(t *testing.T) {
	v := newValidator()
	existing := []leave.LeaveRequest{{
		ID:        "req-old",
		StartDate: leave.NewDate(2025, time.June, 9),
		EndDate:   leave.NewDate(2025, time.June, 13),
		Status:    leave.StatusApproved,
	}}
	req := candidate(leave.NewDate(2025, time.June, 11), leave.NewDate(2025, time.June, 12))

	err := v.Validate(req, testEmployee(), existing, decimalInt(21), testToday())
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest)
}

func TestValidate_OverlapWithRejected_Ignored(t *testing.T) {
	// GIVEN: A rejected request on the same dates
	// THEN: It does not block resubmission

	v := newValidator()
	existing := []leave.LeaveRequest{{
		ID:        "req-old",
		StartDate: leave.NewDate(2025, time.June, 9),
		EndDate:   leave.NewDate(2025, time.June, 13),
		Status:    leave.StatusRejected,
	}}
	req := candidate(leave.NewDate(2025, time.June, 9), leave.NewDate(2025, time.June, 13))

	err := v.Validate(req, testEmployee(), existing, decimalInt(21), testToday())
	assert.NoError(t, err)
}

func TestValidate_AdjacentRanges_Allowed(t *testing.T) {
	// GIVEN: An existing request ending Friday June 6
	// WHEN: Submitting one starting Monday June 9
	// THEN: No overlap; touching is not intersecting

	v := newValidator()
	existing := []leave.LeaveRequest{{
		ID:        "req-old",
		StartDate: leave.NewDate(2025, time.June, 4),
		EndDate:   leave.NewDate(2025, time.June, 6),
		Status:    leave.StatusApproved,
	}}
	req := candidate(leave.NewDate(2025, time.June, 9), leave.NewDate(2025, time.June, 10))

	err := v.Validate(req, testEmployee(), existing, decimalInt(21), testToday())
	assert.NoError(t, err)
}

// =============================================================================
// CHECK 6: BALANCE
// =============================================================================

func TestValidate_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: 3 days of balance
	// WHEN: Requesting a full working week (5 days)
	// THEN: Rejected, with available and requested amounts in the error

	v := newValidator()
	req := candidate(leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 6))

	err := v.Validate(req, testEmployee(), nil, decimalInt(3), testToday())
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var short *leave.InsufficientBalanceError
	assert.ErrorAs(t, err, &short)
	assert.True(t, short.Available.Equal(decimalInt(3)))
	assert.True(t, short.Requested.Equal(decimalInt(5)))
}

func TestValidate_ExactBalance_Allowed(t *testing.T) {
	v := newValidator()
	req := candidate(leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 6))

	err := v.Validate(req, testEmployee(), nil, decimalInt(5), testToday())
	assert.NoError(t, err)
}

// =============================================================================
// ORDERING
// =============================================================================

func TestValidate_DateErrorBeatsBalanceError(t *testing.T) {
	// GIVEN: A request that is both inverted and unaffordable
	// THEN: The date error wins; checks short-circuit in order

	v := newValidator()
	req := candidate(leave.NewDate(2025, time.June, 10), leave.NewDate(2025, time.June, 2))

	err := v.Validate(req, testEmployee(), nil, decimal.Zero, testToday())
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
	assert.NotErrorIs(t, err, leave.ErrInsufficientBalance)
}

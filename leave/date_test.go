package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symplora/leave-engine/leave"
)

// =============================================================================
// WORKING DAYS
// =============================================================================

func TestWorkingDays_FullWeek_ExcludesWeekend(t *testing.T) {
	// GIVEN: Monday through Sunday (7 calendar days)
	// WHEN: Counting working days
	// THEN: Saturday and Sunday drop out, leaving 5

	monday := leave.NewDate(2025, time.June, 2)
	sunday := leave.NewDate(2025, time.June, 8)

	days := leave.WorkingDays(monday, sunday)
	assert.True(t, days.Equal(decimalInt(5)), "expected 5 working days, got %s", days)
}

func TestWorkingDays_WeekendOnly_IsZero(t *testing.T) {
	// GIVEN: Saturday through Sunday
	// WHEN: Counting working days
	// THEN: Zero

	saturday := leave.NewDate(2025, time.June, 7)
	sunday := leave.NewDate(2025, time.June, 8)

	days := leave.WorkingDays(saturday, sunday)
	assert.True(t, days.IsZero(), "expected 0 working days, got %s", days)
}

func TestWorkingDays_SingleWeekday_IsOne(t *testing.T) {
	wednesday := leave.NewDate(2025, time.June, 4)

	days := leave.WorkingDays(wednesday, wednesday)
	assert.True(t, days.Equal(decimalInt(1)))
}

func TestWorkingDays_StartAfterEnd_IsZero(t *testing.T) {
	start := leave.NewDate(2025, time.June, 10)
	end := leave.NewDate(2025, time.June, 2)

	days := leave.WorkingDays(start, end)
	assert.True(t, days.IsZero())
}

func TestWorkingDays_TwoFullWeeks(t *testing.T) {
	// GIVEN: Monday to the Friday of the following week (12 calendar days)
	// THEN: 10 working days

	start := leave.NewDate(2025, time.June, 2)
	end := leave.NewDate(2025, time.June, 13)

	days := leave.WorkingDays(start, end)
	assert.True(t, days.Equal(decimalInt(10)), "expected 10 working days, got %s", days)
}

// =============================================================================
// DATE BASICS
// =============================================================================

func TestParseDate_RoundTrips(t *testing.T) {
	d, err := leave.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())
	assert.Equal(t, 2025, d.Year())
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	_, err := leave.ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestDate_Comparisons(t *testing.T) {
	a := leave.NewDate(2025, time.January, 1)
	b := leave.NewDate(2025, time.January, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.False(t, a.Equal(b))
}

func TestDate_Weekend(t *testing.T) {
	saturday := leave.NewDate(2025, time.June, 7)
	monday := leave.NewDate(2025, time.June, 9)

	assert.True(t, saturday.IsWeekend())
	assert.False(t, saturday.IsWorkday())
	assert.True(t, monday.IsWorkday())
}

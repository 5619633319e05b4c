package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Day-granularity calendar date (leave is tracked in whole days)
// =============================================================================

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date  { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date { return Date{Time: d.normalize().AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int                { return d.Time.Year() }
func (d Date) Weekday() time.Weekday    { return d.normalize().Weekday() }
func (d Date) IsZero() bool             { return d.Time.IsZero() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// WORKING DAYS
// =============================================================================

// WorkingDays counts the weekdays in [start, end] inclusive.
// Saturdays and Sundays are excluded; holiday calendars are out of scope.
// Returns zero when start is after end.
func WorkingDays(start, end Date) decimal.Decimal {
	if start.After(end) {
		return decimal.Zero
	}
	days := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if d.IsWorkday() {
			days++
		}
	}
	return decimal.NewFromInt(int64(days))
}

package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symplora/leave-engine/leave"
	"github.com/symplora/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*leave.Ledger, *memory.Store) {
	store := memory.New()
	return leave.NewLedger(store, leave.DefaultRules()), store
}

func annualKey(emp string, year int) leave.BalanceKey {
	return leave.BalanceKey{
		EmployeeID: leave.EmployeeID(emp),
		Type:       leave.LeaveAnnual,
		Year:       year,
	}
}

// =============================================================================
// DEFAULT ALLOCATION FALLBACK
// =============================================================================

func TestLedger_NoEntries_FallsBackToAllocation(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Reading the annual balance for 2025
	// THEN: The configured default allocation (21) applies

	ledger, _ := newTestLedger()
	ctx := context.Background()

	balance, err := ledger.CurrentBalance(ctx, annualKey("emp-1", 2025))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimalInt(21)), "expected 21, got %s", balance)
}

func TestLedger_UnknownType_FallsBackToZero(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	balance, err := ledger.CurrentBalance(ctx, leave.BalanceKey{
		EmployeeID: "emp-1",
		Type:       leave.LeaveType("sabbatical"),
		Year:       2025,
	})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

// =============================================================================
// LATEST-ENTRY SEMANTICS
// =============================================================================

func TestLedger_CurrentBalance_IsLatestEntry(t *testing.T) {
	// GIVEN: Three entries appended for the same key
	// WHEN: Reading the current balance
	// THEN: Only the last entry's balance counts; no folding over deltas

	ledger, _ := newTestLedger()
	ctx := context.Background()
	key := annualKey("emp-1", 2025)

	_, err := ledger.Record(ctx, key, decimalInt(21), decimalInt(21), "yearly allocation", "")
	require.NoError(t, err)
	_, err = ledger.Record(ctx, key, decimalInt(16), decimalInt(-5), "leave approved", "req-1")
	require.NoError(t, err)
	_, err = ledger.Record(ctx, key, decimalInt(14), decimalInt(-2), "leave approved", "req-2")
	require.NoError(t, err)

	balance, err := ledger.CurrentBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimalInt(14)), "expected 14, got %s", balance)
}

func TestLedger_KeysAreIndependent(t *testing.T) {
	// GIVEN: A deduction against annual 2025
	// THEN: Sick 2025 and annual 2026 are untouched

	ledger, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Record(ctx, annualKey("emp-1", 2025), decimalInt(10), decimalInt(-11), "leave approved", "req-1")
	require.NoError(t, err)

	sick, err := ledger.CurrentBalance(ctx, leave.BalanceKey{EmployeeID: "emp-1", Type: leave.LeaveSick, Year: 2025})
	require.NoError(t, err)
	assert.True(t, sick.Equal(decimalInt(10)), "sick balance untouched")

	nextYear, err := ledger.CurrentBalance(ctx, annualKey("emp-1", 2026))
	require.NoError(t, err)
	assert.True(t, nextYear.Equal(decimalInt(21)), "next year untouched")
}

// =============================================================================
// HISTORY
// =============================================================================

func TestLedger_History_OldestFirstWithAudit(t *testing.T) {
	// GIVEN: An allocation then a deduction
	// WHEN: Reading the employee's history
	// THEN: Entries come back in append order carrying change and reason

	ledger, _ := newTestLedger()
	ctx := context.Background()
	key := annualKey("emp-1", 2025)

	_, err := ledger.Record(ctx, key, decimalInt(21), decimalInt(21), "yearly allocation", "")
	require.NoError(t, err)
	_, err = ledger.Record(ctx, key, decimalInt(18), decimalInt(-3), "leave approved", "req-1")
	require.NoError(t, err)

	entries, err := ledger.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "yearly allocation", entries[0].Reason)
	assert.True(t, entries[0].Change.Equal(decimalInt(21)))
	assert.Empty(t, entries[0].RequestID)

	assert.Equal(t, "leave approved", entries[1].Reason)
	assert.True(t, entries[1].Change.Equal(decimalInt(-3)))
	assert.Equal(t, leave.RequestID("req-1"), entries[1].RequestID)
	assert.True(t, entries[1].Sequence > entries[0].Sequence, "sequence must be monotonic")
}

func TestLedger_EntriesCarryTimestamps(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	_, err := ledger.Record(ctx, annualKey("emp-1", 2025), decimalInt(21), decimalInt(21), "yearly allocation", "")
	require.NoError(t, err)

	entries, err := ledger.History(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].CreatedAt.After(before))
}

package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symplora/leave-engine/leave"
	"github.com/symplora/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveEmployee(t *testing.T, store *sqlite.Store, id, email string) leave.Employee {
	t.Helper()
	emp := leave.Employee{
		ID:          leave.EmployeeID(id),
		Name:        "Ada Lovelace",
		Email:       email,
		Department:  "Engineering",
		JoiningDate: leave.NewDate(2024, time.January, 15),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.SaveEmployee(context.Background(), emp))
	return emp
}

func pendingRequest(id, emp string, start, end leave.Date) leave.LeaveRequest {
	now := time.Now().UTC()
	return leave.LeaveRequest{
		ID:          leave.RequestID(id),
		EmployeeID:  leave.EmployeeID(emp),
		Type:        leave.LeaveAnnual,
		StartDate:   start,
		EndDate:     end,
		WorkingDays: leave.WorkingDays(start, end),
		Reason:      "vacation",
		Status:      leave.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestSQLite_Employee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := saveEmployee(t, store, "emp-1", "ada@example.com")

	got, err := store.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.Email, got.Email)
	assert.Equal(t, "2024-01-15", got.JoiningDate.String())
	assert.True(t, got.Active)

	byEmail, err := store.GetEmployeeByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, emp.ID, byEmail.ID)
}

func TestSQLite_Employee_Missing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetEmployee(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Employee_DuplicateEmail_Rejected(t *testing.T) {
	// GIVEN: ada@example.com exists
	// WHEN: Inserting a different employee with the same email
	// THEN: The unique index maps to ErrDuplicateEmail

	store := newTestStore(t)
	saveEmployee(t, store, "emp-1", "ada@example.com")

	err := store.SaveEmployee(context.Background(), leave.Employee{
		ID:          "emp-2",
		Name:        "Ada Imposter",
		Email:       "ada@example.com",
		Department:  "Engineering",
		JoiningDate: leave.NewDate(2024, time.January, 15),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, leave.ErrDuplicateEmail)
}

func TestSQLite_Employee_UpsertById_Updates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := saveEmployee(t, store, "emp-1", "ada@example.com")
	emp.Department = "Research"
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Research", got.Department)
}

func TestSQLite_DeactivateEmployee_HidesFromList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saveEmployee(t, store, "emp-1", "ada@example.com")
	saveEmployee(t, store, "emp-2", "grace@example.com")

	require.NoError(t, store.DeactivateEmployee(ctx, "emp-1"))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, leave.EmployeeID("emp-2"), employees[0].ID)

	// Row survives; only the flag flips.
	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)
}

func TestSQLite_DeactivateEmployee_Unknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeactivateEmployee(context.Background(), "ghost")
	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestSQLite_Request_RoundTripWithDecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")

	req := pendingRequest("req-1", "emp-1",
		leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 6))
	require.NoError(t, store.SaveRequest(ctx, req))

	// Decide it and upsert.
	approver := leave.EmployeeID("emp-9")
	decidedAt := time.Now().UTC().Truncate(time.Second)
	req.Status = leave.StatusApproved
	req.ApproverID = &approver
	req.DecidedAt = &decidedAt
	req.UpdatedAt = decidedAt
	require.NoError(t, store.SaveRequest(ctx, req))

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, leave.StatusApproved, got.Status)
	require.NotNil(t, got.ApproverID)
	assert.Equal(t, approver, *got.ApproverID)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(decidedAt))
	assert.True(t, got.WorkingDays.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "2025-06-02", got.StartDate.String())
}

func TestSQLite_ListRequests_FiltersAndPaginates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")
	saveEmployee(t, store, "emp-2", "grace@example.com")

	base := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	reqs := []leave.LeaveRequest{
		pendingRequest("req-1", "emp-1", leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 3)),
		pendingRequest("req-2", "emp-1", leave.NewDate(2025, time.June, 9), leave.NewDate(2025, time.June, 10)),
		pendingRequest("req-3", "emp-2", leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 3)),
	}
	for i := range reqs {
		reqs[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		reqs[i].UpdatedAt = reqs[i].CreatedAt
		require.NoError(t, store.SaveRequest(ctx, reqs[i]))
	}
	reqs[2].Status = leave.StatusApproved
	require.NoError(t, store.SaveRequest(ctx, reqs[2]))

	// Filter by employee.
	emp1 := leave.EmployeeID("emp-1")
	got, err := store.ListRequests(ctx, leave.RequestFilter{EmployeeID: &emp1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, leave.RequestID("req-2"), got[0].ID, "newest first")

	// Filter by status.
	approved := leave.StatusApproved
	got, err = store.ListRequests(ctx, leave.RequestFilter{Status: &approved})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, leave.RequestID("req-3"), got[0].ID)

	// Date range: anything touching June 9-10.
	from := leave.NewDate(2025, time.June, 9)
	to := leave.NewDate(2025, time.June, 10)
	got, err = store.ListRequests(ctx, leave.RequestFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, leave.RequestID("req-2"), got[0].ID)

	// Pagination.
	total, err := store.CountRequests(ctx, leave.RequestFilter{EmployeeID: &emp1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	page, err := store.ListRequests(ctx, leave.RequestFilter{EmployeeID: &emp1, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, leave.RequestID("req-1"), page[0].ID)
}

// =============================================================================
// LEDGER
// =============================================================================

func entry(id, emp string, year int, balance, change int64) leave.LedgerEntry {
	return leave.LedgerEntry{
		ID:         leave.EntryID(id),
		EmployeeID: leave.EmployeeID(emp),
		Type:       leave.LeaveAnnual,
		Year:       year,
		Balance:    decimal.NewFromInt(balance),
		Change:     decimal.NewFromInt(change),
		Reason:     "yearly allocation",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSQLite_Ledger_LatestIsInsertionOrdered(t *testing.T) {
	// GIVEN: Two entries appended with identical timestamps
	// WHEN: Reading the latest entry
	// THEN: The AUTOINCREMENT sequence, not the timestamp, decides

	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")

	require.NoError(t, store.AppendEntry(ctx, entry("e-1", "emp-1", 2025, 21, 21)))
	require.NoError(t, store.AppendEntry(ctx, entry("e-2", "emp-1", 2025, 16, -5)))

	key := leave.BalanceKey{EmployeeID: "emp-1", Type: leave.LeaveAnnual, Year: 2025}
	latest, err := store.LatestEntry(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, leave.EntryID("e-2"), latest.ID)
	assert.True(t, latest.Balance.Equal(decimal.NewFromInt(16)))
	assert.True(t, latest.Sequence > 0)
}

func TestSQLite_Ledger_MissingKey_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	latest, err := store.LatestEntry(context.Background(), leave.BalanceKey{
		EmployeeID: "emp-1", Type: leave.LeaveAnnual, Year: 2025,
	})
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLite_Ledger_EntriesFor_OldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")

	require.NoError(t, store.AppendEntry(ctx, entry("e-1", "emp-1", 2025, 21, 21)))
	e2 := entry("e-2", "emp-1", 2025, 16, -5)
	e2.RequestID = "req-1"
	require.NoError(t, store.AppendEntry(ctx, e2))

	entries, err := store.EntriesFor(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, leave.EntryID("e-1"), entries[0].ID)
	assert.Equal(t, leave.RequestID("req-1"), entries[1].RequestID)
	assert.Empty(t, entries[0].RequestID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that appends an entry and updates a request
	// WHEN: The callback fails afterwards
	// THEN: Neither effect is visible

	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")

	req := pendingRequest("req-1", "emp-1",
		leave.NewDate(2025, time.June, 2), leave.NewDate(2025, time.June, 6))
	require.NoError(t, store.SaveRequest(ctx, req))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx leave.Store) error {
		if err := tx.AppendEntry(ctx, entry("e-1", "emp-1", 2025, 16, -5)); err != nil {
			return err
		}
		req.Status = leave.StatusApproved
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := store.EntriesFor(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, got.Status)
}

func TestSQLite_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveEmployee(t, store, "emp-1", "ada@example.com")

	err := store.WithTx(ctx, func(tx leave.Store) error {
		if err := tx.AppendEntry(ctx, entry("e-1", "emp-1", 2025, 21, 21)); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, entry("e-2", "emp-1", 2025, 16, -5))
	})
	require.NoError(t, err)

	key := leave.BalanceKey{EmployeeID: "emp-1", Type: leave.LeaveAnnual, Year: 2025}
	latest, err := store.LatestEntry(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, leave.EntryID("e-2"), latest.ID)
}

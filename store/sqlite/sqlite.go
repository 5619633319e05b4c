/*
Package sqlite provides the SQLite-backed implementation of leave.TxStore.

SCHEMA:
  employees       identity, department, joining date, soft-delete flag
  leave_requests  one row per request, status transitions in place
  ledger_entries  append-only balance history (sequence is AUTOINCREMENT,
                  so "latest entry" is total-ordered per key)

APPEND-ONLY ENFORCEMENT:
  ledger_entries has no UPDATE or DELETE statements anywhere in this
  package. Corrections are new entries.

CONCURRENCY:
  The database is opened in WAL (Write-Ahead Logging) mode. A sync.RWMutex
  serializes writers in-process; WithTx holds the write lock for the whole
  transaction, so a report or a competing approval never observes a
  half-applied effect set. In production with PostgreSQL, database-level
  concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/leave.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go:  Interface definitions
  - store/memory:    In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/symplora/leave-engine/leave"
)

// Store implements leave.TxStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		department TEXT NOT NULL,
		joining_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_email
		ON employees(email);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		working_days TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		approver_id TEXT,
		decided_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	-- Append-only balance history. sequence orders entries per key.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		sequence INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL,
		year INTEGER NOT NULL,
		balance TEXT NOT NULL,
		change TEXT NOT NULL,
		reason TEXT,
		request_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: latest entry per (employee, type, year).
	CREATE INDEX IF NOT EXISTS idx_ledger_key
		ON ledger_entries(employee_id, leave_type, year, sequence DESC);
	CREATE INDEX IF NOT EXISTS idx_ledger_employee
		ON ledger_entries(employee_id, sequence);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx, so every query helper
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, emp)
}

func saveEmployee(ctx context.Context, q querier, emp leave.Employee) error {
	query := `
		INSERT INTO employees (id, name, email, department, joining_date, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			department = excluded.department,
			joining_date = excluded.joining_date,
			is_active = excluded.is_active
	`
	_, err := q.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email, emp.Department,
		emp.JoiningDate.String(),
		emp.Active,
		emp.CreatedAt.UTC().Format(time.RFC3339),
	)
	// UNIQUE index violations come back as "UNIQUE constraint failed: employees.email".
	if err != nil && strings.Contains(err.Error(), "employees.email") {
		return leave.ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, "id = ?", string(id))
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, "email = ?", strings.ToLower(email))
}

func getEmployee(ctx context.Context, q querier, where string, arg any) (*leave.Employee, error) {
	query := `
		SELECT id, name, email, department, joining_date, is_active, created_at
		FROM employees WHERE ` + where

	var (
		emp                    leave.Employee
		joiningDate, createdAt string
	)
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&emp.ID, &emp.Name, &emp.Email, &emp.Department,
		&joiningDate, &emp.Active, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.JoiningDate, _ = leave.ParseDate(joiningDate)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, q querier) ([]leave.Employee, error) {
	query := `
		SELECT id, name, email, department, joining_date, is_active, created_at
		FROM employees
		WHERE is_active = TRUE
		ORDER BY name
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var (
			emp                    leave.Employee
			joiningDate, createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department,
			&joiningDate, &emp.Active, &createdAt); err != nil {
			return nil, err
		}
		emp.JoiningDate, _ = leave.ParseDate(joiningDate)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) DeactivateEmployee(ctx context.Context, id leave.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deactivateEmployee(ctx, s.db, id)
}

func deactivateEmployee(ctx context.Context, q querier, id leave.EmployeeID) error {
	res, err := q.ExecContext(ctx, "UPDATE employees SET is_active = FALSE WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_type, start_date, end_date, working_days,
	reason, status, approver_id, decided_at, rejection_reason, created_at, updated_at`

func (s *Store) SaveRequest(ctx context.Context, req leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, req)
}

func saveRequest(ctx context.Context, q querier, req leave.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			approver_id = excluded.approver_id,
			decided_at = excluded.decided_at,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at
	`

	var approverID, decidedAt sql.NullString
	if req.ApproverID != nil {
		approverID = sql.NullString{String: string(*req.ApproverID), Valid: true}
	}
	if req.DecidedAt != nil {
		decidedAt = sql.NullString{String: req.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		req.ID, req.EmployeeID, req.Type,
		req.StartDate.String(), req.EndDate.String(),
		req.WorkingDays.String(),
		req.Reason, req.Status,
		approverID, decidedAt, req.RejectionReason,
		req.CreatedAt.UTC().Format(time.RFC3339),
		req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id leave.RequestID) (*leave.LeaveRequest, error) {
	query := "SELECT " + requestColumns + " FROM leave_requests WHERE id = ?"
	requests, err := queryRequests(ctx, q, query, string(id))
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, f)
}

func listRequests(ctx context.Context, q querier, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	where, args := filterClause(f)
	query := "SELECT " + requestColumns + " FROM leave_requests" + where +
		" ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}
	return queryRequests(ctx, q, query, args...)
}

func (s *Store) CountRequests(ctx context.Context, f leave.RequestFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countRequests(ctx, s.db, f)
}

func countRequests(ctx context.Context, q querier, f leave.RequestFilter) (int, error) {
	where, args := filterClause(f)
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM leave_requests"+where, args...).Scan(&count)
	return count, err
}

// filterClause builds the WHERE clause for a RequestFilter. Dates are
// YYYY-MM-DD strings, so lexical comparison matches calendar order.
func filterClause(f leave.RequestFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.EmployeeID != nil {
		conds = append(conds, "employee_id = ?")
		args = append(args, string(*f.EmployeeID))
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		conds = append(conds, "end_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, "start_date <= ?")
		args = append(args, f.To.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func queryRequests(ctx context.Context, q querier, query string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (leave.LeaveRequest, error) {
	var (
		req                     leave.LeaveRequest
		startDate, endDate      string
		workingDays             string
		reason, rejectionReason sql.NullString
		approverID, decidedAt   sql.NullString
		createdAt, updatedAt    string
	)

	err := rows.Scan(
		&req.ID, &req.EmployeeID, &req.Type, &startDate, &endDate, &workingDays,
		&reason, &req.Status, &approverID, &decidedAt, &rejectionReason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return req, fmt.Errorf("failed to scan request: %w", err)
	}

	req.StartDate, _ = leave.ParseDate(startDate)
	req.EndDate, _ = leave.ParseDate(endDate)
	req.WorkingDays = mustDecimal(workingDays)
	req.Reason = reason.String
	req.RejectionReason = rejectionReason.String
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	req.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if approverID.Valid {
		id := leave.EmployeeID(approverID.String)
		req.ApproverID = &id
	}
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		req.DecidedAt = &t
	}
	return req, nil
}

// =============================================================================
// LEDGER (append-only: no UPDATE, no DELETE)
// =============================================================================

const ledgerColumns = `sequence, id, employee_id, leave_type, year, balance, change, reason, request_id, created_at`

func (s *Store) AppendEntry(ctx context.Context, entry leave.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, entry)
}

func appendEntry(ctx context.Context, q querier, entry leave.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries
		(id, employee_id, leave_type, year, balance, change, reason, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		entry.ID, entry.EmployeeID, entry.Type, entry.Year,
		entry.Balance.String(), entry.Change.String(),
		entry.Reason, nullString(string(entry.RequestID)),
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *Store) LatestEntry(ctx context.Context, key leave.BalanceKey) (*leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestEntry(ctx, s.db, key)
}

func latestEntry(ctx context.Context, q querier, key leave.BalanceKey) (*leave.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE employee_id = ? AND leave_type = ? AND year = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	rows, err := q.QueryContext(ctx, query, key.EmployeeID, key.Type, key.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) EntriesFor(ctx context.Context, id leave.EmployeeID) ([]leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesFor(ctx, s.db, id)
}

func entriesFor(ctx context.Context, q querier, id leave.EmployeeID) ([]leave.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE employee_id = ?
		ORDER BY sequence ASC
	`
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []leave.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (leave.LedgerEntry, error) {
	var (
		entry             leave.LedgerEntry
		balance, change   string
		reason, requestID sql.NullString
		createdAt         string
	)
	err := rows.Scan(
		&entry.Sequence, &entry.ID, &entry.EmployeeID, &entry.Type, &entry.Year,
		&balance, &change, &reason, &requestID, &createdAt,
	)
	if err != nil {
		return entry, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	entry.Balance = mustDecimal(balance)
	entry.Change = mustDecimal(change)
	entry.Reason = reason.String
	entry.RequestID = leave.RequestID(requestID.String)
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return entry, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The write lock is held
// for the duration, so readers outside the transaction always see either
// the whole effect set or none of it.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every Store call through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	return getEmployee(ctx, ts.tx, "id = ?", string(id))
}

func (ts *txStore) GetEmployeeByEmail(ctx context.Context, email string) (*leave.Employee, error) {
	return getEmployee(ctx, ts.tx, "email = ?", strings.ToLower(email))
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) DeactivateEmployee(ctx context.Context, id leave.EmployeeID) error {
	return deactivateEmployee(ctx, ts.tx, id)
}

func (ts *txStore) SaveRequest(ctx context.Context, req leave.LeaveRequest) error {
	return saveRequest(ctx, ts.tx, req)
}

func (ts *txStore) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return listRequests(ctx, ts.tx, f)
}

func (ts *txStore) CountRequests(ctx context.Context, f leave.RequestFilter) (int, error) {
	return countRequests(ctx, ts.tx, f)
}

func (ts *txStore) AppendEntry(ctx context.Context, entry leave.LedgerEntry) error {
	return appendEntry(ctx, ts.tx, entry)
}

func (ts *txStore) LatestEntry(ctx context.Context, key leave.BalanceKey) (*leave.LedgerEntry, error) {
	return latestEntry(ctx, ts.tx, key)
}

func (ts *txStore) EntriesFor(ctx context.Context, id leave.EmployeeID) ([]leave.LedgerEntry, error) {
	return entriesFor(ctx, ts.tx, id)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

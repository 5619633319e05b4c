/*
store.go - Persistence interfaces for the leave domain

PURPOSE:
  Defines the contract between domain logic and storage. The durable state
  is three related records (employees, leave requests, ledger entries); the
  storage technology behind them is a swappable collaborator.

APPEND-ONLY CONTRACT:
  The ledger side of the interface has AppendEntry and reads only. There is
  no update or delete for ledger entries, ever. Balance corrections are new
  entries, so the audit history is preserved.

ATOMICITY:
  TxStore.WithTx executes a function against a transactional view of the
  store. Either every write inside commits, or none do. Approvals rely on
  this: ledger append + status transition + audit fields are one unit.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (WAL mode)
  - store/memory: in-memory store for tests and dev
*/
package leave

import "context"

// RequestFilter narrows ListRequests / CountRequests.
// Nil fields match everything.
type RequestFilter struct {
	EmployeeID *EmployeeID
	Status     *RequestStatus
	From       *Date // matches requests ending on or after From
	To         *Date // matches requests starting on or before To
	Limit      int   // 0 = no limit
	Offset     int
}

// Store is the durable interface the core requires.
//
// Employee records are soft-deactivated, never deleted. Ledger entries are
// append-only. Requests are inserted once and updated only to transition
// status and record approval audit fields.
type Store interface {
	// Employees
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error) // active only, by name
	DeactivateEmployee(ctx context.Context, id EmployeeID) error

	// Requests
	SaveRequest(ctx context.Context, req LeaveRequest) error
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error)
	CountRequests(ctx context.Context, f RequestFilter) (int, error)

	// Ledger (append-only)
	AppendEntry(ctx context.Context, entry LedgerEntry) error
	LatestEntry(ctx context.Context, key BalanceKey) (*LedgerEntry, error)
	EntriesFor(ctx context.Context, id EmployeeID) ([]LedgerEntry, error)
}

// TxStore adds transactional scope to a Store.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view.
	// If fn returns an error, every write inside is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

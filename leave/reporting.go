/*
reporting.go - Read-only query facade

PURPOSE:
  Aggregations for dashboards and employee views: pending counts, per
  department analytics, per-employee balance summaries, and paginated
  leave history. Nothing here mutates state.

CONSISTENCY:
  Each report runs inside Store.WithTx so every number comes from one
  snapshot; a report can never observe a half-applied approval.
*/
package leave

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Reports is the read-only reporting facade.
type Reports struct {
	Store TxStore
	Rules Rules
}

func NewReports(store TxStore, rules Rules) *Reports {
	return &Reports{Store: store, Rules: rules}
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardStats is the aggregate view the presentation layer renders.
type DashboardStats struct {
	TotalEmployees    int
	PendingCount      int
	ApprovedThisMonth int
	TypeDistribution  []TypeCount
	Departments       []DepartmentStats
}

// TypeCount is the number of requests created this year for one leave type.
type TypeCount struct {
	Type  LeaveType
	Count int
}

// DepartmentStats aggregates leave activity per department.
type DepartmentStats struct {
	Department      string
	TotalEmployees  int
	EmployeesOnLeave int
	TotalRequests   int
	ApprovedRequests int
	ApprovalRate    float64 // percent, 0 when no requests
}

// DashboardStats computes the dashboard aggregates from one snapshot.
func (r *Reports) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	err := r.Store.WithTx(ctx, func(tx Store) error {
		employees, err := tx.ListEmployees(ctx)
		if err != nil {
			return err
		}
		requests, err := tx.ListRequests(ctx, RequestFilter{})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		stats.TotalEmployees = len(employees)

		typeCounts := make(map[LeaveType]int)
		for i := range requests {
			req := &requests[i]
			if req.Status == StatusPending {
				stats.PendingCount++
			}
			if req.Status == StatusApproved &&
				req.CreatedAt.Year() == now.Year() && req.CreatedAt.Month() == now.Month() {
				stats.ApprovedThisMonth++
			}
			if req.CreatedAt.Year() == now.Year() {
				typeCounts[req.Type]++
			}
		}
		for _, lt := range AllLeaveTypes {
			if typeCounts[lt] > 0 {
				stats.TypeDistribution = append(stats.TypeDistribution, TypeCount{Type: lt, Count: typeCounts[lt]})
			}
		}

		stats.Departments = departmentStats(employees, requests)
		return nil
	})
	if err != nil {
		return nil, &PersistenceError{Op: "dashboard stats", Cause: err}
	}
	return &stats, nil
}

func departmentStats(employees []Employee, requests []LeaveRequest) []DepartmentStats {
	byDept := make(map[string]*DepartmentStats)
	deptOf := make(map[EmployeeID]string, len(employees))

	for _, emp := range employees {
		d, ok := byDept[emp.Department]
		if !ok {
			d = &DepartmentStats{Department: emp.Department}
			byDept[emp.Department] = d
		}
		d.TotalEmployees++
		deptOf[emp.ID] = emp.Department
	}

	onLeave := make(map[string]map[EmployeeID]bool)
	for i := range requests {
		req := &requests[i]
		dept, ok := deptOf[req.EmployeeID]
		if !ok {
			continue // requester deactivated since
		}
		d := byDept[dept]
		d.TotalRequests++
		if req.Status == StatusApproved {
			d.ApprovedRequests++
		}
		if onLeave[dept] == nil {
			onLeave[dept] = make(map[EmployeeID]bool)
		}
		onLeave[dept][req.EmployeeID] = true
	}

	result := make([]DepartmentStats, 0, len(byDept))
	for dept, d := range byDept {
		d.EmployeesOnLeave = len(onLeave[dept])
		if d.TotalRequests > 0 {
			d.ApprovalRate = float64(d.ApprovedRequests) / float64(d.TotalRequests) * 100
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Department < result[j].Department })
	return result
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// TypeBalance is the per-type view: what the employee can still take, what
// is already approved this year, and what is awaiting a decision.
type TypeBalance struct {
	Type      LeaveType
	Available decimal.Decimal
	Used      decimal.Decimal
	Pending   decimal.Decimal
}

// BalanceSummary is the per-employee balance view for a year.
type BalanceSummary struct {
	EmployeeID EmployeeID
	Year       int
	Balances   []TypeBalance
}

// BalanceSummary reports, per leave type, the current balance plus the used
// and pending working-day totals for the given year.
func (r *Reports) BalanceSummary(ctx context.Context, id EmployeeID, year int) (*BalanceSummary, error) {
	summary := &BalanceSummary{EmployeeID: id, Year: year}

	err := r.Store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if emp == nil || !emp.Active {
			return ErrEmployeeNotFound
		}

		ledger := NewLedger(tx, r.Rules)
		requests, err := tx.ListRequests(ctx, RequestFilter{EmployeeID: &id})
		if err != nil {
			return err
		}

		for _, lt := range AllLeaveTypes {
			balance, err := ledger.CurrentBalance(ctx, BalanceKey{EmployeeID: id, Type: lt, Year: year})
			if err != nil {
				return err
			}
			tb := TypeBalance{Type: lt, Available: balance, Used: decimal.Zero, Pending: decimal.Zero}
			for i := range requests {
				req := &requests[i]
				if req.Type != lt || req.StartDate.Year() != year {
					continue
				}
				switch req.Status {
				case StatusApproved:
					tb.Used = tb.Used.Add(req.WorkingDays)
				case StatusPending:
					tb.Pending = tb.Pending.Add(req.WorkingDays)
				}
			}
			summary.Balances = append(summary.Balances, tb)
		}
		return nil
	})
	if err != nil {
		return nil, wrapEffectErr("balance summary", err)
	}
	return summary, nil
}

// =============================================================================
// LEAVE HISTORY
// =============================================================================

// HistoryPage is one page of an employee's leave history, newest first.
type HistoryPage struct {
	Requests []LeaveRequest
	Total    int
	Page     int
	Limit    int
}

const maxHistoryLimit = 100

// LeaveHistory returns a page of the employee's requests, optionally
// filtered by status and date range. page is 1-based; limit is capped.
func (r *Reports) LeaveHistory(ctx context.Context, id EmployeeID, status *RequestStatus, from, to *Date, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	result := &HistoryPage{Page: page, Limit: limit}
	err := r.Store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if emp == nil {
			return ErrEmployeeNotFound
		}

		filter := RequestFilter{EmployeeID: &id, Status: status, From: from, To: to}
		total, err := tx.CountRequests(ctx, filter)
		if err != nil {
			return err
		}
		filter.Limit = limit
		filter.Offset = (page - 1) * limit
		requests, err := tx.ListRequests(ctx, filter)
		if err != nil {
			return err
		}

		result.Total = total
		result.Requests = requests
		return nil
	})
	if err != nil {
		return nil, wrapEffectErr("leave history", err)
	}
	return result, nil
}

// LedgerHistory returns the full audit trail of balance entries for an
// employee, oldest first.
func (r *Reports) LedgerHistory(ctx context.Context, id EmployeeID) ([]LedgerEntry, error) {
	entries, err := r.Store.EntriesFor(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "ledger history", Cause: err}
	}
	return entries, nil
}

// Package memory provides an in-memory leave.TxStore for tests and dev.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/symplora/leave-engine/leave"
)

// Store keeps everything in maps guarded by one RWMutex. Ledger entries get
// a monotonic sequence on append so "latest" is well-defined even when two
// entries share a timestamp.
type Store struct {
	mu        sync.RWMutex
	employees map[leave.EmployeeID]leave.Employee
	requests  map[leave.RequestID]leave.LeaveRequest
	entries   map[leave.BalanceKey][]leave.LedgerEntry
	sequence  int64
}

func New() *Store {
	return &Store{
		employees: make(map[leave.EmployeeID]leave.Employee),
		requests:  make(map[leave.RequestID]leave.LeaveRequest),
		entries:   make(map[leave.BalanceKey][]leave.LedgerEntry),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEmployeeLocked(emp)
}

func (s *Store) saveEmployeeLocked(emp leave.Employee) error {
	for _, other := range s.employees {
		if other.ID != emp.ID && strings.EqualFold(other.Email, emp.Email) {
			return leave.ErrDuplicateEmail
		}
	}
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployeeLocked(id), nil
}

func (s *Store) getEmployeeLocked(id leave.EmployeeID) *leave.Employee {
	emp, ok := s.employees[id]
	if !ok {
		return nil
	}
	return &emp
}

func (s *Store) GetEmployeeByEmail(_ context.Context, email string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, emp := range s.employees {
		if strings.EqualFold(emp.Email, email) {
			e := emp
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployeesLocked(), nil
}

func (s *Store) listEmployeesLocked() []leave.Employee {
	result := make([]leave.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		if emp.Active {
			result = append(result, emp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) DeactivateEmployee(_ context.Context, id leave.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, ok := s.employees[id]
	if !ok {
		return leave.ErrEmployeeNotFound
	}
	emp.Active = false
	s.employees[id] = emp
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, req leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *Store) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (s *Store) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequestsLocked(f), nil
}

func (s *Store) listRequestsLocked(f leave.RequestFilter) []leave.LeaveRequest {
	var result []leave.LeaveRequest
	for _, req := range s.requests {
		if matches(&req, f) {
			result = append(result, req)
		}
	}
	// Newest first, ID as tiebreak for determinism.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(result) {
			return nil
		}
		result = result[f.Offset:]
	}
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result
}

func (s *Store) CountRequests(_ context.Context, f leave.RequestFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, req := range s.requests {
		if matches(&req, f) {
			count++
		}
	}
	return count, nil
}

func matches(req *leave.LeaveRequest, f leave.RequestFilter) bool {
	if f.EmployeeID != nil && req.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.From != nil && req.EndDate.Before(*f.From) {
		return false
	}
	if f.To != nil && req.StartDate.After(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) AppendEntry(_ context.Context, entry leave.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendEntryLocked(entry)
	return nil
}

func (s *Store) appendEntryLocked(entry leave.LedgerEntry) {
	s.sequence++
	entry.Sequence = s.sequence
	key := leave.BalanceKey{EmployeeID: entry.EmployeeID, Type: entry.Type, Year: entry.Year}
	s.entries[key] = append(s.entries[key], entry)
}

func (s *Store) LatestEntry(_ context.Context, key leave.BalanceKey) (*leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestEntryLocked(key), nil
}

func (s *Store) latestEntryLocked(key leave.BalanceKey) *leave.LedgerEntry {
	entries := s.entries[key]
	if len(entries) == 0 {
		return nil
	}
	entry := entries[len(entries)-1]
	return &entry
}

func (s *Store) EntriesFor(_ context.Context, id leave.EmployeeID) ([]leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []leave.LedgerEntry
	for key, entries := range s.entries {
		if key.EmployeeID != id {
			continue
		}
		result = append(result, entries...)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

// =============================================================================
// TRANSACTIONS - snapshot and restore on error
// =============================================================================

// WithTx executes fn against a view of the store. On error the pre-call
// state is restored, so partial effect sets are never observable.
func (s *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txView{parent: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	employees map[leave.EmployeeID]leave.Employee
	requests  map[leave.RequestID]leave.LeaveRequest
	entries   map[leave.BalanceKey][]leave.LedgerEntry
	sequence  int64
}

func (s *Store) snapshot() snapshot {
	emps := make(map[leave.EmployeeID]leave.Employee, len(s.employees))
	for k, v := range s.employees {
		emps[k] = v
	}
	reqs := make(map[leave.RequestID]leave.LeaveRequest, len(s.requests))
	for k, v := range s.requests {
		reqs[k] = v
	}
	ents := make(map[leave.BalanceKey][]leave.LedgerEntry, len(s.entries))
	for k, v := range s.entries {
		ents[k] = append([]leave.LedgerEntry{}, v...)
	}
	return snapshot{employees: emps, requests: reqs, entries: ents, sequence: s.sequence}
}

func (s *Store) restore(snap snapshot) {
	s.employees = snap.employees
	s.requests = snap.requests
	s.entries = snap.entries
	s.sequence = snap.sequence
}

// txView bypasses the parent's mutex; WithTx already holds it.
type txView struct {
	parent *Store
}

func (tv *txView) SaveEmployee(_ context.Context, emp leave.Employee) error {
	return tv.parent.saveEmployeeLocked(emp)
}

func (tv *txView) GetEmployee(_ context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	return tv.parent.getEmployeeLocked(id), nil
}

func (tv *txView) GetEmployeeByEmail(_ context.Context, email string) (*leave.Employee, error) {
	for _, emp := range tv.parent.employees {
		if strings.EqualFold(emp.Email, email) {
			e := emp
			return &e, nil
		}
	}
	return nil, nil
}

func (tv *txView) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	return tv.parent.listEmployeesLocked(), nil
}

func (tv *txView) DeactivateEmployee(_ context.Context, id leave.EmployeeID) error {
	emp, ok := tv.parent.employees[id]
	if !ok {
		return leave.ErrEmployeeNotFound
	}
	emp.Active = false
	tv.parent.employees[id] = emp
	return nil
}

func (tv *txView) SaveRequest(_ context.Context, req leave.LeaveRequest) error {
	tv.parent.requests[req.ID] = req
	return nil
}

func (tv *txView) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	req, ok := tv.parent.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (tv *txView) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.LeaveRequest, error) {
	return tv.parent.listRequestsLocked(f), nil
}

func (tv *txView) CountRequests(_ context.Context, f leave.RequestFilter) (int, error) {
	count := 0
	for _, req := range tv.parent.requests {
		if matches(&req, f) {
			count++
		}
	}
	return count, nil
}

func (tv *txView) AppendEntry(_ context.Context, entry leave.LedgerEntry) error {
	tv.parent.appendEntryLocked(entry)
	return nil
}

func (tv *txView) LatestEntry(_ context.Context, key leave.BalanceKey) (*leave.LedgerEntry, error) {
	return tv.parent.latestEntryLocked(key), nil
}

func (tv *txView) EntriesFor(_ context.Context, id leave.EmployeeID) ([]leave.LedgerEntry, error) {
	var result []leave.LedgerEntry
	for key, entries := range tv.parent.entries {
		if key.EmployeeID != id {
			continue
		}
		result = append(result, entries...)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

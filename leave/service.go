/*
service.go - Leave request lifecycle

PURPOSE:
  Orchestrates the request state machine:

      pending --approve--> approved   (deducts balance via the ledger)
      pending --reject--->  rejected  (no ledger effect)

  Approved and rejected are terminal. Submission runs the validator against
  a snapshot of the current balance and existing requests; approval re-checks
  the balance against the live ledger, because it may have changed since
  submission.

ATOMICITY:
  Approve applies three effects as one unit inside Store.WithTx: the ledger
  deduction, the status transition, and the approver audit fields. A failure
  anywhere rolls the whole set back and surfaces ErrPersistence, so a request
  can never be observed approved without its matching ledger entry. Both
  Approve and Reject re-read the request inside the transaction and bail out
  if it is no longer pending, so racing decisions on one request resolve to
  exactly one winner and at most one deduction entry.

SERIALIZATION:
  Concurrent approvals touching the same (employee, leave type, year) balance
  serialize on a per-key mutex held across the read-check-write. Two
  simultaneous approvals therefore cannot both read the same stale balance
  and overdraw it. Operations on different keys proceed in parallel.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service is the request lifecycle manager.
type Service struct {
	Store     TxStore
	Rules     Rules
	Validator Validator

	// Clock returns "today" for horizon checks; injectable for tests.
	Clock func() Date

	locks keyedLocks
}

func NewService(store TxStore, rules Rules) *Service {
	return &Service{
		Store:     store,
		Rules:     rules,
		Validator: Validator{Rules: rules},
		Clock:     Today,
	}
}

// SubmitInput carries the fields of a new leave request.
type SubmitInput struct {
	EmployeeID EmployeeID
	Type       LeaveType
	StartDate  Date
	EndDate    Date
	Reason     string
}

// Submit validates the request against a snapshot of the employee's balance
// and existing requests, then persists it in the pending state.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*LeaveRequest, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLeaveType, in.Type)
	}

	emp, err := s.activeEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.ListRequests(ctx, RequestFilter{EmployeeID: &in.EmployeeID})
	if err != nil {
		return nil, &PersistenceError{Op: "submit: list requests", Cause: err}
	}

	now := time.Now().UTC()
	req := &LeaveRequest{
		ID:          RequestID(uuid.NewString()),
		EmployeeID:  in.EmployeeID,
		Type:        in.Type,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		WorkingDays: WorkingDays(in.StartDate, in.EndDate),
		Reason:      in.Reason,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	key := BalanceKey{EmployeeID: in.EmployeeID, Type: in.Type, Year: in.StartDate.Year()}
	balance, err := NewLedger(s.Store, s.Rules).CurrentBalance(ctx, key)
	if err != nil {
		return nil, &PersistenceError{Op: "submit: current balance", Cause: err}
	}

	if err := s.Validator.Validate(req, emp, existing, balance, s.Clock()); err != nil {
		return nil, err
	}

	if err := s.Store.SaveRequest(ctx, *req); err != nil {
		return nil, &PersistenceError{Op: "submit: save request", Cause: err}
	}
	return req, nil
}

// Approve transitions a pending request to approved and deducts its working
// days from the balance. The balance is re-checked against the current
// ledger: it may have shrunk since submission, and an approval must never
// overdraw it.
func (s *Service) Approve(ctx context.Context, requestID RequestID, approverID EmployeeID) (*LeaveRequest, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeApprover(ctx, req, approverID); err != nil {
		return nil, err
	}

	key := BalanceKey{EmployeeID: req.EmployeeID, Type: req.Type, Year: req.StartDate.Year()}
	unlock := s.locks.lock(key)
	defer unlock()

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx Store) error {
		// A concurrent decision may have landed between the precondition
		// check and here; the transaction trusts only its own read.
		req, err = pendingInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}

		ledger := NewLedger(tx, s.Rules)

		balance, err := ledger.CurrentBalance(ctx, key)
		if err != nil {
			return err
		}
		if req.WorkingDays.GreaterThan(balance) {
			return &InsufficientBalanceError{
				EmployeeID: key.EmployeeID,
				Type:       key.Type,
				Year:       key.Year,
				Available:  balance,
				Requested:  req.WorkingDays,
			}
		}

		newBalance := balance.Sub(req.WorkingDays)
		if _, err := ledger.Record(ctx, key, newBalance, req.WorkingDays.Neg(), "leave approved", req.ID); err != nil {
			return err
		}

		req.Status = StatusApproved
		req.ApproverID = &approverID
		req.DecidedAt = &now
		req.UpdatedAt = now
		return tx.SaveRequest(ctx, *req)
	})
	if err != nil {
		return nil, wrapEffectErr("approve", err)
	}
	return req, nil
}

// Reject transitions a pending request to rejected. No ledger effect.
func (s *Service) Reject(ctx context.Context, requestID RequestID, approverID EmployeeID, reason string) (*LeaveRequest, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeApprover(ctx, req, approverID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx Store) error {
		req, err = pendingInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}

		req.Status = StatusRejected
		req.ApproverID = &approverID
		req.DecidedAt = &now
		req.RejectionReason = reason
		req.UpdatedAt = now
		return tx.SaveRequest(ctx, *req)
	})
	if err != nil {
		return nil, wrapEffectErr("reject", err)
	}
	return req, nil
}

// GetRequest returns a request by ID.
func (s *Service) GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get request", Cause: err}
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// ListRequests returns requests matching the filter, newest first.
func (s *Service) ListRequests(ctx context.Context, f RequestFilter) ([]LeaveRequest, error) {
	reqs, err := s.Store.ListRequests(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list requests", Cause: err}
	}
	return reqs, nil
}

// GrantYearlyAllocation appends the default allocation entry for every
// active employee and leave type that has no ledger entries for year yet.
// Keys that already have entries are skipped, so the grant is idempotent.
// Returns the number of entries created.
func (s *Service) GrantYearlyAllocation(ctx context.Context, year int) (int, error) {
	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "grant: list employees", Cause: err}
	}

	granted := 0
	err = s.Store.WithTx(ctx, func(tx Store) error {
		ledger := NewLedger(tx, s.Rules)
		for _, emp := range employees {
			for _, lt := range AllLeaveTypes {
				key := BalanceKey{EmployeeID: emp.ID, Type: lt, Year: year}
				latest, err := tx.LatestEntry(ctx, key)
				if err != nil {
					return err
				}
				if latest != nil {
					continue
				}
				allocation := s.Rules.AllocationFor(lt)
				if _, err := ledger.Record(ctx, key, allocation, allocation, "yearly allocation", ""); err != nil {
					return err
				}
				granted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, wrapEffectErr("grant allocation", err)
	}
	return granted, nil
}

// =============================================================================
// PRECONDITIONS
// =============================================================================

func (s *Service) pendingRequest(ctx context.Context, id RequestID) (*LeaveRequest, error) {
	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &StateTransitionError{RequestID: req.ID, Status: req.Status}
	}
	return req, nil
}

// pendingInTx re-reads the request inside a decision transaction. The
// pre-transaction pending check can go stale under concurrency, so the
// transitions in Approve and Reject trust only this read: a request that
// is no longer pending here fails with a state transition error and rolls
// the effect set back.
func pendingInTx(ctx context.Context, tx Store, id RequestID) (*LeaveRequest, error) {
	req, err := tx.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return nil, &StateTransitionError{RequestID: req.ID, Status: req.Status}
	}
	return req, nil
}

func (s *Service) authorizeApprover(ctx context.Context, req *LeaveRequest, approverID EmployeeID) error {
	if approverID == req.EmployeeID {
		return fmt.Errorf("%w: requester cannot approve their own leave", ErrUnauthorizedApprover)
	}
	approver, err := s.Store.GetEmployee(ctx, approverID)
	if err != nil {
		return &PersistenceError{Op: "load approver", Cause: err}
	}
	if approver == nil || !approver.Active {
		return fmt.Errorf("%w: approver %s is not an active employee", ErrUnauthorizedApprover, approverID)
	}
	return nil
}

func (s *Service) activeEmployee(ctx context.Context, id EmployeeID) (*Employee, error) {
	emp, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load employee", Cause: err}
	}
	if emp == nil || !emp.Active {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

// wrapEffectErr keeps business-rule rejections typed as-is and wraps
// everything else as a persistence failure, so callers can tell "the rules
// said no" apart from "the system failed to apply a valid change".
func wrapEffectErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || errors.Is(err, ErrInvalidStateTransition) {
		return err
	}
	return &PersistenceError{Op: op, Cause: err}
}

// =============================================================================
// KEYED LOCKS - single writer per balance key
// =============================================================================

type keyedLocks struct {
	mu    sync.Mutex
	locks map[BalanceKey]*sync.Mutex
}

// lock acquires the mutex for key, creating it on first use.
// Mutexes are never removed; the key space is bounded by
// employees x leave types x years actually approved against.
func (k *keyedLocks) lock(key BalanceKey) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[BalanceKey]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

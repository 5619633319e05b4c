/*
ledger.go - Append-only balance ledger

PURPOSE:
  The ledger is the source of truth for leave balances. Every allocation
  and deduction becomes an immutable entry; the current balance for a
  (employee, leave type, year) key is simply the latest entry's balance.
  When no entry exists for a year, the configured yearly allocation applies.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted
  2. AUDITABLE: every balance change carries its delta and reason
  3. WELL-ORDERED: the store assigns a monotonic sequence per append, so
     "latest" is unambiguous even when entries share a timestamp

CORRECTIONS:
  A mistaken deduction is fixed by appending a compensating entry, never
  by editing history.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger computes and records balances on top of a Store. Bind it to a
// transactional view inside TxStore.WithTx to make appends part of a
// larger atomic unit.
type Ledger struct {
	Store Store
	Rules Rules
}

func NewLedger(store Store, rules Rules) *Ledger {
	return &Ledger{Store: store, Rules: rules}
}

// CurrentBalance returns the latest entry's balance for key, or the default
// yearly allocation when the year has no entries yet.
func (l *Ledger) CurrentBalance(ctx context.Context, key BalanceKey) (decimal.Decimal, error) {
	entry, err := l.Store.LatestEntry(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load latest entry: %w", err)
	}
	if entry == nil {
		return l.Rules.AllocationFor(key.Type), nil
	}
	return entry.Balance, nil
}

// Record appends a new immutable entry for key and returns its ID.
// newBalance is the balance after applying change; callers compute it from
// CurrentBalance under whatever serialization discipline they hold.
func (l *Ledger) Record(
	ctx context.Context,
	key BalanceKey,
	newBalance, change decimal.Decimal,
	reason string,
	requestID RequestID,
) (EntryID, error) {
	entry := LedgerEntry{
		ID:         EntryID(uuid.NewString()),
		EmployeeID: key.EmployeeID,
		Type:       key.Type,
		Year:       key.Year,
		Balance:    newBalance,
		Change:     change,
		Reason:     reason,
		RequestID:  requestID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.Store.AppendEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("append ledger entry: %w", err)
	}
	return entry.ID, nil
}

// History returns all entries for an employee, oldest first.
func (l *Ledger) History(ctx context.Context, id EmployeeID) ([]LedgerEntry, error) {
	return l.Store.EntriesFor(ctx, id)
}

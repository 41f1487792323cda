package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the persistence contract for transactions.
//
// CreateWithHistory and UpdateStatusWithHistory pair the entity write with
// its ledger record inside one storage transaction: the two writes must
// never be observable independently.
type Repository interface {
	// CreateWithHistory persists a new transaction together with its first
	// ledger record. Returns ErrDuplicateUniqueCode when the idempotency
	// code is already assigned.
	CreateWithHistory(ctx context.Context, tx *Transaction, record *StateTransitionRecord) error

	// UpdateStatusWithHistory persists a status change and appends its
	// ledger record atomically. The update is guarded by tx.Version;
	// a stale version yields ErrConcurrentModification.
	UpdateStatusWithHistory(ctx context.Context, tx *Transaction, record *StateTransitionRecord) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByUniqueCode(ctx context.Context, code string) (*Transaction, error)

	// ListByStatusAndRange returns transactions in a creation-date range,
	// optionally narrowed to one status.
	ListByStatusAndRange(ctx context.Context, status *Status, from, to time.Time) ([]*Transaction, error)

	// ListByBankAndAmountRange returns a bank's transactions whose amount
	// falls in [min, max].
	ListByBankAndAmountRange(ctx context.Context, bankID uuid.UUID, min, max decimal.Decimal) ([]*Transaction, error)

	// ListByCardAndRange returns transactions for a masked card number in a
	// creation-date range.
	ListByCardAndRange(ctx context.Context, maskedPAN string, from, to time.Time) ([]*Transaction, error)

	// CountByCardSince and SumByCardSince feed fraud-rule window
	// evaluation when the velocity cache is unavailable.
	CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error)
	SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error)

	// CountByBank returns the bank's transaction count in a period, used to
	// select the commission segment at creation time.
	CountByBank(ctx context.Context, bankID uuid.UUID, since time.Time) (int64, error)
}

// HistoryRepository is the read/append contract for the status-change ledger.
// There is no update or delete.
type HistoryRepository interface {
	// Append writes one record. Only the lifecycle manager calls this, and
	// only through the atomic repository methods above; Append exists for
	// the storage layer and tests.
	Append(ctx context.Context, record *StateTransitionRecord) error

	// ListByTransaction returns a transaction's records ordered by
	// timestamp descending (newest first).
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*StateTransitionRecord, error)

	// ListByRange returns records in a date range, optionally narrowed to
	// one resulting status.
	ListByRange(ctx context.Context, from, to time.Time, status *Status) ([]*StateTransitionRecord, error)
}

// Package memory provides in-memory repository implementations. They back
// the standalone mode of the service (no Postgres/Redis reachable) and are
// the fixtures used across the test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// TransactionRepository keeps transactions and their history ledger in
// memory. A single mutex scopes the status-update-plus-ledger-append unit so
// the two writes are never observable independently.
type TransactionRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*transaction.Transaction
	byCode  map[string]uuid.UUID
	history []*transaction.StateTransitionRecord
}

// NewTransactionRepository builds an empty store.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		byID:   make(map[uuid.UUID]*transaction.Transaction),
		byCode: make(map[string]uuid.UUID),
	}
}

func (r *TransactionRepository) CreateWithHistory(ctx context.Context, tx *transaction.Transaction, record *transaction.StateTransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[tx.UniqueCode]; exists {
		return transaction.NewBusinessError("transaction", "create", tx.UniqueCode, transaction.ErrDuplicateUniqueCode)
	}

	stored := *tx
	r.byID[tx.ID] = &stored
	r.byCode[tx.UniqueCode] = tx.ID
	r.history = append(r.history, cloneRecord(record))
	return nil
}

func (r *TransactionRepository) UpdateStatusWithHistory(ctx context.Context, tx *transaction.Transaction, record *transaction.StateTransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[tx.ID]
	if !ok {
		return transaction.ErrNotFound
	}
	if stored.Version != tx.Version {
		return transaction.NewBusinessError("transaction", "transition", tx.ID.String(), transaction.ErrConcurrentModification)
	}

	tx.Version++
	updated := *tx
	r.byID[tx.ID] = &updated
	r.history = append(r.history, cloneRecord(record))
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *TransactionRepository) GetByUniqueCode(ctx context.Context, code string) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *TransactionRepository) ListByStatusAndRange(ctx context.Context, status *transaction.Status, from, to time.Time) ([]*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*transaction.Transaction
	for _, tx := range r.byID {
		if tx.CreatedAt.Before(from) || tx.CreatedAt.After(to) {
			continue
		}
		if status != nil && tx.Status != *status {
			continue
		}
		clone := *tx
		out = append(out, &clone)
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (r *TransactionRepository) ListByBankAndAmountRange(ctx context.Context, bankID uuid.UUID, min, max decimal.Decimal) ([]*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*transaction.Transaction
	for _, tx := range r.byID {
		if tx.BankID != bankID {
			continue
		}
		if tx.Amount.LessThan(min) || tx.Amount.GreaterThan(max) {
			continue
		}
		clone := *tx
		out = append(out, &clone)
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (r *TransactionRepository) ListByCardAndRange(ctx context.Context, maskedPAN string, from, to time.Time) ([]*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*transaction.Transaction
	for _, tx := range r.byID {
		if tx.Card.MaskedPAN != maskedPAN {
			continue
		}
		if tx.CreatedAt.Before(from) || tx.CreatedAt.After(to) {
			continue
		}
		clone := *tx
		out = append(out, &clone)
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (r *TransactionRepository) CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, tx := range r.byID {
		if tx.Card.MaskedPAN == maskedPAN && !tx.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *TransactionRepository) SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, tx := range r.byID {
		if tx.Card.MaskedPAN == maskedPAN && !tx.CreatedAt.Before(since) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (r *TransactionRepository) CountByBank(ctx context.Context, bankID uuid.UUID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, tx := range r.byID {
		if tx.BankID == bankID && !tx.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Append writes a ledger record outside the atomic units. Exposed for the
// storage contract and tests.
func (r *TransactionRepository) Append(ctx context.Context, record *transaction.StateTransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, cloneRecord(record))
	return nil
}

func (r *TransactionRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*transaction.StateTransitionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*transaction.StateTransitionRecord
	for _, rec := range r.history {
		if rec.TransactionID == transactionID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (r *TransactionRepository) ListByRange(ctx context.Context, from, to time.Time, status *transaction.Status) ([]*transaction.StateTransitionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*transaction.StateTransitionRecord
	for _, rec := range r.history {
		if rec.RecordedAt.Before(from) || rec.RecordedAt.After(to) {
			continue
		}
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func cloneRecord(rec *transaction.StateTransitionRecord) *transaction.StateTransitionRecord {
	out := *rec
	return &out
}

func sortByCreatedDesc(txs []*transaction.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
}

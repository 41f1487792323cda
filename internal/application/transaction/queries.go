package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// Queries is the read-only projection surface over transactions and the
// history ledger.
type Queries struct {
	repo     transaction.Repository
	history  transaction.HistoryRepository
	bankRepo bank.Repository
}

// NewQueries builds the query surface.
func NewQueries(repo transaction.Repository, history transaction.HistoryRepository, bankRepo bank.Repository) *Queries {
	return &Queries{repo: repo, history: history, bankRepo: bankRepo}
}

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return q.repo.GetByID(ctx, id)
}

func (q *Queries) GetByUniqueCode(ctx context.Context, code string) (*transaction.Transaction, error) {
	return q.repo.GetByUniqueCode(ctx, code)
}

func (q *Queries) ListByStatusAndRange(ctx context.Context, status *transaction.Status, from, to time.Time) ([]*transaction.Transaction, error) {
	return q.repo.ListByStatusAndRange(ctx, status, from, to)
}

func (q *Queries) ListByBankAndAmountRange(ctx context.Context, bankID uuid.UUID, min, max decimal.Decimal) ([]*transaction.Transaction, error) {
	return q.repo.ListByBankAndAmountRange(ctx, bankID, min, max)
}

func (q *Queries) ListByCardAndRange(ctx context.Context, maskedPAN string, from, to time.Time) ([]*transaction.Transaction, error) {
	return q.repo.ListByCardAndRange(ctx, maskedPAN, from, to)
}

// HistoryByTransaction returns the ledger of one transaction, newest first.
func (q *Queries) HistoryByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*transaction.StateTransitionRecord, error) {
	if _, err := q.repo.GetByID(ctx, transactionID); err != nil {
		return nil, err
	}
	return q.history.ListByTransaction(ctx, transactionID)
}

// HistoryByRange returns ledger records in a date range, optionally
// filtered by resulting status and by the commercial name of the owning
// bank. The bank filter is a join against the bank collaborator applied in
// memory after the range fetch.
func (q *Queries) HistoryByRange(ctx context.Context, from, to time.Time, status *transaction.Status, bankName string) ([]*transaction.StateTransitionRecord, error) {
	records, err := q.history.ListByRange(ctx, from, to, status)
	if err != nil {
		return nil, err
	}
	if bankName == "" {
		return records, nil
	}

	owner, err := q.bankRepo.GetByCommercialName(ctx, bankName)
	if err != nil {
		if errors.Is(err, bank.ErrNotFound) {
			return nil, transaction.NewBusinessError("bank", "query history", bankName, err)
		}
		return nil, fmt.Errorf("resolve bank %q: %w", bankName, err)
	}

	// One transaction lookup per distinct id in the window; the result is
	// cached so a busy transaction costs a single fetch.
	owned := make(map[uuid.UUID]bool)
	filtered := records[:0]
	for _, rec := range records {
		belongs, seen := owned[rec.TransactionID]
		if !seen {
			tx, err := q.repo.GetByID(ctx, rec.TransactionID)
			if err != nil {
				if errors.Is(err, transaction.ErrNotFound) {
					owned[rec.TransactionID] = false
					continue
				}
				return nil, err
			}
			belongs = tx.BankID == owner.ID
			owned[rec.TransactionID] = belongs
		}
		if belongs {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

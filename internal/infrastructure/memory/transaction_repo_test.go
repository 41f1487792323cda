package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

func seedTransaction(t *testing.T, repo *TransactionRepository, code string, amount float64, createdAt time.Time) *transaction.Transaction {
	t.Helper()
	tx := transaction.NewTransaction(uuid.New(), decimal.NewFromFloat(amount), "USD", transaction.ModalitySingle, code)
	tx.Card.MaskedPAN = "411111XXXXXX1111"
	tx.CreatedAt = createdAt
	record := transaction.NewStateTransitionRecord(tx.ID, tx.Status, "created", createdAt)
	require.NoError(t, repo.CreateWithHistory(context.Background(), tx, record))
	return tx
}

func TestCreateWithHistoryRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	now := time.Now()

	seedTransaction(t, repo, "TRX-SAME", 10, now)

	dup := transaction.NewTransaction(uuid.New(), decimal.NewFromInt(20), "USD", transaction.ModalitySingle, "TRX-SAME")
	record := transaction.NewStateTransitionRecord(dup.ID, dup.Status, "created", now)
	err := repo.CreateWithHistory(ctx, dup, record)
	assert.ErrorIs(t, err, transaction.ErrDuplicateUniqueCode)

	// The loser's ledger record must not have been appended.
	records, err := repo.ListByRange(ctx, now.Add(-time.Minute), now.Add(time.Minute), nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpdateStatusWithHistoryRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	now := time.Now()
	tx := seedTransaction(t, repo, "TRX-RACE", 50, now)

	first, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)

	require.NoError(t, first.MarkStatus(transaction.StatusApproved, "winner", now))
	record := transaction.NewStateTransitionRecord(first.ID, first.Status, "winner", now)
	require.NoError(t, repo.UpdateStatusWithHistory(ctx, first, record))

	require.NoError(t, second.MarkStatus(transaction.StatusRejected, "loser", now))
	record = transaction.NewStateTransitionRecord(second.ID, second.Status, "loser", now)
	err = repo.UpdateStatusWithHistory(ctx, second, record)
	assert.ErrorIs(t, err, transaction.ErrConcurrentModification)

	stored, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusApproved, stored.Status)

	records, err := repo.ListByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListByTransactionNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	base := time.Now()
	tx := seedTransaction(t, repo, "TRX-LEDGER", 75, base)

	stored, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NoError(t, stored.MarkStatus(transaction.StatusApproved, "ok", base.Add(time.Minute)))
	record := transaction.NewStateTransitionRecord(stored.ID, stored.Status, "ok", base.Add(time.Minute))
	require.NoError(t, repo.UpdateStatusWithHistory(ctx, stored, record))

	records, err := repo.ListByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, transaction.StatusApproved, records[0].Status)
	assert.Equal(t, transaction.StatusPending, records[1].Status)
}

func TestListByStatusAndRange(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedTransaction(t, repo, "TRX-IN", 10, base)
	seedTransaction(t, repo, "TRX-OUT", 10, base.AddDate(0, 0, -10))

	pending := transaction.StatusPending
	txs, err := repo.ListByStatusAndRange(ctx, &pending, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "TRX-IN", txs[0].UniqueCode)

	approved := transaction.StatusApproved
	txs, err = repo.ListByStatusAndRange(ctx, &approved, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCountAndSumByCardSince(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	base := time.Now()

	seedTransaction(t, repo, "TRX-1", 100, base)
	seedTransaction(t, repo, "TRX-2", 40, base.Add(-time.Hour))
	seedTransaction(t, repo, "TRX-3", 25, base.Add(-48*time.Hour))

	count, err := repo.CountByCardSince(ctx, "411111XXXXXX1111", base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	sum, err := repo.SumByCardSince(ctx, "411111XXXXXX1111", base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(140)), "sum = %s", sum)

	count, err = repo.CountByCardSince(ctx, "555555XXXXXX4444", base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

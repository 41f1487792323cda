package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// TransactionModel is the database model for transactions
type TransactionModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BankID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	CommissionID     *uuid.UUID      `gorm:"type:uuid"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	CardBrand        string          `gorm:"type:varchar(30);not null"`
	MaskedPAN        string          `gorm:"type:varchar(19);index;not null;column:masked_pan"`
	CardExpiry       string          `gorm:"type:varchar(5);not null"`
	CardHolderName   string          `gorm:"type:varchar(100);not null"`
	Country          string          `gorm:"type:varchar(2);not null"`
	Merchant         string          `gorm:"type:varchar(100)"`
	Modality         string          `gorm:"type:varchar(3);not null"`
	Status           string          `gorm:"type:varchar(3);index;not null"`
	Detail           string          `gorm:"type:varchar(500)"`
	UniqueCode       string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	RecurrenceStart  *time.Time
	RecurrenceEnd    *time.Time
	Installments     int       `gorm:"not null;default:0"`
	DeferredInterest bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"index;not null"`
	UpdatedAt        time.Time `gorm:"not null"`
	Version          int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for transactions
func (TransactionModel) TableName() string {
	return "transactions"
}

// HistoryModel is the database model for the status-change ledger
type HistoryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Status        string    `gorm:"type:varchar(3);index;not null"`
	Detail        string    `gorm:"type:varchar(500)"`
	RecordedAt    time.Time `gorm:"index;not null"`
}

// TableName returns the table name for ledger records
func (HistoryModel) TableName() string {
	return "transaction_history"
}

// TransactionRepository implements transaction.Repository and
// transaction.HistoryRepository on one connection pool, so the paired
// entity and ledger writes share a database transaction.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{db: client.DB()}
}

// CreateWithHistory stores a new transaction and its first ledger record
// in one database transaction.
func (r *TransactionRepository) CreateWithHistory(ctx context.Context, tx *transaction.Transaction, record *transaction.StateTransitionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Create(transactionToModel(tx)).Error; err != nil {
			if isUniqueViolation(err) {
				return transaction.NewBusinessError("transaction", "create", tx.UniqueCode, transaction.ErrDuplicateUniqueCode)
			}
			return err
		}
		return db.Create(recordToModel(record)).Error
	})
}

// UpdateStatusWithHistory applies a status change guarded by the version
// column and appends the ledger record, atomically. A zero-row update means
// the caller lost the race.
func (r *TransactionRepository) UpdateStatusWithHistory(ctx context.Context, tx *transaction.Transaction, record *transaction.StateTransitionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		res := db.Model(&TransactionModel{}).
			Where("id = ? AND version = ?", tx.ID, tx.Version).
			Updates(map[string]interface{}{
				"status":     string(tx.Status),
				"detail":     tx.Detail,
				"updated_at": tx.UpdatedAt,
				"version":    tx.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transaction.ErrConcurrentModification
		}
		tx.Version++
		return db.Create(recordToModel(record)).Error
	})
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrNotFound
		}
		return nil, err
	}
	return modelToTransaction(&model), nil
}

// GetByUniqueCode retrieves a transaction by its idempotency code
func (r *TransactionRepository) GetByUniqueCode(ctx context.Context, code string) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "unique_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrNotFound
		}
		return nil, err
	}
	return modelToTransaction(&model), nil
}

// ListByStatusAndRange retrieves transactions in a creation-date range,
// optionally narrowed to one status.
func (r *TransactionRepository) ListByStatusAndRange(ctx context.Context, status *transaction.Status, from, to time.Time) ([]*transaction.Transaction, error) {
	q := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var models []TransactionModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

// ListByBankAndAmountRange retrieves a bank's transactions with amounts in
// [min, max].
func (r *TransactionRepository) ListByBankAndAmountRange(ctx context.Context, bankID uuid.UUID, min, max decimal.Decimal) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("bank_id = ? AND amount >= ? AND amount <= ?", bankID, min, max).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

// ListByCardAndRange retrieves transactions for a masked card number in a
// creation-date range.
func (r *TransactionRepository) ListByCardAndRange(ctx context.Context, maskedPAN string, from, to time.Time) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("masked_pan = ? AND created_at >= ? AND created_at < ?", maskedPAN, from, to).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

// CountByCardSince counts a card's transactions since a point in time
func (r *TransactionRepository) CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Where("masked_pan = ? AND created_at >= ?", maskedPAN, since).
		Count(&count).Error
	return count, err
}

// SumByCardSince totals a card's transaction amounts since a point in time
func (r *TransactionRepository) SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Select("SUM(amount)").
		Where("masked_pan = ? AND created_at >= ?", maskedPAN, since).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// CountByBank counts a bank's transactions since a point in time
func (r *TransactionRepository) CountByBank(ctx context.Context, bankID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Where("bank_id = ? AND created_at >= ?", bankID, since).
		Count(&count).Error
	return count, err
}

// Append writes one ledger record outside the atomic pairs; used by tests
// and backfills.
func (r *TransactionRepository) Append(ctx context.Context, record *transaction.StateTransitionRecord) error {
	return r.db.WithContext(ctx).Create(recordToModel(record)).Error
}

// ListByTransaction retrieves a transaction's ledger, newest first
func (r *TransactionRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*transaction.StateTransitionRecord, error) {
	var models []HistoryModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("recorded_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToRecords(models), nil
}

// ListByRange retrieves ledger records in a date range, optionally narrowed
// to one resulting status.
func (r *TransactionRepository) ListByRange(ctx context.Context, from, to time.Time, status *transaction.Status) ([]*transaction.StateTransitionRecord, error) {
	q := r.db.WithContext(ctx).
		Where("recorded_at >= ? AND recorded_at < ?", from, to)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var models []HistoryModel
	if err := q.Order("recorded_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToRecords(models), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLSTATE 23505, surfaced as text by the pgx driver.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

func transactionToModel(tx *transaction.Transaction) *TransactionModel {
	model := &TransactionModel{
		ID:               tx.ID,
		BankID:           tx.BankID,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		CardBrand:        tx.Card.Brand,
		MaskedPAN:        tx.Card.MaskedPAN,
		CardExpiry:       tx.Card.Expiry,
		CardHolderName:   tx.Card.HolderName,
		Country:          tx.Country,
		Merchant:         tx.Merchant,
		Modality:         string(tx.Modality),
		Status:           string(tx.Status),
		Detail:           tx.Detail,
		UniqueCode:       tx.UniqueCode,
		RecurrenceStart:  tx.RecurrenceStart,
		RecurrenceEnd:    tx.RecurrenceEnd,
		Installments:     tx.Installments,
		DeferredInterest: tx.DeferredInterest,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		Version:          tx.Version,
	}
	if tx.CommissionID != uuid.Nil {
		id := tx.CommissionID
		model.CommissionID = &id
	}
	return model
}

func modelToTransaction(m *TransactionModel) *transaction.Transaction {
	tx := &transaction.Transaction{
		ID:     m.ID,
		BankID: m.BankID,
		Amount: m.Amount,
		Card: transaction.CardDetails{
			Brand:      m.CardBrand,
			MaskedPAN:  m.MaskedPAN,
			Expiry:     m.CardExpiry,
			HolderName: m.CardHolderName,
		},
		Currency:         m.Currency,
		Country:          m.Country,
		Merchant:         m.Merchant,
		Modality:         transaction.Modality(m.Modality),
		Status:           transaction.Status(m.Status),
		Detail:           m.Detail,
		UniqueCode:       m.UniqueCode,
		RecurrenceStart:  m.RecurrenceStart,
		RecurrenceEnd:    m.RecurrenceEnd,
		Installments:     m.Installments,
		DeferredInterest: m.DeferredInterest,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Version:          m.Version,
	}
	if m.CommissionID != nil {
		tx.CommissionID = *m.CommissionID
	}
	return tx
}

func modelsToTransactions(models []TransactionModel) []*transaction.Transaction {
	out := make([]*transaction.Transaction, len(models))
	for i := range models {
		out[i] = modelToTransaction(&models[i])
	}
	return out
}

func recordToModel(rec *transaction.StateTransitionRecord) *HistoryModel {
	return &HistoryModel{
		ID:            rec.ID,
		TransactionID: rec.TransactionID,
		Status:        string(rec.Status),
		Detail:        rec.Detail,
		RecordedAt:    rec.RecordedAt,
	}
}

func modelsToRecords(models []HistoryModel) []*transaction.StateTransitionRecord {
	out := make([]*transaction.StateTransitionRecord, len(models))
	for i := range models {
		m := models[i]
		out[i] = &transaction.StateTransitionRecord{
			ID:            m.ID,
			TransactionID: m.TransactionID,
			Status:        transaction.Status(m.Status),
			Detail:        m.Detail,
			RecordedAt:    m.RecordedAt,
		}
	}
	return out
}

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
)

// BankModel is the database model for partner banks
type BankModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	CommercialName string    `gorm:"type:varchar(100);index;not null"`
	Status         string    `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for banks
func (BankModel) TableName() string {
	return "banks"
}

// BankRepository implements bank.Repository
type BankRepository struct {
	db *gorm.DB
}

// NewBankRepository creates a new bank repository
func NewBankRepository(client *Client) *BankRepository {
	return &BankRepository{db: client.DB()}
}

// GetByID retrieves a bank by ID
func (r *BankRepository) GetByID(ctx context.Context, id uuid.UUID) (*bank.Bank, error) {
	var model BankModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bank.ErrNotFound
		}
		return nil, err
	}
	return modelToBank(&model), nil
}

// GetByCommercialName retrieves a bank by its commercial name
func (r *BankRepository) GetByCommercialName(ctx context.Context, name string) (*bank.Bank, error) {
	var model BankModel
	if err := r.db.WithContext(ctx).First(&model, "commercial_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bank.ErrNotFound
		}
		return nil, err
	}
	return modelToBank(&model), nil
}

func modelToBank(m *BankModel) *bank.Bank {
	return &bank.Bank{
		ID:             m.ID,
		Code:           m.Code,
		CommercialName: m.CommercialName,
		Status:         bank.Status(m.Status),
	}
}

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
)

// CommissionModel is the database model for commission schedules
type CommissionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BankID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	ManagesSegments bool            `gorm:"not null;default:false"`
	BaseAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Active          bool            `gorm:"index;not null;default:true"`
	Segments        []SegmentModel  `gorm:"foreignKey:ScheduleID"`
}

// TableName returns the table name for commission schedules
func (CommissionModel) TableName() string {
	return "commission_schedules"
}

// SegmentModel is the database model for commission segments
type SegmentModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ScheduleID uuid.UUID       `gorm:"type:uuid;index;not null"`
	FromCount  int64           `gorm:"not null"`
	ToCount    int64           `gorm:"not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for commission segments
func (SegmentModel) TableName() string {
	return "commission_segments"
}

// CommissionRepository implements commission.Repository
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(client *Client) *CommissionRepository {
	return &CommissionRepository{db: client.DB()}
}

// GetActiveByBank retrieves a bank's active schedule with segments preloaded
func (r *CommissionRepository) GetActiveByBank(ctx context.Context, bankID uuid.UUID) (*commission.Schedule, error) {
	var model CommissionModel
	err := r.db.WithContext(ctx).
		Preload("Segments").
		First(&model, "bank_id = ? AND active = ?", bankID, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commission.ErrMissingSchedule
		}
		return nil, err
	}
	return modelToSchedule(&model), nil
}

// GetByID retrieves one schedule
func (r *CommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*commission.Schedule, error) {
	var model CommissionModel
	err := r.db.WithContext(ctx).
		Preload("Segments").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commission.ErrMissingSchedule
		}
		return nil, err
	}
	return modelToSchedule(&model), nil
}

// Save validates and upserts a schedule together with its segments
func (r *CommissionRepository) Save(ctx context.Context, schedule *commission.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		model := scheduleToModel(schedule)
		if err := db.Save(&CommissionModel{
			ID:              model.ID,
			BankID:          model.BankID,
			ManagesSegments: model.ManagesSegments,
			BaseAmount:      model.BaseAmount,
			Active:          model.Active,
		}).Error; err != nil {
			return err
		}
		if err := db.Where("schedule_id = ?", model.ID).Delete(&SegmentModel{}).Error; err != nil {
			return err
		}
		if len(model.Segments) == 0 {
			return nil
		}
		return db.Create(&model.Segments).Error
	})
}

func scheduleToModel(s *commission.Schedule) *CommissionModel {
	model := &CommissionModel{
		ID:              s.ID,
		BankID:          s.BankID,
		ManagesSegments: s.ManagesSegments,
		BaseAmount:      s.BaseAmount,
		Active:          s.Active,
	}
	for _, seg := range s.Segments {
		model.Segments = append(model.Segments, SegmentModel{
			ID:         seg.ID,
			ScheduleID: s.ID,
			FromCount:  seg.From,
			ToCount:    seg.To,
			Amount:     seg.Amount,
		})
	}
	return model
}

func modelToSchedule(m *CommissionModel) *commission.Schedule {
	s := &commission.Schedule{
		ID:              m.ID,
		BankID:          m.BankID,
		ManagesSegments: m.ManagesSegments,
		BaseAmount:      m.BaseAmount,
		Active:          m.Active,
	}
	for _, seg := range m.Segments {
		s.Segments = append(s.Segments, commission.Segment{
			ID:         seg.ID,
			ScheduleID: seg.ScheduleID,
			From:       seg.FromCount,
			To:         seg.ToCount,
			Amount:     seg.Amount,
		})
	}
	return s
}

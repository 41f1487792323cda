package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
)

// RuleModel is the database model for fraud rules
type RuleModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name              string          `gorm:"type:varchar(100);not null"`
	Type              string          `gorm:"type:varchar(3);not null"`
	TxLimit           int64           `gorm:"not null;default:0"`
	AmountLimit       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Window            string          `gorm:"type:varchar(3);not null"`
	AllowedCountries  []string        `gorm:"type:jsonb;serializer:json"`
	ExcludedMerchants []string        `gorm:"type:jsonb;serializer:json"`
	ActiveFromHour    int             `gorm:"not null;default:0"`
	ActiveToHour      int             `gorm:"not null;default:0"`
	BaseScore         int             `gorm:"not null"`
	RiskLevel         string          `gorm:"type:varchar(3);not null"`
	Priority          int             `gorm:"index;not null;default:0"`
	Enabled           bool            `gorm:"index;not null;default:true"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for fraud rules
func (RuleModel) TableName() string {
	return "fraud_rules"
}

// AlertModel is the database model for fraud alerts
type AlertModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UniqueCode  string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	RiskLevel   string    `gorm:"type:varchar(3);not null"`
	Score       int       `gorm:"not null"`
	Status      string    `gorm:"type:varchar(3);index;not null"`
	Detail      string    `gorm:"type:varchar(500)"`
	DetectedAt  time.Time `gorm:"not null"`
	ProcessedAt *time.Time
}

// TableName returns the table name for fraud alerts
func (AlertModel) TableName() string {
	return "fraud_alerts"
}

// RuleRepository implements fraud.RuleRepository
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(client *Client) *RuleRepository {
	return &RuleRepository{db: client.DB()}
}

// Create stores a new rule
func (r *RuleRepository) Create(ctx context.Context, rule *fraud.Rule) error {
	return r.db.WithContext(ctx).Create(ruleToModel(rule)).Error
}

// Update replaces an existing rule
func (r *RuleRepository) Update(ctx context.Context, rule *fraud.Rule) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", rule.ID).
		Save(ruleToModel(rule))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fraud.ErrRuleNotFound
	}
	return nil
}

// GetByID retrieves one rule
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Rule, error) {
	var model RuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrRuleNotFound
		}
		return nil, err
	}
	return modelToRule(&model), nil
}

// ListActive retrieves enabled rules in deterministic evaluation order
func (r *RuleRepository) ListActive(ctx context.Context) ([]*fraud.Rule, error) {
	var models []RuleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToRules(models), nil
}

// List retrieves every rule, active or not
func (r *RuleRepository) List(ctx context.Context) ([]*fraud.Rule, error) {
	var models []RuleModel
	if err := r.db.WithContext(ctx).
		Order("priority ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToRules(models), nil
}

// AlertRepository implements fraud.AlertRepository
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(client *Client) *AlertRepository {
	return &AlertRepository{db: client.DB()}
}

// CreateIfAbsent inserts the alert unless its unique code already has one.
// The unique index on unique_code enforces the invariant under concurrency.
func (r *AlertRepository) CreateIfAbsent(ctx context.Context, alert *fraud.Alert) (*fraud.Alert, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unique_code"}},
			DoNothing: true,
		}).
		Create(alertToModel(alert))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetByUniqueCode(ctx, alert.UniqueCode)
		if err != nil {
			return nil, err
		}
		return existing, fraud.ErrDuplicateAlert
	}
	return alert, nil
}

// Update replaces an existing alert
func (r *AlertRepository) Update(ctx context.Context, alert *fraud.Alert) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", alert.ID).
		Save(alertToModel(alert))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fraud.ErrAlertNotFound
	}
	return nil
}

// GetByID retrieves one alert
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Alert, error) {
	var model AlertModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrAlertNotFound
		}
		return nil, err
	}
	return modelToAlert(&model), nil
}

// GetByUniqueCode retrieves the alert attached to an idempotency code
func (r *AlertRepository) GetByUniqueCode(ctx context.Context, code string) (*fraud.Alert, error) {
	var model AlertModel
	if err := r.db.WithContext(ctx).First(&model, "unique_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrAlertNotFound
		}
		return nil, err
	}
	return modelToAlert(&model), nil
}

// ListByStatus retrieves alerts in one processing status, newest first
func (r *AlertRepository) ListByStatus(ctx context.Context, status fraud.AlertStatus) ([]*fraud.Alert, error) {
	var models []AlertModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("detected_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	alerts := make([]*fraud.Alert, len(models))
	for i := range models {
		alerts[i] = modelToAlert(&models[i])
	}
	return alerts, nil
}

func ruleToModel(rule *fraud.Rule) *RuleModel {
	return &RuleModel{
		ID:                rule.ID,
		Name:              rule.Name,
		Type:              string(rule.Type),
		TxLimit:           rule.TxLimit,
		AmountLimit:       rule.AmountLimit,
		Window:            string(rule.Window),
		AllowedCountries:  rule.AllowedCountries,
		ExcludedMerchants: rule.ExcludedMerchants,
		ActiveFromHour:    rule.ActiveFromHour,
		ActiveToHour:      rule.ActiveToHour,
		BaseScore:         rule.BaseScore,
		RiskLevel:         string(rule.RiskLevel),
		Priority:          rule.Priority,
		Enabled:           rule.Enabled,
		CreatedAt:         rule.CreatedAt,
		UpdatedAt:         rule.UpdatedAt,
	}
}

func modelToRule(m *RuleModel) *fraud.Rule {
	return &fraud.Rule{
		ID:                m.ID,
		Name:              m.Name,
		Type:              fraud.RuleType(m.Type),
		TxLimit:           m.TxLimit,
		AmountLimit:       m.AmountLimit,
		Window:            fraud.Window(m.Window),
		AllowedCountries:  m.AllowedCountries,
		ExcludedMerchants: m.ExcludedMerchants,
		ActiveFromHour:    m.ActiveFromHour,
		ActiveToHour:      m.ActiveToHour,
		BaseScore:         m.BaseScore,
		RiskLevel:         fraud.RiskLevel(m.RiskLevel),
		Priority:          m.Priority,
		Enabled:           m.Enabled,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func modelsToRules(models []RuleModel) []*fraud.Rule {
	rules := make([]*fraud.Rule, len(models))
	for i := range models {
		rules[i] = modelToRule(&models[i])
	}
	return rules
}

func alertToModel(alert *fraud.Alert) *AlertModel {
	return &AlertModel{
		ID:          alert.ID,
		UniqueCode:  alert.UniqueCode,
		RiskLevel:   string(alert.RiskLevel),
		Score:       alert.Score,
		Status:      string(alert.Status),
		Detail:      alert.Detail,
		DetectedAt:  alert.DetectedAt,
		ProcessedAt: alert.ProcessedAt,
	}
}

func modelToAlert(m *AlertModel) *fraud.Alert {
	return &fraud.Alert{
		ID:          m.ID,
		UniqueCode:  m.UniqueCode,
		RiskLevel:   fraud.RiskLevel(m.RiskLevel),
		Score:       m.Score,
		Status:      fraud.AlertStatus(m.Status),
		Detail:      m.Detail,
		DetectedAt:  m.DetectedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

// Package fraud contains the monitoring workflow: alert review, rule
// administration, and the bridge between external fraud decisions and the
// transaction lifecycle.
package fraud

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// DecisionClient is the outbound fraud-decision collaborator. It receives a
// transaction's unique code and answers with the status the transaction
// should move to.
type DecisionClient interface {
	Decide(ctx context.Context, req DecisionRequest) (*DecisionResponse, error)
}

// DecisionRequest identifies the transaction under decision.
type DecisionRequest struct {
	UniqueCode string             `json:"unique_code"`
	RiskLevel  fraud.RiskLevel    `json:"risk_level"`
	Status     transaction.Status `json:"status"`
}

// DecisionResponse carries the collaborator's verdict.
type DecisionResponse struct {
	Status    transaction.Status `json:"status"`
	RiskLevel fraud.RiskLevel    `json:"risk_level"`
	Detail    string             `json:"detail,omitempty"`
}

// Lifecycle is the slice of the lifecycle manager the monitor needs: it
// never updates transactions directly, only through decisions.
type Lifecycle interface {
	ApplyDecision(ctx context.Context, uniqueCode string, target transaction.Status, detail string) (*transaction.Transaction, error)
}

// RuleCache is invalidated after rule administration changes.
type RuleCache interface {
	InvalidateCache()
}

// Monitor implements the fraud monitoring workflow.
type Monitor struct {
	alertRepo fraud.AlertRepository
	ruleRepo  fraud.RuleRepository
	lifecycle Lifecycle
	decisions DecisionClient
	cache     RuleCache
	logger    *slog.Logger
}

// NewMonitor wires the monitoring workflow.
func NewMonitor(alertRepo fraud.AlertRepository, ruleRepo fraud.RuleRepository, lifecycle Lifecycle, decisions DecisionClient, cache RuleCache, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		alertRepo: alertRepo,
		ruleRepo:  ruleRepo,
		lifecycle: lifecycle,
		decisions: decisions,
		cache:     cache,
		logger:    logger,
	}
}

// StartReview moves a pending alert into review.
func (m *Monitor) StartReview(ctx context.Context, alertID uuid.UUID) (*fraud.Alert, error) {
	alert, err := m.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.StartReview(); err != nil {
		return nil, err
	}
	if err := m.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Resolve closes an alert and drives the corresponding transaction
// decision through the lifecycle manager: confirmed fraud rejects the
// transaction, a dismissed alert approves it. The alert is resolved first;
// the transition is idempotent by unique code so a redelivered resolution
// does not double-apply.
func (m *Monitor) Resolve(ctx context.Context, alertID uuid.UUID, confirmed bool, detail string) (*fraud.Alert, error) {
	alert, err := m.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(confirmed, detail); err != nil {
		return nil, err
	}
	if err := m.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}

	target := transaction.StatusApproved
	if confirmed {
		target = transaction.StatusRejected
	}
	if _, err := m.lifecycle.ApplyDecision(ctx, alert.UniqueCode, target, detail); err != nil {
		return nil, fmt.Errorf("apply decision for %s: %w", alert.UniqueCode, err)
	}

	m.logger.InfoContext(ctx, "alert resolved",
		slog.String("alert_id", alert.ID.String()),
		slog.String("unique_code", alert.UniqueCode),
		slog.Bool("confirmed", confirmed))
	return alert, nil
}

// RequestDecision consults the external fraud-decision service for a
// pending alert and applies the returned status. Redelivery is a no-op when
// the transition was already applied.
func (m *Monitor) RequestDecision(ctx context.Context, alertID uuid.UUID) (*transaction.Transaction, error) {
	alert, err := m.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	resp, err := m.decisions.Decide(ctx, DecisionRequest{
		UniqueCode: alert.UniqueCode,
		RiskLevel:  alert.RiskLevel,
		Status:     transaction.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("decision for %s: %w", alert.UniqueCode, err)
	}

	tx, err := m.lifecycle.ApplyDecision(ctx, alert.UniqueCode, resp.Status, resp.Detail)
	if err != nil {
		return nil, err
	}

	if err := alert.Resolve(resp.Status == transaction.StatusRejected, resp.Detail); err == nil {
		if err := m.alertRepo.Update(ctx, alert); err != nil {
			m.logger.ErrorContext(ctx, "alert update failed after decision",
				slog.String("alert_id", alert.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return tx, nil
}

// GetAlert returns one alert.
func (m *Monitor) GetAlert(ctx context.Context, alertID uuid.UUID) (*fraud.Alert, error) {
	return m.alertRepo.GetByID(ctx, alertID)
}

// ListAlerts returns alerts in a processing status.
func (m *Monitor) ListAlerts(ctx context.Context, status fraud.AlertStatus) ([]*fraud.Alert, error) {
	return m.alertRepo.ListByStatus(ctx, status)
}

// CreateRule validates and stores a new rule.
func (m *Monitor) CreateRule(ctx context.Context, rule *fraud.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := m.ruleRepo.Create(ctx, rule); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

// UpdateRule validates and stores rule changes.
func (m *Monitor) UpdateRule(ctx context.Context, rule *fraud.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := m.ruleRepo.Update(ctx, rule); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

// DeactivateRule disables a rule; rules are never deleted.
func (m *Monitor) DeactivateRule(ctx context.Context, ruleID uuid.UUID) (*fraud.Rule, error) {
	rule, err := m.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	rule.Deactivate()
	if err := m.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}
	m.invalidate()
	return rule, nil
}

// GetRule returns one rule.
func (m *Monitor) GetRule(ctx context.Context, ruleID uuid.UUID) (*fraud.Rule, error) {
	return m.ruleRepo.GetByID(ctx, ruleID)
}

// ListRules returns every rule, active or not.
func (m *Monitor) ListRules(ctx context.Context) ([]*fraud.Rule, error) {
	return m.ruleRepo.List(ctx)
}

func (m *Monitor) invalidate() {
	if m.cache != nil {
		m.cache.InvalidateCache()
	}
}

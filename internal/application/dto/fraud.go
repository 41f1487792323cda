package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
)

// RuleRequest creates or replaces a monitoring rule.
type RuleRequest struct {
	Name              string          `json:"name" validate:"required,max=100"`
	Type              string          `json:"type" validate:"required,oneof=VEL MTO GEO"`
	TxLimit           int64           `json:"tx_limit" validate:"gte=0"`
	AmountLimit       decimal.Decimal `json:"amount_limit"`
	Window            string          `json:"window" validate:"required,oneof=HOR DIA SEM"`
	AllowedCountries  []string        `json:"allowed_countries,omitempty" validate:"dive,len=2"`
	ExcludedMerchants []string        `json:"excluded_merchants,omitempty"`
	ActiveFromHour    int             `json:"active_from_hour" validate:"gte=0,lte=23"`
	ActiveToHour      int             `json:"active_to_hour" validate:"gte=0,lte=23"`
	BaseScore         int             `json:"base_score" validate:"required,gte=1,lte=100"`
	RiskLevel         string          `json:"risk_level" validate:"required,oneof=BAJ MED ALT"`
	Priority          int             `json:"priority" validate:"gte=0"`
}

// RuleResponse is the outbound rule representation.
type RuleResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	TxLimit           int64           `json:"tx_limit,omitempty"`
	AmountLimit       decimal.Decimal `json:"amount_limit,omitempty"`
	Window            string          `json:"window"`
	AllowedCountries  []string        `json:"allowed_countries,omitempty"`
	ExcludedMerchants []string        `json:"excluded_merchants,omitempty"`
	ActiveFromHour    int             `json:"active_from_hour"`
	ActiveToHour      int             `json:"active_to_hour"`
	BaseScore         int             `json:"base_score"`
	RiskLevel         string          `json:"risk_level"`
	Priority          int             `json:"priority"`
	Enabled           bool            `json:"enabled"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AlertResolutionRequest closes an alert under review.
type AlertResolutionRequest struct {
	Confirmed bool   `json:"confirmed"`
	Detail    string `json:"detail" validate:"required,max=500"`
}

// AlertResponse is the outbound alert representation.
type AlertResponse struct {
	ID          string     `json:"id"`
	UniqueCode  string     `json:"unique_code"`
	RiskLevel   string     `json:"risk_level"`
	Score       int        `json:"score"`
	Status      string     `json:"status"`
	Detail      string     `json:"detail,omitempty"`
	DetectedAt  time.Time  `json:"detected_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// AssessmentResponse reports one fraud evaluation.
type AssessmentResponse struct {
	UniqueCode  string              `json:"unique_code"`
	Score       int                 `json:"score"`
	RiskLevel   string              `json:"risk_level"`
	Matches     []RuleMatchResponse `json:"matches,omitempty"`
	Alert       *AlertResponse      `json:"alert,omitempty"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}

// RuleMatchResponse is one triggered rule within an assessment.
type RuleMatchResponse struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Score    int    `json:"score"`
	Reason   string `json:"reason"`
}

// ToRule maps a validated request onto a new domain rule.
func (r RuleRequest) ToRule() *fraud.Rule {
	rule := fraud.NewRule(r.Name, fraud.RuleType(r.Type), r.TxLimit, r.AmountLimit,
		fraud.Window(r.Window), r.BaseScore, fraud.RiskLevel(r.RiskLevel), r.Priority)
	rule.AllowedCountries = r.AllowedCountries
	rule.ExcludedMerchants = r.ExcludedMerchants
	rule.ActiveFromHour = r.ActiveFromHour
	rule.ActiveToHour = r.ActiveToHour
	return rule
}

// FromRule maps a domain rule to its response shape.
func FromRule(rule *fraud.Rule) RuleResponse {
	return RuleResponse{
		ID:                rule.ID.String(),
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

// FromRules maps a slice of domain rules.
func FromRules(rules []*fraud.Rule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, FromRule(rule))
	}
	return out
}

// FromAlert maps a domain alert to its response shape.
func FromAlert(alert *fraud.Alert) AlertResponse {
	return AlertResponse{
		ID:          alert.ID.String(),
		UniqueCode:  alert.UniqueCode,
		RiskLevel:   string(alert.RiskLevel),
		Score:       alert.Score,
		Status:      string(alert.Status),
		Detail:      alert.Detail,
		DetectedAt:  alert.DetectedAt,
		ProcessedAt: alert.ProcessedAt,
	}
}

// FromAlerts maps a slice of domain alerts.
func FromAlerts(alerts []*fraud.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, FromAlert(alert))
	}
	return out
}

// FromAssessment maps an evaluation result.
func FromAssessment(a *fraud.Assessment) *AssessmentResponse {
	if a == nil {
		return nil
	}
	resp := &AssessmentResponse{
		UniqueCode:  a.UniqueCode,
		Score:       a.Score,
		RiskLevel:   string(a.RiskLevel),
		EvaluatedAt: a.EvaluatedAt,
	}
	for _, m := range a.Matches {
		resp.Matches = append(resp.Matches, RuleMatchResponse{
			RuleID:   m.RuleID.String(),
			RuleName: m.RuleName,
			Score:    m.Score,
			Reason:   m.Reason,
		})
	}
	if a.Alert != nil {
		alert := FromAlert(a.Alert)
		resp.Alert = &alert
	}
	return resp
}

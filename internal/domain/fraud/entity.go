package fraud

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel is the coarse severity bucket derived from an aggregate score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "BAJ"
	RiskMedium RiskLevel = "MED"
	RiskHigh   RiskLevel = "ALT"
)

// rank orders risk levels for threshold comparisons.
func (l RiskLevel) rank() int {
	switch l {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above threshold.
func (l RiskLevel) AtLeast(threshold RiskLevel) bool {
	return l.rank() >= threshold.rank()
}

// Window is the time span a rule's limits are evaluated over.
type Window string

const (
	WindowHour Window = "HOR"
	WindowDay  Window = "DIA"
	WindowWeek Window = "SEM"
)

// Duration converts the window code to a concrete span.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowHour:
		return time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// RuleType labels what a rule primarily watches.
type RuleType string

const (
	RuleTypeVelocity   RuleType = "VEL"
	RuleTypeAmount     RuleType = "MTO"
	RuleTypeGeographic RuleType = "GEO"
)

// Rule is an administrator-managed fraud detection rule. Rules are never
// physically deleted; deactivation flips Enabled.
type Rule struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type RuleType  `json:"type"`

	// TxLimit and AmountLimit are evaluated over Window: the rule fires
	// when either the prior transaction count exceeds TxLimit or their
	// monetary sum exceeds AmountLimit.
	TxLimit     int64           `json:"tx_limit"`
	AmountLimit decimal.Decimal `json:"amount_limit"`
	Window      Window          `json:"window"`

	// AllowedCountries, when non-empty, exempts transactions from those
	// countries. ExcludedMerchants lists merchants the rule ignores.
	AllowedCountries  []string `json:"allowed_countries,omitempty"`
	ExcludedMerchants []string `json:"excluded_merchants,omitempty"`

	// ActiveFromHour/ActiveToHour bound the time of day (UTC, [from, to))
	// in which the rule applies. Both zero means always active.
	ActiveFromHour int `json:"active_from_hour,omitempty"`
	ActiveToHour   int `json:"active_to_hour,omitempty"`

	BaseScore int       `json:"base_score"`
	RiskLevel RiskLevel `json:"risk_level"`

	// Priority orders evaluation; lower values run first.
	Priority int  `json:"priority"`
	Enabled  bool `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRule builds an enabled rule with a fresh id.
func NewRule(name string, ruleType RuleType, txLimit int64, amountLimit decimal.Decimal, window Window, baseScore int, level RiskLevel, priority int) *Rule {
	now := time.Now()
	return &Rule{
		ID:          uuid.New(),
		Name:        name,
		Type:        ruleType,
		TxLimit:     txLimit,
		AmountLimit: amountLimit,
		Window:      window,
		BaseScore:   baseScore,
		RiskLevel:   level,
		Priority:    priority,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Deactivate disables the rule without removing it.
func (r *Rule) Deactivate() {
	r.Enabled = false
	r.UpdatedAt = time.Now()
}

// AppliesAt reports whether the rule is active at the given instant,
// honouring the optional time-of-day window.
func (r *Rule) AppliesAt(at time.Time) bool {
	if !r.Enabled {
		return false
	}
	if r.ActiveFromHour == 0 && r.ActiveToHour == 0 {
		return true
	}
	hour := at.UTC().Hour()
	if r.ActiveFromHour <= r.ActiveToHour {
		return hour >= r.ActiveFromHour && hour < r.ActiveToHour
	}
	// Window wraps midnight.
	return hour >= r.ActiveFromHour || hour < r.ActiveToHour
}

// CoversCountry reports whether the rule applies to a transaction from the
// given country. An empty allow-list covers everything.
func (r *Rule) CoversCountry(country string) bool {
	if len(r.AllowedCountries) == 0 {
		return true
	}
	for _, c := range r.AllowedCountries {
		if c == country {
			return false // allow-listed countries are exempt
		}
	}
	return true
}

// ExcludesMerchant reports whether the merchant is on the rule's ignore list.
func (r *Rule) ExcludesMerchant(merchant string) bool {
	for _, m := range r.ExcludedMerchants {
		if m == merchant {
			return true
		}
	}
	return false
}

// Validate checks rule configuration before it is saved.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ErrInvalidRule
	}
	if r.TxLimit < 0 || r.AmountLimit.IsNegative() {
		return ErrInvalidRule
	}
	switch r.Window {
	case WindowHour, WindowDay, WindowWeek:
	default:
		return ErrInvalidWindow
	}
	if r.BaseScore < 0 {
		return ErrInvalidRule
	}
	if r.ActiveFromHour < 0 || r.ActiveFromHour > 23 || r.ActiveToHour < 0 || r.ActiveToHour > 23 {
		return ErrInvalidRule
	}
	return nil
}

// AlertStatus is the processing state of a fraud alert.
type AlertStatus string

const (
	AlertPending   AlertStatus = "PEN"
	AlertInReview  AlertStatus = "REV"
	AlertConfirmed AlertStatus = "APR"
	AlertDismissed AlertStatus = "REC"
)

// Alert is the outcome of rule evaluation that requires attention. At most
// one live alert exists per unique code; alerts change state through the
// monitoring workflow but are never re-scored in place.
type Alert struct {
	ID uuid.UUID `json:"id"`

	// UniqueCode joins the alert to the transaction it concerns.
	UniqueCode string `json:"unique_code"`

	RiskLevel RiskLevel   `json:"risk_level"`
	Score     int         `json:"score"`
	Status    AlertStatus `json:"status"`
	Detail    string      `json:"detail,omitempty"`

	DetectedAt  time.Time  `json:"detected_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewAlert builds a pending alert for a transaction's unique code.
func NewAlert(uniqueCode string, level RiskLevel, score int, detail string) *Alert {
	return &Alert{
		ID:         uuid.New(),
		UniqueCode: uniqueCode,
		RiskLevel:  level,
		Score:      score,
		Status:     AlertPending,
		Detail:     detail,
		DetectedAt: time.Now(),
	}
}

// StartReview moves a pending alert into review.
func (a *Alert) StartReview() error {
	if a.Status != AlertPending {
		return ErrAlertNotPending
	}
	a.Status = AlertInReview
	return nil
}

// Resolve closes the alert as confirmed fraud or a false positive and
// stamps the processing time.
func (a *Alert) Resolve(confirmed bool, detail string) error {
	if a.Status != AlertPending && a.Status != AlertInReview {
		return ErrAlertAlreadyResolved
	}
	if confirmed {
		a.Status = AlertConfirmed
	} else {
		a.Status = AlertDismissed
	}
	if detail != "" {
		a.Detail = detail
	}
	now := time.Now()
	a.ProcessedAt = &now
	return nil
}

// RuleMatch records one rule that fired during an evaluation.
type RuleMatch struct {
	RuleID   uuid.UUID `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Score    int       `json:"score"`
	Reason   string    `json:"reason"`
}

// Assessment is the result of evaluating all active rules against one
// transaction. It never changes the transaction's status by itself.
type Assessment struct {
	UniqueCode  string      `json:"unique_code"`
	Score       int         `json:"score"`
	RiskLevel   RiskLevel   `json:"risk_level"`
	Matches     []RuleMatch `json:"matches,omitempty"`
	Alert       *Alert      `json:"alert,omitempty"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// RequiresReview reports whether the assessment produced (or found) an alert.
func (a *Assessment) RequiresReview() bool {
	return a.Alert != nil
}

// RiskBands maps an aggregate score to a level. The thresholds are policy:
// they come from configuration and must be agreed with the rule owner, not
// hard-coded.
type RiskBands struct {
	// MediumFrom and HighFrom are inclusive lower bounds on a 0-100 scale.
	MediumFrom int
	HighFrom   int
}

// Level buckets a score.
func (b RiskBands) Level(score int) RiskLevel {
	switch {
	case score >= b.HighFrom:
		return RiskHigh
	case score >= b.MediumFrom:
		return RiskMedium
	default:
		return RiskLow
	}
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
)

// RuleRepository keeps fraud rules in memory.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]*fraud.Rule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[uuid.UUID]*fraud.Rule)}
}

func (r *RuleRepository) Create(ctx context.Context, rule *fraud.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rule
	r.rules[rule.ID] = &stored
	return nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *fraud.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return fraud.ErrRuleNotFound
	}
	stored := *rule
	r.rules[rule.ID] = &stored
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, fraud.ErrRuleNotFound
	}
	out := *rule
	return &out, nil
}

func (r *RuleRepository) ListActive(ctx context.Context) ([]*fraud.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*fraud.Rule
	for _, rule := range r.rules {
		if rule.Enabled {
			clone := *rule
			out = append(out, &clone)
		}
	}
	sortRules(out)
	return out, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]*fraud.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*fraud.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		clone := *rule
		out = append(out, &clone)
	}
	sortRules(out)
	return out, nil
}

func sortRules(rules []*fraud.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID.String() < rules[j].ID.String()
	})
}

// AlertRepository keeps fraud alerts in memory, indexed by unique code to
// enforce the one-live-alert-per-code invariant.
type AlertRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*fraud.Alert
	byCode map[string]uuid.UUID
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		byID:   make(map[uuid.UUID]*fraud.Alert),
		byCode: make(map[string]uuid.UUID),
	}
}

func (r *AlertRepository) CreateIfAbsent(ctx context.Context, alert *fraud.Alert) (*fraud.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byCode[alert.UniqueCode]; ok {
		existing := *r.byID[existingID]
		return &existing, fraud.ErrDuplicateAlert
	}

	stored := *alert
	r.byID[alert.ID] = &stored
	r.byCode[alert.UniqueCode] = alert.ID
	out := stored
	return &out, nil
}

func (r *AlertRepository) Update(ctx context.Context, alert *fraud.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[alert.ID]; !ok {
		return fraud.ErrAlertNotFound
	}
	stored := *alert
	r.byID[alert.ID] = &stored
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.byID[id]
	if !ok {
		return nil, fraud.ErrAlertNotFound
	}
	out := *alert
	return &out, nil
}

func (r *AlertRepository) GetByUniqueCode(ctx context.Context, code string) (*fraud.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, fraud.ErrAlertNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *AlertRepository) ListByStatus(ctx context.Context, status fraud.AlertStatus) ([]*fraud.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*fraud.Alert
	for _, alert := range r.byID {
		if alert.Status == status {
			clone := *alert
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

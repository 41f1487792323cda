// Package rules implements the fraud rule engine: it evaluates the active
// rule set against one transaction and its recent card history, producing a
// risk assessment and, above the action threshold, a pending alert.
//
// The engine is read-only with respect to transactions: it never changes a
// transaction's status. A separate decision step consumes its output.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// Engine evaluates fraud rules against transactions.
type Engine struct {
	ruleRepo  fraud.RuleRepository
	alertRepo fraud.AlertRepository
	history   fraud.HistoryProvider
	logger    *slog.Logger

	bands fraud.RiskBands
	// actionThreshold is the risk level at or above which an alert is
	// created for the transaction's unique code.
	actionThreshold fraud.RiskLevel

	// In-memory rule cache so every transaction does not hit the store.
	rulesMu     sync.RWMutex
	rulesCache  []*fraud.Rule
	lastRefresh time.Time
	cacheTTL    time.Duration
}

// NewEngine builds a rule engine. Bands and threshold come from
// configuration; they are policy, not code.
func NewEngine(ruleRepo fraud.RuleRepository, alertRepo fraud.AlertRepository, history fraud.HistoryProvider, bands fraud.RiskBands, actionThreshold fraud.RiskLevel, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ruleRepo:        ruleRepo,
		alertRepo:       alertRepo,
		history:         history,
		logger:          logger,
		bands:           bands,
		actionThreshold: actionThreshold,
		cacheTTL:        5 * time.Minute,
	}
}

// WithCacheTTL overrides how long the active rule set is cached.
func (e *Engine) WithCacheTTL(ttl time.Duration) *Engine {
	if ttl > 0 {
		e.cacheTTL = ttl
	}
	return e
}

// Evaluate runs every applicable rule against the transaction and returns
// the aggregate assessment. When the aggregate level reaches the action
// threshold exactly one pending alert exists afterwards for the unique
// code: a pre-existing alert is reused, never duplicated.
func (e *Engine) Evaluate(ctx context.Context, tx *transaction.Transaction) (*fraud.Assessment, error) {
	now := time.Now()

	rules, err := e.activeRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	assessment := &fraud.Assessment{
		UniqueCode:  tx.UniqueCode,
		EvaluatedAt: now,
	}

	for _, rule := range rules {
		if !rule.AppliesAt(now) {
			continue
		}
		if !rule.CoversCountry(tx.Country) {
			continue
		}
		if rule.ExcludesMerchant(tx.Merchant) {
			continue
		}

		match, err := e.evaluateRule(ctx, rule, tx, now)
		if err != nil {
			// One unevaluable rule must not sink the whole analysis.
			e.logger.ErrorContext(ctx, "rule evaluation failed",
				slog.String("rule_id", rule.ID.String()),
				slog.String("rule_name", rule.Name),
				slog.String("unique_code", tx.UniqueCode),
				slog.String("error", err.Error()))
			continue
		}
		if match != nil {
			assessment.Matches = append(assessment.Matches, *match)
			assessment.Score += match.Score
		}
	}

	if assessment.Score > 100 {
		assessment.Score = 100
	}
	assessment.RiskLevel = e.bands.Level(assessment.Score)

	if len(assessment.Matches) > 0 && assessment.RiskLevel.AtLeast(e.actionThreshold) {
		alert, err := e.raiseAlert(ctx, assessment)
		if err != nil {
			return nil, err
		}
		assessment.Alert = alert
	}

	return assessment, nil
}

// evaluateRule checks one rule's window limits. Returns nil when the rule
// did not fire.
func (e *Engine) evaluateRule(ctx context.Context, rule *fraud.Rule, tx *transaction.Transaction, now time.Time) (*fraud.RuleMatch, error) {
	since := now.Add(-rule.Window.Duration())

	var (
		count int64
		sum   decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = e.history.CountByCardSince(gctx, tx.Card.MaskedPAN, since)
		return err
	})
	g.Go(func() error {
		var err error
		sum, err = e.history.SumByCardSince(gctx, tx.Card.MaskedPAN, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The transaction under evaluation is persisted and recorded before the
	// engine runs, so the window already contains it. Limits apply to the
	// card's prior activity only.
	if count > 0 {
		count--
	}
	sum = sum.Sub(tx.Amount)
	if sum.IsNegative() {
		sum = decimal.Zero
	}

	countExceeded := rule.TxLimit > 0 && count > rule.TxLimit
	amountExceeded := rule.AmountLimit.IsPositive() && sum.GreaterThan(rule.AmountLimit)

	if !countExceeded && !amountExceeded {
		return nil, nil
	}

	reason := fmt.Sprintf("prior card activity in %s window: %d transactions totalling %s (limits: %d / %s)",
		rule.Window, count, sum.StringFixed(2), rule.TxLimit, rule.AmountLimit.StringFixed(2))

	return &fraud.RuleMatch{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Score:    rule.BaseScore,
		Reason:   reason,
	}, nil
}

// raiseAlert creates the pending alert for the assessment, deduplicating by
// unique code.
func (e *Engine) raiseAlert(ctx context.Context, assessment *fraud.Assessment) (*fraud.Alert, error) {
	detail := fmt.Sprintf("%d rule(s) fired with aggregate score %d", len(assessment.Matches), assessment.Score)
	alert := fraud.NewAlert(assessment.UniqueCode, assessment.RiskLevel, assessment.Score, detail)

	stored, err := e.alertRepo.CreateIfAbsent(ctx, alert)
	if err != nil {
		if errors.Is(err, fraud.ErrDuplicateAlert) {
			e.logger.InfoContext(ctx, "alert already open for unique code, skipping",
				slog.String("unique_code", assessment.UniqueCode))
			return stored, nil
		}
		return nil, fmt.Errorf("create alert for %s: %w", assessment.UniqueCode, err)
	}

	e.logger.WarnContext(ctx, "fraud alert raised",
		slog.String("unique_code", assessment.UniqueCode),
		slog.String("risk_level", string(assessment.RiskLevel)),
		slog.Int("score", assessment.Score))
	return stored, nil
}

// activeRules returns the enabled rules in evaluation order, refreshing the
// cache when stale.
func (e *Engine) activeRules(ctx context.Context) ([]*fraud.Rule, error) {
	e.rulesMu.RLock()
	if !e.lastRefresh.IsZero() && time.Since(e.lastRefresh) < e.cacheTTL {
		rules := e.rulesCache
		e.rulesMu.RUnlock()
		return rules, nil
	}
	e.rulesMu.RUnlock()

	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()
	if !e.lastRefresh.IsZero() && time.Since(e.lastRefresh) < e.cacheTTL {
		return e.rulesCache, nil
	}

	rules, err := e.ruleRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	// Priority ascending, id as the deterministic tie-break.
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID.String() < rules[j].ID.String()
	})

	e.rulesCache = rules
	e.lastRefresh = time.Now()
	return rules, nil
}

// InvalidateCache drops the cached rule set, forcing a reload on the next
// evaluation. Call after rule administration changes.
func (e *Engine) InvalidateCache() {
	e.rulesMu.Lock()
	e.rulesCache = nil
	e.lastRefresh = time.Time{}
	e.rulesMu.Unlock()
}

package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/memory"
)

type appliedDecision struct {
	uniqueCode string
	target     transaction.Status
	detail     string
}

type stubLifecycle struct {
	applied []appliedDecision
	err     error
}

func (s *stubLifecycle) ApplyDecision(ctx context.Context, uniqueCode string, target transaction.Status, detail string) (*transaction.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.applied = append(s.applied, appliedDecision{uniqueCode: uniqueCode, target: target, detail: detail})
	return &transaction.Transaction{ID: uuid.New(), UniqueCode: uniqueCode, Status: target}, nil
}

type stubDecisionClient struct {
	resp *DecisionResponse
	err  error
}

func (s *stubDecisionClient) Decide(ctx context.Context, req DecisionRequest) (*DecisionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) InvalidateCache() {
	c.invalidations++
}

type monitorFixture struct {
	monitor   *Monitor
	alerts    *memory.AlertRepository
	rules     *memory.RuleRepository
	lifecycle *stubLifecycle
	decisions *stubDecisionClient
	cache     *countingCache
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()
	f := &monitorFixture{
		alerts:    memory.NewAlertRepository(),
		rules:     memory.NewRuleRepository(),
		lifecycle: &stubLifecycle{},
		decisions: &stubDecisionClient{},
		cache:     &countingCache{},
	}
	f.monitor = NewMonitor(f.alerts, f.rules, f.lifecycle, f.decisions, f.cache, nil)
	return f
}

func (f *monitorFixture) seedAlert(t *testing.T, uniqueCode string) *fraud.Alert {
	t.Helper()
	alert := fraud.NewAlert(uniqueCode, fraud.RiskHigh, 85, "velocity exceeded")
	_, err := f.alerts.CreateIfAbsent(context.Background(), alert)
	require.NoError(t, err)
	return alert
}

func TestStartReviewMovesAlertToReview(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-REVIEW")

	reviewed, err := f.monitor.StartReview(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, fraud.AlertInReview, reviewed.Status)

	_, err = f.monitor.StartReview(ctx, alert.ID)
	assert.ErrorIs(t, err, fraud.ErrAlertNotPending)
}

func TestResolveConfirmedRejectsTransaction(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-FRAUD")

	resolved, err := f.monitor.Resolve(ctx, alert.ID, true, "confirmed by analyst")
	require.NoError(t, err)
	assert.Equal(t, fraud.AlertConfirmed, resolved.Status)
	require.NotNil(t, resolved.ProcessedAt)

	require.Len(t, f.lifecycle.applied, 1)
	assert.Equal(t, "TRX-FRAUD", f.lifecycle.applied[0].uniqueCode)
	assert.Equal(t, transaction.StatusRejected, f.lifecycle.applied[0].target)
}

func TestResolveDismissedApprovesTransaction(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-CLEAN")

	resolved, err := f.monitor.Resolve(ctx, alert.ID, false, "false positive")
	require.NoError(t, err)
	assert.Equal(t, fraud.AlertDismissed, resolved.Status)

	require.Len(t, f.lifecycle.applied, 1)
	assert.Equal(t, transaction.StatusApproved, f.lifecycle.applied[0].target)
}

func TestResolveTwiceFails(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-ONCE")

	_, err := f.monitor.Resolve(ctx, alert.ID, true, "confirmed")
	require.NoError(t, err)

	_, err = f.monitor.Resolve(ctx, alert.ID, true, "confirmed")
	assert.ErrorIs(t, err, fraud.ErrAlertAlreadyResolved)
	assert.Len(t, f.lifecycle.applied, 1)
}

func TestRequestDecisionAppliesVerdict(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-VERDICT")
	f.decisions.resp = &DecisionResponse{
		Status:    transaction.StatusRejected,
		RiskLevel: fraud.RiskHigh,
		Detail:    "network flagged",
	}

	tx, err := f.monitor.RequestDecision(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusRejected, tx.Status)

	stored, err := f.alerts.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, fraud.AlertConfirmed, stored.Status)
}

func TestRequestDecisionPropagatesClientError(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	alert := f.seedAlert(t, "TRX-DOWN")
	f.decisions.err = errors.New("decision service unavailable")

	_, err := f.monitor.RequestDecision(ctx, alert.ID)
	require.Error(t, err)
	assert.Empty(t, f.lifecycle.applied)

	stored, err := f.alerts.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, fraud.AlertPending, stored.Status)
}

func TestRuleAdministrationInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)

	rule := fraud.NewRule("hourly velocity", fraud.RuleTypeVelocity, 5, decimal.Zero, fraud.WindowHour, 60, fraud.RiskMedium, 1)
	require.NoError(t, f.monitor.CreateRule(ctx, rule))
	assert.Equal(t, 1, f.cache.invalidations)

	rule.BaseScore = 70
	require.NoError(t, f.monitor.UpdateRule(ctx, rule))
	assert.Equal(t, 2, f.cache.invalidations)

	disabled, err := f.monitor.DeactivateRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)
	assert.Equal(t, 3, f.cache.invalidations)
}

func TestCreateRuleRejectsInvalidRule(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)

	rule := fraud.NewRule("", fraud.RuleTypeVelocity, 5, decimal.Zero, fraud.WindowHour, 60, fraud.RiskMedium, 1)
	err := f.monitor.CreateRule(ctx, rule)
	require.Error(t, err)
	assert.Zero(t, f.cache.invalidations)

	rules, err := f.monitor.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestListAlertsByStatus(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture(t)
	f.seedAlert(t, "TRX-A")
	reviewing := f.seedAlert(t, "TRX-B")
	_, err := f.monitor.StartReview(ctx, reviewing.ID)
	require.NoError(t, err)

	pending, err := f.monitor.ListAlerts(ctx, fraud.AlertPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "TRX-A", pending[0].UniqueCode)

	inReview, err := f.monitor.ListAlerts(ctx, fraud.AlertInReview)
	require.NoError(t, err)
	require.Len(t, inReview, 1)
	assert.Equal(t, "TRX-B", inReview[0].UniqueCode)
}

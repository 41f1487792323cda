package rules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/memory"
)

// fixedHistory reports the same card activity regardless of window.
type fixedHistory struct {
	count int64
	sum   decimal.Decimal
}

func (h fixedHistory) CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error) {
	return h.count, nil
}

func (h fixedHistory) SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error) {
	return h.sum, nil
}

var defaultBands = fraud.RiskBands{MediumFrom: 40, HighFrom: 70}

func testEngine(t *testing.T, history fraud.HistoryProvider, ruleRepo fraud.RuleRepository) (*Engine, *memory.AlertRepository) {
	t.Helper()
	alerts := memory.NewAlertRepository()
	engine := NewEngine(ruleRepo, alerts, history, defaultBands, fraud.RiskMedium, nil)
	return engine, alerts
}

func testTx() *transaction.Transaction {
	tx := transaction.NewTransaction(uuid.New(), decimal.NewFromInt(100), "USD",
		transaction.ModalitySingle, transaction.GenerateUniqueCode())
	tx.Card = transaction.CardDetails{Brand: "VISA", MaskedPAN: "411111XXXXXX1111", Expiry: "12/29", HolderName: "JANE ROE"}
	tx.Country = "EC"
	tx.Merchant = "Comercial Andina"
	return tx
}

func velocityRule(limit int64, score int, level fraud.RiskLevel) *fraud.Rule {
	return fraud.NewRule("daily velocity", fraud.RuleTypeVelocity, limit, decimal.Zero,
		fraud.WindowDay, score, level, 1)
}

func TestEvaluateRaisesAlertWhenCountExceeded(t *testing.T) {
	ctx := context.Background()

	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, velocityRule(5, 60, fraud.RiskMedium)))

	// The window holds this transaction plus six priors; the limit is five.
	engine, alerts := testEngine(t, fixedHistory{count: 7}, rules)

	tx := testTx()
	assessment, err := engine.Evaluate(ctx, tx)
	require.NoError(t, err)

	require.Len(t, assessment.Matches, 1)
	assert.Equal(t, 60, assessment.Score)
	assert.Equal(t, fraud.RiskMedium, assessment.RiskLevel)
	require.NotNil(t, assessment.Alert)
	assert.Equal(t, tx.UniqueCode, assessment.Alert.UniqueCode)
	assert.Equal(t, fraud.AlertPending, assessment.Alert.Status)

	// Re-evaluating the same transaction must reuse the open alert.
	again, err := engine.Evaluate(ctx, tx)
	require.NoError(t, err)
	require.NotNil(t, again.Alert)
	assert.Equal(t, assessment.Alert.ID, again.Alert.ID)

	pending, err := alerts.ListByStatus(ctx, fraud.AlertPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestEvaluateBelowLimitDoesNotFire(t *testing.T) {
	ctx := context.Background()

	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, velocityRule(5, 60, fraud.RiskMedium)))

	// The window holds this transaction plus five priors: exactly at the
	// limit, not past it.
	engine, alerts := testEngine(t, fixedHistory{count: 6}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)
	assert.Equal(t, 0, assessment.Score)
	assert.Equal(t, fraud.RiskLow, assessment.RiskLevel)
	assert.Nil(t, assessment.Alert)

	pending, err := alerts.ListByStatus(ctx, fraud.AlertPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEvaluateExcludesOwnTransactionFromWindow(t *testing.T) {
	ctx := context.Background()

	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, velocityRule(2, 60, fraud.RiskMedium)))

	// Two priors plus the transaction being evaluated. Counting itself
	// would read three and fire; only prior activity is measured.
	engine, _ := testEngine(t, fixedHistory{count: 3}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)
	assert.Nil(t, assessment.Alert)
}

func TestEvaluateAmountLimit(t *testing.T) {
	ctx := context.Background()

	rule := fraud.NewRule("daily spend", fraud.RuleTypeAmount, 0, decimal.NewFromInt(1000),
		fraud.WindowDay, 45, fraud.RiskMedium, 1)
	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, rule))

	engine, _ := testEngine(t, fixedHistory{sum: decimal.NewFromInt(1500)}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	require.Len(t, assessment.Matches, 1)
	assert.Equal(t, fraud.RiskMedium, assessment.RiskLevel)

	// Prior spend of exactly the limit (the window sum minus this
	// transaction's own amount) must not fire.
	atLimit, _ := testEngine(t, fixedHistory{sum: decimal.NewFromInt(1100)}, rules)
	assessment, err = atLimit.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)
}

func TestEvaluateScoresAreAdditiveAndClamped(t *testing.T) {
	ctx := context.Background()

	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, velocityRule(5, 80, fraud.RiskMedium)))

	second := fraud.NewRule("hourly velocity", fraud.RuleTypeVelocity, 3, decimal.Zero,
		fraud.WindowHour, 70, fraud.RiskHigh, 2)
	require.NoError(t, rules.Create(ctx, second))

	engine, _ := testEngine(t, fixedHistory{count: 20}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	require.Len(t, assessment.Matches, 2)
	assert.Equal(t, 100, assessment.Score, "aggregate score is clamped to 100")
	assert.Equal(t, fraud.RiskHigh, assessment.RiskLevel)
}

func TestEvaluateSkipsExemptCountry(t *testing.T) {
	ctx := context.Background()

	rule := velocityRule(5, 60, fraud.RiskMedium)
	rule.AllowedCountries = []string{"EC"}
	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, rule))

	engine, _ := testEngine(t, fixedHistory{count: 100}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches, "allow-listed country is exempt")
}

func TestEvaluateSkipsExcludedMerchant(t *testing.T) {
	ctx := context.Background()

	rule := velocityRule(5, 60, fraud.RiskMedium)
	rule.ExcludedMerchants = []string{"Comercial Andina"}
	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, rule))

	engine, _ := testEngine(t, fixedHistory{count: 100}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)
}

func TestEvaluateIgnoresDisabledRules(t *testing.T) {
	ctx := context.Background()

	rule := velocityRule(5, 60, fraud.RiskMedium)
	rule.Deactivate()
	rules := memory.NewRuleRepository()
	require.NoError(t, rules.Create(ctx, rule))

	engine, _ := testEngine(t, fixedHistory{count: 100}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)
}

func TestInvalidateCacheReloadsRules(t *testing.T) {
	ctx := context.Background()

	rules := memory.NewRuleRepository()
	engine, _ := testEngine(t, fixedHistory{count: 100}, rules)

	assessment, err := engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches, "no rules configured yet")

	require.NoError(t, rules.Create(ctx, velocityRule(5, 60, fraud.RiskMedium)))

	// Cache still holds the empty rule set until invalidated.
	assessment, err = engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Empty(t, assessment.Matches)

	engine.InvalidateCache()
	assessment, err = engine.Evaluate(ctx, testTx())
	require.NoError(t, err)
	assert.Len(t, assessment.Matches, 1)
}

package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/memory"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/infrastructure/rules"
)

type stubAuthorizer struct {
	approved bool
	err      error
	calls    int
}

func (s *stubAuthorizer) Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if !s.approved {
		return &AuthorizationResult{Approved: false, ErrorDetail: "insufficient funds"}, nil
	}
	return &AuthorizationResult{Approved: true, AuthorizationCode: "AUTH-1"}, nil
}

type stubEvaluator struct {
	err   error
	calls int
}

func (s *stubEvaluator) Evaluate(ctx context.Context, tx *transaction.Transaction) (*fraud.Assessment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &fraud.Assessment{
		UniqueCode:  tx.UniqueCode,
		Score:       10,
		RiskLevel:   fraud.RiskLow,
		EvaluatedAt: time.Now(),
	}, nil
}

type stubRecorder struct {
	err   error
	codes []string
}

func (s *stubRecorder) Record(ctx context.Context, maskedPAN, uniqueCode string, amount decimal.Decimal, at time.Time) error {
	s.codes = append(s.codes, uniqueCode)
	return s.err
}

type lifecycleFixture struct {
	manager    *LifecycleManager
	repo       *memory.TransactionRepository
	bankID     uuid.UUID
	scheduleID uuid.UUID
	auth       *stubAuthorizer
	evaluator  *stubEvaluator
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	ctx := context.Background()

	repo := memory.NewTransactionRepository()
	banks := memory.NewBankRepository()
	schedules := memory.NewCommissionRepository()

	owner := &bank.Bank{ID: uuid.New(), Code: "BNK1", CommercialName: "Banco Uno", Status: bank.StatusActive}
	require.NoError(t, banks.Save(ctx, owner))

	schedule := &commission.Schedule{
		ID:         uuid.New(),
		BankID:     owner.ID,
		BaseAmount: decimal.NewFromFloat(1.50),
		Active:     true,
	}
	require.NoError(t, schedules.Save(ctx, schedule))

	auth := &stubAuthorizer{approved: true}
	evaluator := &stubEvaluator{}
	manager := NewLifecycleManager(repo, banks, commission.NewResolver(schedules, nil), evaluator, auth, nil, nil)

	return &lifecycleFixture{
		manager:    manager,
		repo:       repo,
		bankID:     owner.ID,
		scheduleID: schedule.ID,
		auth:       auth,
		evaluator:  evaluator,
	}
}

func (f *lifecycleFixture) input() CreateInput {
	return CreateInput{
		BankID:   f.bankID,
		Amount:   decimal.NewFromFloat(125.40),
		Currency: "USD",
		Card: transaction.CardDetails{
			Brand:      "VISA",
			MaskedPAN:  "411111XXXXXX1111",
			Expiry:     "12/28",
			HolderName: "ANA TORRES",
		},
		Country:  "EC",
		Merchant: "MegaMaxi",
		Modality: transaction.ModalitySingle,
	}
}

func TestCreatePersistsPendingWithLedgerRecord(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	require.NotNil(t, result.Assessment)

	tx := result.Transaction
	assert.Equal(t, transaction.StatusPending, tx.Status)
	assert.Equal(t, f.scheduleID, tx.CommissionID)
	assert.NotEmpty(t, tx.UniqueCode)

	records, err := f.repo.ListByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, transaction.StatusPending, records[0].Status)
	assert.Equal(t, "created", records[0].Detail)
}

func TestCreateRejectsDuplicateUniqueCode(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	input := f.input()
	input.UniqueCode = "TRX-REPEATED"
	_, err := f.manager.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.manager.Create(ctx, input)
	assert.ErrorIs(t, err, transaction.ErrDuplicateUniqueCode)
}

func TestCreateRejectsInactiveBank(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	banks := memory.NewBankRepository()
	dormant := &bank.Bank{ID: uuid.New(), Code: "BNK2", CommercialName: "Banco Dos", Status: bank.StatusInactive}
	require.NoError(t, banks.Save(ctx, dormant))
	f.manager.bankRepo = banks

	input := f.input()
	input.BankID = dormant.ID
	_, err := f.manager.Create(ctx, input)
	require.Error(t, err)
	assert.Zero(t, f.auth.calls)
}

func TestCreateProcessorDeclineLeavesNothingPersisted(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.auth.approved = false

	input := f.input()
	input.UniqueCode = "TRX-DECLINED"
	_, err := f.manager.Create(ctx, input)
	assert.ErrorIs(t, err, transaction.ErrProcessorDeclined)

	_, err = f.repo.GetByUniqueCode(ctx, input.UniqueCode)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestCreateSurvivesFraudEvaluationFailure(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.evaluator.err = errors.New("rules unavailable")

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Nil(t, result.Assessment)

	stored, err := f.repo.GetByID(ctx, result.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, stored.Status)
}

func TestCreateFeedsVelocityRecorder(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	recorder := &stubRecorder{}
	f.manager.WithVelocityRecorder(recorder)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)
	require.Len(t, recorder.codes, 1)
	assert.Equal(t, result.Transaction.UniqueCode, recorder.codes[0])
}

func TestCreateIgnoresVelocityRecorderFailure(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	f.manager.WithVelocityRecorder(&stubRecorder{err: errors.New("redis down")})

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, result.Transaction.Status)
}

func TestCreateVelocityWindowCountsOnlyPriorActivity(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	ruleRepo := memory.NewRuleRepository()
	rule := fraud.NewRule("daily velocity", fraud.RuleTypeVelocity, 2, decimal.Zero,
		fraud.WindowDay, 60, fraud.RiskMedium, 1)
	require.NoError(t, ruleRepo.Create(ctx, rule))
	engine := rules.NewEngine(ruleRepo, memory.NewAlertRepository(), f.repo,
		fraud.RiskBands{MediumFrom: 40, HighFrom: 70}, fraud.RiskMedium, nil)
	f.manager.evaluator = engine

	// Two prior transactions for the card; the third is at the limit and
	// must pass without an alert.
	for i := 0; i < 3; i++ {
		result, err := f.manager.Create(ctx, f.input())
		require.NoError(t, err)
		assert.Empty(t, result.Assessment.Matches)
		assert.Nil(t, result.Assessment.Alert)
	}

	// The fourth sees three priors against a limit of two and fires.
	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)
	require.Len(t, result.Assessment.Matches, 1)
	require.NotNil(t, result.Assessment.Alert)
	assert.Equal(t, result.Transaction.UniqueCode, result.Assessment.Alert.UniqueCode)
}

func TestTransitionAppendsLedgerRecord(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)

	approved, err := f.manager.Transition(ctx, result.Transaction.ID, transaction.StatusApproved, "manual review passed")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusApproved, approved.Status)

	records, err := f.repo.ListByTransaction(ctx, result.Transaction.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, transaction.StatusApproved, records[0].Status)
	assert.Equal(t, transaction.StatusPending, records[1].Status)
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.manager.Transition(ctx, result.Transaction.ID, transaction.StatusApproved, "ok")
	require.NoError(t, err)

	_, err = f.manager.Transition(ctx, result.Transaction.ID, transaction.StatusApproved, "again")
	assert.ErrorIs(t, err, transaction.ErrInvalidTransition)

	records, err := f.repo.ListByTransaction(ctx, result.Transaction.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

// contendedRepo reports a version conflict on the first update attempts,
// imitating a concurrent writer winning the race.
type contendedRepo struct {
	*memory.TransactionRepository
	conflicts int
}

func (r *contendedRepo) UpdateStatusWithHistory(ctx context.Context, tx *transaction.Transaction, record *transaction.StateTransitionRecord) error {
	if r.conflicts > 0 {
		r.conflicts--
		return transaction.ErrConcurrentModification
	}
	return r.TransactionRepository.UpdateStatusWithHistory(ctx, tx, record)
}

func TestTransitionRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)

	f.manager.repo = &contendedRepo{TransactionRepository: f.repo, conflicts: 1}

	approved, err := f.manager.Transition(ctx, result.Transaction.ID, transaction.StatusApproved, "ok")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusApproved, approved.Status)
}

func TestTransitionSurfacesPersistentConflict(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	result, err := f.manager.Create(ctx, f.input())
	require.NoError(t, err)

	f.manager.repo = &contendedRepo{TransactionRepository: f.repo, conflicts: 10}

	_, err = f.manager.Transition(ctx, result.Transaction.ID, transaction.StatusApproved, "ok")
	assert.ErrorIs(t, err, transaction.ErrConcurrentModification)
}

func TestApplyDecisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	input := f.input()
	input.UniqueCode = "TRX-DECIDE"
	_, err := f.manager.Create(ctx, input)
	require.NoError(t, err)

	first, err := f.manager.ApplyDecision(ctx, input.UniqueCode, transaction.StatusApproved, "cleared")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusApproved, first.Status)

	second, err := f.manager.ApplyDecision(ctx, input.UniqueCode, transaction.StatusApproved, "cleared")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusApproved, second.Status)

	records, err := f.repo.ListByTransaction(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestApplyDecisionUnknownCode(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	_, err := f.manager.ApplyDecision(ctx, "TRX-MISSING", transaction.StatusApproved, "cleared")
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

// Package transaction contains the lifecycle manager: the single owner of
// transaction creation and status transitions. Every successful transition
// leaves exactly one record in the history ledger, written atomically with
// the status change.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/metrics"
)

// creationDetail is the ledger detail of the first record of every
// transaction.
const creationDetail = "created"

// transitionAttempts bounds optimistic-lock retries before the conflict is
// surfaced to the caller.
const transitionAttempts = 3

// RiskEvaluator scores a transaction against the active fraud rules.
type RiskEvaluator interface {
	Evaluate(ctx context.Context, tx *transaction.Transaction) (*fraud.Assessment, error)
}

// Authorizer is the outbound card-network collaborator consulted at
// creation time.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error)
}

// AuthorizationRequest carries the card and amount details sent to the card
// network.
type AuthorizationRequest struct {
	UniqueCode string
	Card       transaction.CardDetails
	Amount     decimal.Decimal
	Currency   string
	Country    string
}

// AuthorizationResult is the card network's answer.
type AuthorizationResult struct {
	Approved          bool
	AuthorizationCode string
	ErrorDetail       string
}

// VelocityRecorder feeds the per-card activity cache once a transaction is
// persisted, so window rules see it on the next evaluation.
type VelocityRecorder interface {
	Record(ctx context.Context, maskedPAN, uniqueCode string, amount decimal.Decimal, at time.Time) error
}

// CreateInput is the validated payload for creating a transaction.
type CreateInput struct {
	BankID           uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	Card             transaction.CardDetails
	Country          string
	Merchant         string
	Modality         transaction.Modality
	UniqueCode       string
	RecurrenceStart  *time.Time
	RecurrenceEnd    *time.Time
	Installments     int
	DeferredInterest bool
}

// CreateResult pairs the persisted transaction with the fraud assessment
// produced at creation.
type CreateResult struct {
	Transaction *transaction.Transaction
	Assessment  *fraud.Assessment
}

// LifecycleManager owns the transaction entity and its state machine.
type LifecycleManager struct {
	repo      transaction.Repository
	bankRepo  bank.Repository
	resolver  *commission.Resolver
	evaluator RiskEvaluator
	auth      Authorizer
	logger    *slog.Logger
	collector *metrics.Collector
	velocity  VelocityRecorder
}

// WithVelocityRecorder attaches the activity cache feed. Recording failures
// are logged, never fatal; rule evaluation falls back to the store.
func (m *LifecycleManager) WithVelocityRecorder(v VelocityRecorder) *LifecycleManager {
	m.velocity = v
	return m
}

// NewLifecycleManager wires the lifecycle manager with its collaborators.
func NewLifecycleManager(
	repo transaction.Repository,
	bankRepo bank.Repository,
	resolver *commission.Resolver,
	evaluator RiskEvaluator,
	auth Authorizer,
	logger *slog.Logger,
	collector *metrics.Collector,
) *LifecycleManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleManager{
		repo:      repo,
		bankRepo:  bankRepo,
		resolver:  resolver,
		evaluator: evaluator,
		auth:      auth,
		logger:    logger,
		collector: collector,
	}
}

// Create records a new card transaction: it resolves the commission for the
// owning bank, obtains the card-network authorization, persists the entity
// in PEN together with its first ledger record, and finally runs the fraud
// evaluation. A fraud alert flags the transaction for review but does not
// change its status; that takes an explicit decision.
func (m *LifecycleManager) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	owner, err := m.bankRepo.GetByID(ctx, input.BankID)
	if err != nil {
		return nil, transaction.NewBusinessError("bank", "create transaction", input.BankID.String(), err)
	}
	if !owner.IsActive() {
		return nil, transaction.NewBusinessError("bank", "create transaction", owner.Code, errInactiveBank)
	}

	tx := transaction.NewTransaction(input.BankID, input.Amount, input.Currency, input.Modality, input.UniqueCode)
	tx.Card = input.Card
	tx.Country = input.Country
	tx.Merchant = input.Merchant
	tx.RecurrenceStart = input.RecurrenceStart
	tx.RecurrenceEnd = input.RecurrenceEnd
	tx.Installments = input.Installments
	tx.DeferredInterest = input.DeferredInterest

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	// Duplicate idempotency codes are rejected up front; the store enforces
	// the same invariant under races.
	if _, err := m.repo.GetByUniqueCode(ctx, tx.UniqueCode); err == nil {
		return nil, transaction.NewBusinessError("transaction", "create", tx.UniqueCode, transaction.ErrDuplicateUniqueCode)
	} else if !errors.Is(err, transaction.ErrNotFound) {
		return nil, fmt.Errorf("check unique code: %w", err)
	}

	count, err := m.repo.CountByBank(ctx, input.BankID, monthStart(tx.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("count bank transactions: %w", err)
	}
	resolution, err := m.resolver.Resolve(ctx, input.BankID, count)
	if err != nil {
		return nil, err
	}
	tx.CommissionID = resolution.ScheduleID

	auth, err := m.auth.Authorize(ctx, AuthorizationRequest{
		UniqueCode: tx.UniqueCode,
		Card:       tx.Card,
		Amount:     tx.Amount,
		Currency:   tx.Currency,
		Country:    tx.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("authorize %s: %w", tx.UniqueCode, err)
	}
	if !auth.Approved {
		return nil, transaction.NewBusinessError("transaction", "authorize", auth.ErrorDetail, transaction.ErrProcessorDeclined)
	}
	tx.Detail = fmt.Sprintf("authorization %s", auth.AuthorizationCode)

	record := transaction.NewStateTransitionRecord(tx.ID, tx.Status, creationDetail, tx.CreatedAt)
	if err := m.repo.CreateWithHistory(ctx, tx, record); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "transaction created",
		slog.String("transaction_id", tx.ID.String()),
		slog.String("unique_code", tx.UniqueCode),
		slog.String("bank_id", tx.BankID.String()),
		slog.String("amount", tx.Amount.StringFixed(2)))
	if m.collector != nil {
		m.collector.TransactionCreated()
	}

	if m.velocity != nil {
		if err := m.velocity.Record(ctx, tx.Card.MaskedPAN, tx.UniqueCode, tx.Amount, tx.CreatedAt); err != nil {
			m.logger.WarnContext(ctx, "velocity record failed",
				slog.String("unique_code", tx.UniqueCode),
				slog.String("error", err.Error()))
		}
	}

	// The engine only produces an assessment; the transaction stays PEN
	// until an explicit decision arrives. An evaluation failure is logged
	// and retried by the monitoring workflow rather than undoing the
	// already-persisted transaction.
	evalStart := time.Now()
	assessment, err := m.evaluator.Evaluate(ctx, tx)
	if m.collector != nil {
		m.collector.FraudEvaluationObserved(time.Since(evalStart).Seconds())
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "fraud evaluation failed",
			slog.String("unique_code", tx.UniqueCode),
			slog.String("error", err.Error()))
		assessment = nil
	} else if m.collector != nil {
		m.collector.FraudEvaluated(string(assessment.RiskLevel), assessment.Alert != nil)
	}

	return &CreateResult{Transaction: tx, Assessment: assessment}, nil
}

// Transition validates and applies a status change, appending exactly one
// ledger record with the same timestamp basis, atomically with the update.
// Concurrent writers for the same transaction are serialized by the store's
// optimistic version check; the loser reloads and retries up to
// transitionAttempts times before surfacing the conflict.
func (m *LifecycleManager) Transition(ctx context.Context, id uuid.UUID, target transaction.Status, detail string) (*transaction.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		tx, err := m.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		if err := tx.MarkStatus(target, detail, now); err != nil {
			return nil, err
		}

		record := transaction.NewStateTransitionRecord(tx.ID, target, detail, now)
		err = m.repo.UpdateStatusWithHistory(ctx, tx, record)
		if err == nil {
			m.logger.InfoContext(ctx, "transaction transitioned",
				slog.String("transaction_id", tx.ID.String()),
				slog.String("status", string(target)))
			if m.collector != nil {
				m.collector.TransactionTransitioned(string(target))
			}
			return tx, nil
		}
		if !errors.Is(err, transaction.ErrConcurrentModification) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ApplyDecision drives a transition identified by the transaction's unique
// code. It is the entry point for fraud-decision callbacks and manual
// reviews, and is idempotent: redelivering a decision whose status is
// already in effect is a no-op.
func (m *LifecycleManager) ApplyDecision(ctx context.Context, uniqueCode string, target transaction.Status, detail string) (*transaction.Transaction, error) {
	tx, err := m.repo.GetByUniqueCode(ctx, uniqueCode)
	if err != nil {
		return nil, err
	}
	if tx.Status == target {
		return tx, nil
	}
	return m.Transition(ctx, tx.ID, target, detail)
}

var errInactiveBank = errors.New("bank is not active")

// monthStart truncates t to the first instant of its month; the commission
// segment is selected by the bank's transaction count in the running month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

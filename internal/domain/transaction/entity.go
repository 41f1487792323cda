package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a card transaction.
type Status string

const (
	StatusPending  Status = "PEN"
	StatusApproved Status = "APR"
	StatusRejected Status = "REC"
	StatusReversed Status = "REV"
)

// Modality distinguishes one-off charges from recurring ones.
type Modality string

const (
	ModalitySingle    Modality = "SIM"
	ModalityRecurring Modality = "REC"
)

// transitions is the exhaustive state machine for transaction statuses.
// Rejected and reversed are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReversed},
	StatusRejected: {},
	StatusReversed: {},
}

// ValidStatus reports whether s is one of the four known status codes.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CardDetails carries the card metadata attached to a transaction.
// All fields are opaque to the processing core; they are forwarded to the
// card network as-is.
type CardDetails struct {
	Brand      string `json:"brand"`
	MaskedPAN  string `json:"masked_pan"`
	Expiry     string `json:"expiry"`
	HolderName string `json:"holder_name"`
}

// Transaction is the core entity of the payment processor. It is owned by a
// partner bank and carries the commission applied at creation time plus the
// fraud-relevant context of the charge.
type Transaction struct {
	ID           uuid.UUID `json:"id"`
	BankID       uuid.UUID `json:"bank_id"`
	CommissionID uuid.UUID `json:"commission_id"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Card     CardDetails     `json:"card"`
	Country  string          `json:"country"`
	Merchant string          `json:"merchant,omitempty"`

	Modality Modality `json:"modality"`
	Status   Status   `json:"status"`
	Detail   string   `json:"detail,omitempty"`

	// UniqueCode is the idempotency code used to correlate retries,
	// fraud alerts and history lookups with this transaction.
	UniqueCode string `json:"unique_code"`

	RecurrenceStart *time.Time `json:"recurrence_start,omitempty"`
	RecurrenceEnd   *time.Time `json:"recurrence_end,omitempty"`

	Installments     int  `json:"installments,omitempty"`
	DeferredInterest bool `json:"deferred_interest"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version supports optimistic concurrency on status updates.
	Version int64 `json:"-"`
}

// NewTransaction builds a pending transaction for a bank. The unique code is
// generated when the caller does not supply one.
func NewTransaction(bankID uuid.UUID, amount decimal.Decimal, currency string, modality Modality, uniqueCode string) *Transaction {
	if uniqueCode == "" {
		uniqueCode = GenerateUniqueCode()
	}
	now := time.Now()
	return &Transaction{
		ID:         uuid.New(),
		BankID:     bankID,
		Amount:     amount,
		Currency:   currency,
		Modality:   modality,
		Status:     StatusPending,
		UniqueCode: uniqueCode,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
}

// GenerateUniqueCode produces a correlation code for a transaction.
func GenerateUniqueCode() string {
	return "TRX-" + strings.ToUpper(uuid.NewString()[:18])
}

// CanTransitionTo reports whether moving from the current status to target
// is allowed by the state machine.
func (t *Transaction) CanTransitionTo(target Status) bool {
	for _, s := range transitions[t.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the transaction reached a final status.
func (t *Transaction) IsTerminal() bool {
	return len(transitions[t.Status]) == 0
}

// MarkStatus applies a validated status change. Callers must have checked
// CanTransitionTo first; MarkStatus re-checks and fails closed.
func (t *Transaction) MarkStatus(target Status, detail string, at time.Time) error {
	if !ValidStatus(target) {
		return NewBusinessError("transaction", "transition", string(target), ErrUnknownStatus)
	}
	if !t.CanTransitionTo(target) {
		return NewBusinessError("transaction", "transition", string(t.Status)+"->"+string(target), ErrInvalidTransition)
	}
	t.Status = target
	t.Detail = detail
	t.UpdatedAt = at
	return nil
}

// Validate performs the intrinsic invariant checks on the entity.
func (t *Transaction) Validate() error {
	if t.BankID == uuid.Nil {
		return NewBusinessError("transaction", "create", "bank_id", ErrMissingBank)
	}
	if !t.Amount.IsPositive() {
		return NewBusinessError("transaction", "create", t.Amount.String(), ErrNonPositiveAmount)
	}
	if t.Currency == "" {
		return NewBusinessError("transaction", "create", "currency", ErrMissingCurrency)
	}
	if t.Modality != ModalitySingle && t.Modality != ModalityRecurring {
		return NewBusinessError("transaction", "create", string(t.Modality), ErrInvalidModality)
	}
	if t.Modality == ModalityRecurring {
		if t.RecurrenceStart == nil || t.RecurrenceEnd == nil {
			return NewBusinessError("transaction", "create", "recurrence window", ErrMissingRecurrence)
		}
		if !t.RecurrenceEnd.After(*t.RecurrenceStart) {
			return NewBusinessError("transaction", "create", "recurrence window", ErrInvalidRecurrence)
		}
	}
	if !ValidStatus(t.Status) {
		return NewBusinessError("transaction", "create", string(t.Status), ErrUnknownStatus)
	}
	return nil
}

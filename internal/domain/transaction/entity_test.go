package transaction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "pending to approved", from: StatusPending, to: StatusApproved, allowed: true},
		{name: "pending to rejected", from: StatusPending, to: StatusRejected, allowed: true},
		{name: "approved to reversed", from: StatusApproved, to: StatusReversed, allowed: true},
		{name: "pending to reversed", from: StatusPending, to: StatusReversed, allowed: false},
		{name: "approved to approved", from: StatusApproved, to: StatusApproved, allowed: false},
		{name: "approved to rejected", from: StatusApproved, to: StatusRejected, allowed: false},
		{name: "rejected is terminal", from: StatusRejected, to: StatusApproved, allowed: false},
		{name: "reversed is terminal", from: StatusReversed, to: StatusPending, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.from}
			assert.Equal(t, tt.allowed, tx.CanTransitionTo(tt.to))
		})
	}
}

func TestMarkStatus(t *testing.T) {
	now := time.Now()

	t.Run("valid transition updates status and detail", func(t *testing.T) {
		tx := newTestTransaction(t)
		require.Equal(t, StatusPending, tx.Status)

		err := tx.MarkStatus(StatusApproved, "approved by network", now)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, tx.Status)
		assert.Equal(t, "approved by network", tx.Detail)
		assert.Equal(t, now, tx.UpdatedAt)
	})

	t.Run("invalid transition leaves transaction untouched", func(t *testing.T) {
		tx := newTestTransaction(t)
		require.NoError(t, tx.MarkStatus(StatusApproved, "ok", now))

		err := tx.MarkStatus(StatusApproved, "again", now)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusApproved, tx.Status)
		assert.Equal(t, "ok", tx.Detail)
	})

	t.Run("unknown target status is rejected", func(t *testing.T) {
		tx := newTestTransaction(t)
		err := tx.MarkStatus(Status("XXX"), "detail", now)
		require.ErrorIs(t, err, ErrUnknownStatus)
	})

	t.Run("terminal states accept nothing", func(t *testing.T) {
		for _, terminal := range []Status{StatusRejected, StatusReversed} {
			tx := newTestTransaction(t)
			tx.Status = terminal
			require.True(t, tx.IsTerminal())

			for _, target := range []Status{StatusPending, StatusApproved, StatusRejected, StatusReversed} {
				err := tx.MarkStatus(target, "detail", now)
				assert.ErrorIs(t, err, ErrInvalidTransition, "from %s to %s", terminal, target)
			}
		}
	})
}

func TestValidate(t *testing.T) {
	start := time.Now()
	end := start.Add(30 * 24 * time.Hour)

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "valid simple", mutate: func(tx *Transaction) {}},
		{
			name:    "zero amount",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.Zero },
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) },
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:    "missing bank",
			mutate:  func(tx *Transaction) { tx.BankID = uuid.Nil },
			wantErr: ErrMissingBank,
		},
		{
			name:    "missing currency",
			mutate:  func(tx *Transaction) { tx.Currency = "" },
			wantErr: ErrMissingCurrency,
		},
		{
			name:    "bad modality",
			mutate:  func(tx *Transaction) { tx.Modality = Modality("XXX") },
			wantErr: ErrInvalidModality,
		},
		{
			name:    "recurring without window",
			mutate:  func(tx *Transaction) { tx.Modality = ModalityRecurring },
			wantErr: ErrMissingRecurrence,
		},
		{
			name: "recurring with inverted window",
			mutate: func(tx *Transaction) {
				tx.Modality = ModalityRecurring
				tx.RecurrenceStart = &end
				tx.RecurrenceEnd = &start
			},
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "recurring with valid window",
			mutate: func(tx *Transaction) {
				tx.Modality = ModalityRecurring
				tx.RecurrenceStart = &start
				tx.RecurrenceEnd = &end
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTestTransaction(t)
			tt.mutate(tx)

			err := tx.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGenerateUniqueCode(t *testing.T) {
	code := GenerateUniqueCode()
	assert.True(t, len(code) > 4)
	assert.Equal(t, "TRX-", code[:4])

	other := GenerateUniqueCode()
	assert.NotEqual(t, code, other)
}

func newTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	tx := NewTransaction(uuid.New(), decimal.NewFromFloat(49.90), "USD", ModalitySingle, GenerateUniqueCode())
	tx.Card = CardDetails{Brand: "VISA", MaskedPAN: "411111XXXXXX1111", Expiry: "12/29", HolderName: "JANE ROE"}
	tx.Country = "EC"
	tx.Merchant = "Comercial Andina"
	return tx
}

// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// CreateTransactionRequest is the inbound authorization request body.
type CreateTransactionRequest struct {
	BankID           string          `json:"bank_id" validate:"required,uuid4"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Currency         string          `json:"currency" validate:"required,len=3"`
	CardBrand        string          `json:"card_brand" validate:"required"`
	MaskedPAN        string          `json:"masked_pan" validate:"required,min=8,max=19"`
	CardExpiry       string          `json:"card_expiry" validate:"required,len=5"`
	CardHolderName   string          `json:"card_holder_name" validate:"required"`
	Country          string          `json:"country" validate:"required,len=2"`
	Merchant         string          `json:"merchant,omitempty"`
	Modality         string          `json:"modality" validate:"required,oneof=SIM REC"`
	UniqueCode       string          `json:"unique_code,omitempty" validate:"omitempty,max=32"`
	RecurrenceStart  *time.Time      `json:"recurrence_start,omitempty"`
	RecurrenceEnd    *time.Time      `json:"recurrence_end,omitempty"`
	Installments     int             `json:"installments" validate:"gte=0"`
	DeferredInterest bool            `json:"deferred_interest"`
}

// StatusUpdateRequest asks for a lifecycle transition.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=APR REC REV"`
	Detail string `json:"detail" validate:"required,max=500"`
}

// TransactionResponse is the outbound transaction representation.
type TransactionResponse struct {
	ID               string          `json:"id"`
	BankID           string          `json:"bank_id"`
	CommissionID     string          `json:"commission_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	CardBrand        string          `json:"card_brand"`
	MaskedPAN        string          `json:"masked_pan"`
	Country          string          `json:"country"`
	Merchant         string          `json:"merchant"`
	Modality         string          `json:"modality"`
	Status           string          `json:"status"`
	Detail           string          `json:"detail,omitempty"`
	UniqueCode       string          `json:"unique_code"`
	RecurrenceStart  *time.Time      `json:"recurrence_start,omitempty"`
	RecurrenceEnd    *time.Time      `json:"recurrence_end,omitempty"`
	Installments     int             `json:"installments,omitempty"`
	DeferredInterest bool            `json:"deferred_interest,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HistoryRecordResponse is one ledger entry.
type HistoryRecordResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	Detail        string    `json:"detail,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// FromTransaction maps a domain transaction to its response shape.
func FromTransaction(tx *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               tx.ID.String(),
		BankID:           tx.BankID.String(),
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		CardBrand:        tx.Card.Brand,
		MaskedPAN:        tx.Card.MaskedPAN,
		Country:          tx.Country,
		Merchant:         tx.Merchant,
		Modality:         string(tx.Modality),
		Status:           string(tx.Status),
		Detail:           tx.Detail,
		UniqueCode:       tx.UniqueCode,
		RecurrenceStart:  tx.RecurrenceStart,
		RecurrenceEnd:    tx.RecurrenceEnd,
		Installments:     tx.Installments,
		DeferredInterest: tx.DeferredInterest,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
	if tx.CommissionID != uuid.Nil {
		resp.CommissionID = tx.CommissionID.String()
	}
	return resp
}

// FromTransactions maps a slice of domain transactions.
func FromTransactions(txs []*transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}
	return out
}

// FromHistoryRecord maps one ledger entry.
func FromHistoryRecord(rec *transaction.StateTransitionRecord) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:            rec.ID.String(),
		TransactionID: rec.TransactionID.String(),
		Status:        string(rec.Status),
		Detail:        rec.Detail,
		RecordedAt:    rec.RecordedAt,
	}
}

// FromHistoryRecords maps a slice of ledger entries.
func FromHistoryRecords(recs []*transaction.StateTransitionRecord) []HistoryRecordResponse {
	out := make([]HistoryRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromHistoryRecord(rec))
	}
	return out
}

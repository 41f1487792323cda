package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/application/dto"
	apptx "github.com/jaortiz16/Payment-Processor-sub000/internal/application/transaction"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// TransactionHandler serves the transaction endpoints.
type TransactionHandler struct {
	lifecycle *apptx.LifecycleManager
	queries   *apptx.Queries
	validate  *validator.Validate
}

// NewTransactionHandler wires the transaction endpoints.
func NewTransactionHandler(lifecycle *apptx.LifecycleManager, queries *apptx.Queries) *TransactionHandler {
	return &TransactionHandler{
		lifecycle: lifecycle,
		queries:   queries,
		validate:  validator.New(),
	}
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	bankID, err := uuid.Parse(req.BankID)
	if err != nil {
		badRequest(w, "invalid bank_id")
		return
	}

	result, err := h.lifecycle.Create(r.Context(), apptx.CreateInput{
		BankID:   bankID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Card: transaction.CardDetails{
			Brand:      req.CardBrand,
			MaskedPAN:  req.MaskedPAN,
			Expiry:     req.CardExpiry,
			HolderName: req.CardHolderName,
		},
		Country:  req.Country,
		Merchant: req.Merchant,
		Modality: transaction.Modality(req.Modality),
		// A caller-supplied idempotency code makes retries safe: the
		// duplicate is rejected instead of creating a second transaction.
		// The lifecycle generates one when the field is empty.
		UniqueCode:       req.UniqueCode,
		RecurrenceStart:  req.RecurrenceStart,
		RecurrenceEnd:    req.RecurrenceEnd,
		Installments:     req.Installments,
		DeferredInterest: req.DeferredInterest,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	created(w, struct {
		Transaction dto.TransactionResponse `json:"transaction"`
		Assessment  *dto.AssessmentResponse `json:"assessment,omitempty"`
	}{
		Transaction: dto.FromTransaction(result.Transaction),
		Assessment:  dto.FromAssessment(result.Assessment),
	})
}

// UpdateStatus handles POST /api/v1/transactions/{id}/status.
func (h *TransactionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid transaction id")
		return
	}

	var req dto.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	tx, err := h.lifecycle.Transition(r.Context(), id, transaction.Status(req.Status), req.Detail)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromTransaction(tx))
}

// GetByID handles GET /api/v1/transactions/{id}.
func (h *TransactionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid transaction id")
		return
	}

	tx, err := h.queries.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromTransaction(tx))
}

// GetByUniqueCode handles GET /api/v1/transactions/code/{uniqueCode}.
func (h *TransactionHandler) GetByUniqueCode(w http.ResponseWriter, r *http.Request) {
	tx, err := h.queries.GetByUniqueCode(r.Context(), chi.URLParam(r, "uniqueCode"))
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromTransaction(tx))
}

// List handles GET /api/v1/transactions. Three filter shapes are accepted:
// status+date range, bank+amount range, and card+date range.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("bank_id") != "":
		bankID, err := uuid.Parse(q.Get("bank_id"))
		if err != nil {
			badRequest(w, "invalid bank_id")
			return
		}
		min, err := decimal.NewFromString(q.Get("min_amount"))
		if err != nil {
			badRequest(w, "invalid min_amount")
			return
		}
		max, err := decimal.NewFromString(q.Get("max_amount"))
		if err != nil {
			badRequest(w, "invalid max_amount")
			return
		}
		txs, err := h.queries.ListByBankAndAmountRange(r.Context(), bankID, min, max)
		if err != nil {
			respondError(w, err)
			return
		}
		ok(w, dto.FromTransactions(txs))

	case q.Get("card") != "":
		from, to, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		txs, err := h.queries.ListByCardAndRange(r.Context(), q.Get("card"), from, to)
		if err != nil {
			respondError(w, err)
			return
		}
		ok(w, dto.FromTransactions(txs))

	default:
		from, to, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		status, err := parseStatus(q.Get("status"))
		if err != nil {
			respondError(w, err)
			return
		}
		txs, err := h.queries.ListByStatusAndRange(r.Context(), status, from, to)
		if err != nil {
			respondError(w, err)
			return
		}
		ok(w, dto.FromTransactions(txs))
	}
}

// History handles GET /api/v1/transactions/{id}/history.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid transaction id")
		return
	}

	records, err := h.queries.HistoryByTransaction(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromHistoryRecords(records))
}

// HistoryByRange handles GET /api/v1/history.
func (h *TransactionHandler) HistoryByRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}

	records, err := h.queries.HistoryByRange(r.Context(), from, to, status, q.Get("bank_name"))
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromHistoryRecords(records))
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, errMissingRange
	}
	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errBadRange
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errBadRange
	}
	return from, to, nil
}

func parseStatus(raw string) (*transaction.Status, error) {
	if raw == "" {
		return nil, nil
	}
	status := transaction.Status(raw)
	if !transaction.ValidStatus(status) {
		return nil, transaction.ErrUnknownStatus
	}
	return &status, nil
}

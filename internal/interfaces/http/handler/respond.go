// Package handler contains the HTTP layer: request binding, validation and
// response formatting over the application services.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

// envelope wraps every API response. Success responses carry data, error
// responses carry the error.
type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	errMissingRange = errors.New("from and to query parameters are required (RFC 3339)")
	errBadRange     = errors.New("from/to must be RFC 3339 timestamps")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{Error: &apiError{Code: "BAD_REQUEST", Message: message}})
}

// respondError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become an opaque 500 so internals never leak to partners.
func respondError(w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, bank.ErrNotFound),
		errors.Is(err, fraud.ErrRuleNotFound),
		errors.Is(err, fraud.ErrAlertNotFound),
		errors.Is(err, commission.ErrMissingSchedule):
		status, code = http.StatusNotFound, "NOT_FOUND"

	case errors.Is(err, transaction.ErrDuplicateUniqueCode),
		errors.Is(err, fraud.ErrDuplicateAlert):
		status, code = http.StatusConflict, "DUPLICATE"

	case errors.Is(err, transaction.ErrConcurrentModification):
		status, code = http.StatusConflict, "CONFLICT"

	case errors.Is(err, transaction.ErrInvalidTransition),
		errors.Is(err, transaction.ErrUnknownStatus),
		errors.Is(err, fraud.ErrAlertNotPending),
		errors.Is(err, fraud.ErrAlertAlreadyResolved):
		status, code = http.StatusUnprocessableEntity, "INVALID_TRANSITION"

	case errors.Is(err, transaction.ErrProcessorDeclined):
		status, code = http.StatusUnprocessableEntity, "PROCESSOR_DECLINED"

	// A schedule exists but no segment covers the bank's count: a
	// configuration gap the partner can act on, not an internal failure.
	case errors.Is(err, commission.ErrNoMatchingSegment):
		status, code = http.StatusUnprocessableEntity, "COMMISSION_GAP"

	case errors.Is(err, transaction.ErrNonPositiveAmount),
		errors.Is(err, transaction.ErrMissingBank),
		errors.Is(err, transaction.ErrMissingCurrency),
		errors.Is(err, transaction.ErrInvalidModality),
		errors.Is(err, transaction.ErrMissingRecurrence),
		errors.Is(err, transaction.ErrInvalidRecurrence),
		errors.Is(err, fraud.ErrInvalidRule),
		errors.Is(err, fraud.ErrInvalidWindow),
		errors.Is(err, commission.ErrNoSegments),
		errors.Is(err, commission.ErrEmptySegment),
		errors.Is(err, commission.ErrOverlappingSegments),
		errors.Is(err, commission.ErrNegativeAmount):
		status, code = http.StatusUnprocessableEntity, "VALIDATION"

	case errors.Is(err, transaction.ErrDownstreamUnavailable):
		status, code = http.StatusBadGateway, "DOWNSTREAM_UNAVAILABLE"

	default:
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusBadRequest, envelope{Error: &apiError{Code: "VALIDATION", Message: invalid.Error()}})
			return
		}
		writeJSON(w, http.StatusInternalServerError, envelope{
			Error: &apiError{Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"},
		})
		return
	}

	writeJSON(w, status, envelope{Error: &apiError{Code: code, Message: err.Error()}})
}

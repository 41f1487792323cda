package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/transaction"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", transaction.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate code", transaction.ErrDuplicateUniqueCode, http.StatusConflict, "DUPLICATE"},
		{"invalid transition", transaction.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"missing schedule", commission.ErrMissingSchedule, http.StatusNotFound, "NOT_FOUND"},
		{"commission gap", commission.ErrNoMatchingSegment, http.StatusUnprocessableEntity, "COMMISSION_GAP"},
		{"wrapped commission gap", fmt.Errorf("schedule x at count 500: %w", commission.ErrNoMatchingSegment), http.StatusUnprocessableEntity, "COMMISSION_GAP"},
		{"downstream", transaction.ErrDownstreamUnavailable, http.StatusBadGateway, "DOWNSTREAM_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

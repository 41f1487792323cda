package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/application/dto"
	appfraud "github.com/jaortiz16/Payment-Processor-sub000/internal/application/fraud"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
)

// FraudHandler serves the rule administration and alert review endpoints.
type FraudHandler struct {
	monitor  *appfraud.Monitor
	validate *validator.Validate
}

// NewFraudHandler wires the fraud endpoints.
func NewFraudHandler(monitor *appfraud.Monitor) *FraudHandler {
	return &FraudHandler{
		monitor:  monitor,
		validate: validator.New(),
	}
}

// CreateRule handles POST /api/v1/fraud/rules.
func (h *FraudHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req dto.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	rule := req.ToRule()
	if err := h.monitor.CreateRule(r.Context(), rule); err != nil {
		respondError(w, err)
		return
	}
	created(w, dto.FromRule(rule))
}

// UpdateRule handles PUT /api/v1/fraud/rules/{id}.
func (h *FraudHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}

	var req dto.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	existing, err := h.monitor.GetRule(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	rule := req.ToRule()
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	rule.Enabled = existing.Enabled
	if err := h.monitor.UpdateRule(r.Context(), rule); err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromRule(rule))
}

// DeactivateRule handles DELETE /api/v1/fraud/rules/{id}. Rules are never
// removed, only disabled.
func (h *FraudHandler) DeactivateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}

	rule, err := h.monitor.DeactivateRule(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromRule(rule))
}

// GetRule handles GET /api/v1/fraud/rules/{id}.
func (h *FraudHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid rule id")
		return
	}

	rule, err := h.monitor.GetRule(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromRule(rule))
}

// ListRules handles GET /api/v1/fraud/rules.
func (h *FraudHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.monitor.ListRules(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromRules(rules))
}

// ListAlerts handles GET /api/v1/fraud/alerts?status=.
func (h *FraudHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := fraud.AlertStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = fraud.AlertPending
	}

	alerts, err := h.monitor.ListAlerts(r.Context(), status)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromAlerts(alerts))
}

// GetAlert handles GET /api/v1/fraud/alerts/{id}.
func (h *FraudHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid alert id")
		return
	}

	alert, err := h.monitor.GetAlert(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromAlert(alert))
}

// StartReview handles POST /api/v1/fraud/alerts/{id}/review.
func (h *FraudHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid alert id")
		return
	}

	alert, err := h.monitor.StartReview(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromAlert(alert))
}

// ResolveAlert handles POST /api/v1/fraud/alerts/{id}/resolve.
func (h *FraudHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid alert id")
		return
	}

	var req dto.AlertResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	alert, err := h.monitor.Resolve(r.Context(), id, req.Confirmed, req.Detail)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromAlert(alert))
}

// RequestDecision handles POST /api/v1/fraud/alerts/{id}/decision: it asks
// the external fraud-decision service for a verdict and applies it.
func (h *FraudHandler) RequestDecision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid alert id")
		return
	}

	tx, err := h.monitor.RequestDecision(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, dto.FromTransaction(tx))
}

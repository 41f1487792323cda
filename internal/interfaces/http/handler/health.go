package handler

import (
	"context"
	"net/http"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a bare function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler wires the probes. deps maps a dependency name to its
// ping; standalone mode passes none.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok"})
}

// Ready handles GET /ready: it pings every backing service and reports the
// first failure.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	statuses := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			statuses[name] = err.Error()
			healthy = false
			continue
		}
		statuses[name] = "ok"
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Data: statuses})
		return
	}
	ok(w, statuses)
}

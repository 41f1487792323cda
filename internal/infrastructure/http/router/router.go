// Package router assembles the chi router over the HTTP handlers.
package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/interfaces/http/handler"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Transactions *handler.TransactionHandler
	Fraud        *handler.FraudHandler
	Health       *handler.HealthHandler
}

// New builds the HTTP routing tree.
func New(h Handlers, logger *slog.Logger, collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger, collector))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.Transactions.Create)
			r.Get("/", h.Transactions.List)
			r.Get("/{id}", h.Transactions.GetByID)
			r.Post("/{id}/status", h.Transactions.UpdateStatus)
			r.Get("/{id}/history", h.Transactions.History)
			r.Get("/code/{uniqueCode}", h.Transactions.GetByUniqueCode)
		})

		r.Get("/history", h.Transactions.HistoryByRange)

		r.Route("/fraud", func(r chi.Router) {
			r.Route("/rules", func(r chi.Router) {
				r.Get("/", h.Fraud.ListRules)
				r.Post("/", h.Fraud.CreateRule)
				r.Get("/{id}", h.Fraud.GetRule)
				r.Put("/{id}", h.Fraud.UpdateRule)
				r.Delete("/{id}", h.Fraud.DeactivateRule)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", h.Fraud.ListAlerts)
				r.Get("/{id}", h.Fraud.GetAlert)
				r.Post("/{id}/review", h.Fraud.StartReview)
				r.Post("/{id}/resolve", h.Fraud.ResolveAlert)
				r.Post("/{id}/decision", h.Fraud.RequestDecision)
			})
		})
	})

	return r
}

// requestLogger emits one slog record per request and feeds the HTTP
// metrics.
func requestLogger(logger *slog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
			if collector != nil {
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				collector.HTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), elapsed.Seconds())
			}
		})
	}
}

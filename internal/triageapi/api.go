// Package triageapi exposes the operational HTTP surface: transaction
// ingestion, cycle triggering, report retrieval, and component health.
package triageapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

// Pipeline defines the triage operations the API needs.
type Pipeline interface {
	RunCycle(ctx context.Context) (*triage.CycleResult, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	store    triage.Store
	pipeline Pipeline
	health   *HealthChecker
}

// New creates a new API handler.
func New(logger log.Logger, store triage.Store, pipeline Pipeline, health *HealthChecker) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("store is required"))
	}
	if pipeline == nil {
		panic(xerrors.New("pipeline is required"))
	}
	return &API{
		logger:   logger,
		store:    store,
		pipeline: pipeline,
		health:   health,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transactions", a.handleIngestTransactions)
		r.Post("/cycles", a.handleRunCycle)
		r.Get("/reports", a.handleListReports)
		r.Get("/reports/{id}", a.handleGetReport)
		r.Get("/stats", a.handleStats)
		r.Get("/health", a.handleHealth)
	})
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("sentinel.report.id", id))

	report, ok, err := a.store.GetReport(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get report", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.store.ListReports(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list reports")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get stats")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

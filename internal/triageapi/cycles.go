package triageapi

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handleRunCycle triggers exactly one triage cycle synchronously and returns
// its result. An empty queue is a 200 with has_transaction=false, not an
// error; only store unavailability is a 503.
func (a *API) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	res, err := a.pipeline.RunCycle(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "triage cycle failed")
		http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.Bool("sentinel.cycle.has_transaction", res.HasTransaction),
		attribute.String("sentinel.cycle.state", string(res.State)),
	)

	writeJSON(w, http.StatusOK, res)
}

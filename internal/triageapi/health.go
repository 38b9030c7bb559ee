package triageapi

import (
	"context"
	"net/http"
	"time"
)

// ClassifierProbe reports classifier readiness.
type ClassifierProbe interface {
	Ready() bool
}

// NarratorProbe is the liveness subset of triage.Narrator.
type NarratorProbe interface {
	Available(ctx context.Context) bool
}

// StoreProbe is the connectivity subset of triage.Store.
type StoreProbe interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes each collaborator independently so operators can see
// which one is down without digging through cycle errors.
type HealthChecker struct {
	Store      StoreProbe
	Classifier ClassifierProbe
	Narrator   NarratorProbe
}

// HealthStatus is the per-collaborator health report.
type HealthStatus struct {
	Store      bool `json:"store"`
	Classifier bool `json:"classifier"`
	Narrator   bool `json:"narrator"`
	Healthy    bool `json:"healthy"`
}

// Check probes every collaborator with a bounded deadline.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var st HealthStatus
	if h.Store != nil {
		st.Store = h.Store.Ping(ctx) == nil
	}
	if h.Classifier != nil {
		st.Classifier = h.Classifier.Ready()
	}
	if h.Narrator != nil {
		st.Narrator = h.Narrator.Available(ctx)
	}
	st.Healthy = st.Store && st.Classifier && st.Narrator
	return st
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health == nil {
		http.Error(w, `{"error":"health checks not configured"}`, http.StatusNotImplemented)
		return
	}

	st := a.health.Check(r.Context())
	status := http.StatusOK
	if !st.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

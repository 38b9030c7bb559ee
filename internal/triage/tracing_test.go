package triage

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRunCycle_CreatesSpans(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	store := newMockStore()
	store.InsertTransaction(context.Background(), &Transaction{OriginAccount: "ACC-span"})
	m := newTestMachine(store, &stubModel{label: 1, probaErr: ErrNoProba, ready: true}, &mockNarrator{text: "n"})

	res, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.State != StateReported {
		t.Fatalf("state = %v, want %v", res.State, StateReported)
	}

	counts := make(map[string]int)
	for _, s := range exporter.GetSpans() {
		counts[s.Name]++
	}

	if counts["triage.cycle"] != 1 {
		t.Errorf("triage.cycle spans = %d, want 1", counts["triage.cycle"])
	}
	if counts["report.compile"] != 1 {
		t.Errorf("report.compile spans = %d, want 1", counts["report.compile"])
	}

	// The verdict attributes land on the cycle span.
	for _, s := range exporter.GetSpans() {
		if s.Name != "triage.cycle" {
			continue
		}
		found := false
		for _, attr := range s.Attributes {
			if string(attr.Key) == "sentinel.verdict.suspicious" && attr.Value.AsBool() {
				found = true
			}
		}
		if !found {
			t.Error("triage.cycle span missing suspicious verdict attribute")
		}
	}
}

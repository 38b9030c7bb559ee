package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec
	CycleDuration    *prometheus.HistogramVec
	VerdictsTotal    *prometheus.CounterVec
	Confidence       prometheus.Histogram
	ReportsTotal     *prometheus.CounterVec
	HistoryDepth     prometheus.Histogram
	NarratorDuration prometheus.Histogram
	NarratorErrors   prometheus.Counter
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Total triage cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Duration of triage cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~40s
		}, []string{"outcome"}),
		VerdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_verdicts_total",
			Help: "Classifier verdicts by result.",
		}, []string{"result"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_verdict_confidence",
			Help:    "Classifier confidence distribution.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		ReportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_reports_total",
			Help: "Investigation reports filed by risk level.",
		}, []string{"risk_level"}),
		HistoryDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_report_history_depth",
			Help:    "Historical transactions attached per report.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
		NarratorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_narrator_duration_seconds",
			Help:    "Duration of narrative generation calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}),
		NarratorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_narrator_errors_total",
			Help: "Narrative generation failures absorbed into placeholder text.",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.VerdictsTotal,
		m.Confidence,
		m.ReportsTotal,
		m.HistoryDepth,
		m.NarratorDuration,
		m.NarratorErrors,
	)

	return m
}

// ObserveCycle records the outcome of one triage cycle.
func (m *Metrics) ObserveCycle(outcome string, res *CycleResult) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.WithLabelValues(outcome).Observe(res.Duration)

	if res.Verdict != nil {
		result := "clean"
		switch {
		case res.Verdict.Err != "":
			result = "error"
		case res.Verdict.Suspicious:
			result = "suspicious"
		}
		m.VerdictsTotal.WithLabelValues(result).Inc()
		m.Confidence.Observe(res.Verdict.Confidence)
	}

	if res.Report != nil {
		m.ReportsTotal.WithLabelValues(string(res.Report.RiskLevel)).Inc()
		m.HistoryDepth.Observe(float64(len(res.Report.History)))
	}
}

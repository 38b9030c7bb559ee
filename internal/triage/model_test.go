package triage

import "testing"

func TestRiskFromConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		confidence float64
		want       RiskLevel
	}{
		{"boundary is medium", 0.80, RiskMedium},
		{"just above boundary", 0.8000001, RiskHigh},
		{"high", 0.95, RiskHigh},
		{"mid band", 0.65, RiskMedium},
		{"lower boundary is low", 0.50, RiskLow},
		{"fallback clean", 0.2, RiskLow},
		{"zero", 0, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RiskFromConfidence(tt.confidence); got != tt.want {
				t.Errorf("RiskFromConfidence(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

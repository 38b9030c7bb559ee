// Package classifier loads the pre-trained laundering detection model and
// exposes it behind the triage.Classifier interface. The model file is a
// JSON export of the trained coefficients; training itself happens offline.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// weightsFile is the on-disk format of an exported model.
type weightsFile struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold"`
	// Calibrated marks models whose sigmoid output is a usable posterior.
	// Uncalibrated models only provide labels.
	Calibrated bool `json:"calibrated"`
	// Scale holds per-feature divisors applied before scoring. Optional;
	// empty means raw features.
	Scale []float64 `json:"scale,omitempty"`
}

// Logistic is a binary logistic-regression scorer.
type Logistic struct {
	coef       []float64
	intercept  float64
	threshold  float64
	calibrated bool
	scale      []float64
}

// Load reads model weights from path. It fails fast on a missing or
// malformed file so a broken deployment is caught at startup, not at the
// first scoring call.
func Load(path string) (*Logistic, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var wf weightsFile
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}
	if len(wf.Coefficients) == 0 {
		return nil, fmt.Errorf("model file %s has no coefficients", path)
	}
	if len(wf.Scale) != 0 && len(wf.Scale) != len(wf.Coefficients) {
		return nil, fmt.Errorf("model file %s: scale width %d != coefficient width %d",
			path, len(wf.Scale), len(wf.Coefficients))
	}

	threshold := wf.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	return &Logistic{
		coef:       wf.Coefficients,
		intercept:  wf.Intercept,
		threshold:  threshold,
		calibrated: wf.Calibrated,
		scale:      wf.Scale,
	}, nil
}

// Ready reports whether the model carries usable weights.
func (m *Logistic) Ready() bool {
	return m != nil && len(m.coef) > 0
}

// Predict returns the class label for the feature vector: 1 when the
// positive-class probability crosses the decision threshold, else 0.
func (m *Logistic) Predict(features []float64) (int, error) {
	p, err := m.posterior(features)
	if err != nil {
		return 0, err
	}
	if p >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

// Proba returns [P(clean), P(laundering)]. Uncalibrated models return an
// error so the adapter falls back to fixed confidences.
func (m *Logistic) Proba(features []float64) ([]float64, error) {
	if !m.calibrated {
		return nil, errNotCalibrated
	}
	p, err := m.posterior(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

var errNotCalibrated = fmt.Errorf("model is not calibrated")

func (m *Logistic) posterior(features []float64) (float64, error) {
	if len(features) != len(m.coef) {
		return 0, fmt.Errorf("feature width %d != model width %d", len(features), len(m.coef))
	}

	z := m.intercept
	for i, f := range features {
		if len(m.scale) != 0 && m.scale[i] != 0 {
			f /= m.scale[i]
		}
		z += m.coef[i] * f
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

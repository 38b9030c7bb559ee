package triage

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sentinel/internal/triage")

// Classifier is the interface for any opaque binary scoring model.
// Predict returns the class label (1 = laundering). Proba returns the class
// posterior probabilities when the model is calibrated; implementations that
// cannot provide probabilities return ErrNoProba.
type Classifier interface {
	Predict(features []float64) (int, error)
	Proba(features []float64) ([]float64, error)
	Ready() bool
}

// ErrNoProba is returned by Classifier.Proba when the underlying model does
// not expose calibrated probabilities. The adapter falls back to fixed
// confidence values.
var ErrNoProba = fmt.Errorf("classifier: probabilities not available")

// Fallback confidence when the model has no calibrated probabilities.
const (
	fallbackConfidenceSuspicious = 0.8
	fallbackConfidenceClean      = 0.2
)

// Adapter wraps a Classifier behind the stable scoring contract: it
// normalizes input width, derives the verdict, and converts every scoring
// failure into an error verdict instead of letting it escape.
type Adapter struct {
	model Classifier
}

// NewAdapter wraps the given model. The model is loaded by the caller at
// startup so a missing weights file fails fast there, not at score time.
func NewAdapter(model Classifier) *Adapter {
	return &Adapter{model: model}
}

// Ready reports whether a usable model is attached.
func (a *Adapter) Ready() bool {
	return a.model != nil && a.model.Ready()
}

// Score classifies a feature vector. It never panics and never returns an
// error: scoring failures come back as a Verdict with Err set, Suspicious
// false, and zero confidence. Input of the wrong width is padded with zeros
// or truncated to NumFeatures rather than rejected.
func (a *Adapter) Score(raw []float64) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Err: fmt.Sprintf("model panic: %v", r)}
		}
	}()

	if !a.Ready() {
		return Verdict{Err: "model not loaded"}
	}

	features := normalize(raw)

	label, err := a.model.Predict(features)
	if err != nil {
		return Verdict{Err: fmt.Sprintf("predict: %v", err)}
	}

	suspicious := label == 1

	confidence := fallbackConfidenceClean
	if suspicious {
		confidence = fallbackConfidenceSuspicious
	}
	if probs, err := a.model.Proba(features); err == nil && len(probs) > 0 {
		confidence = maxProb(probs)
	}

	return Verdict{
		Suspicious: suspicious,
		Confidence: confidence,
		Label:      label,
	}
}

// normalize pads or truncates to exactly NumFeatures to tolerate upstream
// drift between codec and model versions.
func normalize(features []float64) []float64 {
	out := make([]float64, NumFeatures)
	copy(out, features)
	return out
}

func maxProb(probs []float64) float64 {
	m := probs[0]
	for _, p := range probs[1:] {
		if p > m {
			m = p
		}
	}
	return m
}

// scoreAttrs builds span attributes describing a verdict.
func scoreAttrs(v Verdict) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("sentinel.verdict.suspicious", v.Suspicious),
		attribute.Float64("sentinel.verdict.confidence", v.Confidence),
		attribute.Bool("sentinel.verdict.error", v.Err != ""),
	}
}

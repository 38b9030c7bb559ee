package triage

import "time"

// Transaction is a single inter-bank payment as ingested into the store.
// Records are immutable once inserted except for the Processed flag, which
// flips false -> true exactly once when a triage cycle finishes with it.
type Transaction struct {
	ID            string    `json:"id"`
	OriginBank    string    `json:"origin_bank"`
	OriginAccount string    `json:"origin_account"`
	DestBank      string    `json:"dest_bank"`
	DestAccount   string    `json:"dest_account"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Format        string    `json:"format"`
	CreatedAt     time.Time `json:"created_at"`
	Processed     bool      `json:"processed"`
}

// FeatureVector is the fixed-width numeric encoding of one Transaction,
// in the exact column order the classifier was trained on.
type FeatureVector [NumFeatures]float64

// NumFeatures is the input width the classifier expects.
const NumFeatures = 7

// Verdict is the classifier's determination for one transaction.
type Verdict struct {
	Suspicious bool    `json:"suspicious"`
	Confidence float64 `json:"confidence"`
	Label      int     `json:"label"`
	Err        string  `json:"error,omitempty"`
}

// RiskLevel buckets a verdict's confidence for reviewer prioritisation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskFromConfidence maps classifier confidence to a risk tier.
// The boundary at 0.8 is exclusive: exactly 0.8 is MEDIUM.
func RiskFromConfidence(confidence float64) RiskLevel {
	switch {
	case confidence > 0.8:
		return RiskHigh
	case confidence > 0.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ReportStatus tracks where an investigation report is in its review lifecycle.
type ReportStatus string

// StatusPendingReview is the only status the pipeline assigns; reviewers own
// everything after that.
const StatusPendingReview ReportStatus = "PENDING_REVIEW"

// Report is the investigation packet filed for a suspicious transaction.
// Persisted once, never mutated by the pipeline.
type Report struct {
	ID            string        `json:"id"`
	Account       string        `json:"account"`
	TransactionID string        `json:"transaction_id"`
	Verdict       Verdict       `json:"verdict"`
	History       []Transaction `json:"history,omitempty"`
	Narrative     string        `json:"narrative"`
	Status        ReportStatus  `json:"status"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	CreatedAt     time.Time     `json:"created_at"`
}

// State identifies where a triage cycle is in its progression.
type State string

const (
	// StateAwaiting means the cycle has not yet claimed a transaction.
	StateAwaiting State = "awaiting_transaction"

	// StateScored means the claimed transaction has a verdict.
	StateScored State = "scored"

	// StateInvestigating means history is being gathered and a report assembled.
	StateInvestigating State = "investigating"

	// StateReported means an investigation report was persisted.
	StateReported State = "reported"

	// StateClean means the verdict was not suspicious and no report exists.
	StateClean State = "clean"

	// StateDone is the terminal state for every cycle that claimed a transaction.
	StateDone State = "done"
)

// CycleResult is the outcome of one triage cycle. Component failures are
// captured here rather than returned as errors so a continuous driver never
// crashes on a single bad transaction; only store-unavailable conditions
// surface as errors from RunCycle.
type CycleResult struct {
	State          State        `json:"state"`
	HasTransaction bool         `json:"has_transaction"`
	Transaction    *Transaction `json:"transaction,omitempty"`
	Verdict        *Verdict     `json:"verdict,omitempty"`
	Report         *Report      `json:"report,omitempty"`
	Err            string       `json:"error,omitempty"`
	Duration       float64      `json:"duration_seconds,omitempty"`
}

// Stats summarises store contents for the operational surface.
type Stats struct {
	TotalTransactions int `json:"total_transactions"`
	Processed         int `json:"processed"`
	Unprocessed       int `json:"unprocessed"`
	Reports           int `json:"reports"`
}

package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const noHistoryText = "No transaction history available."

// Reporter assembles investigation reports for suspicious transactions and
// persists them. Narrative generation is delegated to a Narrator; a narrator
// failure degrades to a placeholder narrative rather than dropping the
// report, because the suspicious determination itself must not be lost.
type Reporter struct {
	narrator Narrator
	store    Store
	metrics  *Metrics
	logger   log.Logger
}

// NewReporter creates a report assembler. metrics may be nil.
func NewReporter(narrator Narrator, store Store, metrics *Metrics, logger log.Logger) *Reporter {
	if logger == nil {
		logger = log.Nop()
	}
	return &Reporter{
		narrator: narrator,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// CompileAndPersist builds the investigation packet for tx, generates the
// narrative, and persists the report. The returned report carries the
// store-assigned ID. An error is returned only when the store rejects the
// insert; narrator failures are absorbed into the narrative text.
func (r *Reporter) CompileAndPersist(ctx context.Context, tx *Transaction, verdict Verdict, history []Transaction) (*Report, error) {
	ctx, span := tracer.Start(ctx, "report.compile", trace.WithAttributes(
		attribute.String("sentinel.transaction.id", tx.ID),
		attribute.String("sentinel.account", tx.OriginAccount),
		attribute.Int("sentinel.history.len", len(history)),
	))
	defer span.End()

	genStart := time.Now()
	narrative, err := r.narrator.Generate(ctx, systemPrompt, buildReportPrompt(tx, verdict, history))
	if r.metrics != nil {
		r.metrics.NarratorDuration.Observe(time.Since(genStart).Seconds())
		if err != nil {
			r.metrics.NarratorErrors.Inc()
		}
	}
	if err != nil {
		r.logger.Error(ctx, err, "narrative generation failed",
			"transaction_id", tx.ID,
			"account", tx.OriginAccount,
		)
		narrative = fmt.Sprintf("Narrative generation unavailable: %v. Report filed on classifier verdict alone (confidence %.2f).", err, verdict.Confidence)
	}

	report := &Report{
		Account:       tx.OriginAccount,
		TransactionID: tx.ID,
		Verdict:       verdict,
		History:       history,
		Narrative:     narrative,
		Status:        StatusPendingReview,
		RiskLevel:     RiskFromConfidence(verdict.Confidence),
		CreatedAt:     time.Now().UTC(),
	}

	saved, err := r.store.InsertReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	r.logger.Info(ctx, "investigation report filed",
		"report_id", saved.ID,
		"transaction_id", tx.ID,
		"account", tx.OriginAccount,
		"risk_level", saved.RiskLevel,
		"history_len", len(history),
	)
	return saved, nil
}

const systemPrompt = `You are a financial crime analyst generating Suspicious Activity Reports (SARs).
Analyze the provided transaction data and produce a professional report covering:
1. Executive summary and key risk indicators
2. Account holder activity patterns
3. Description of the suspicious activity and its timeline
4. Red flags: payment format risks, amount patterns, cross-bank movement, model confidence
5. Regulatory implications and recommended actions

Be thorough, specific, and objective. This goes to a compliance review queue.`

// buildReportPrompt renders the flagged transaction, verdict, and historical
// context as the user payload for the narrator. Output is deterministic for
// a given input so report generation is reproducible in tests.
func buildReportPrompt(tx *Transaction, verdict Verdict, history []Transaction) string {
	var b strings.Builder

	b.WriteString("SUSPICIOUS ACTIVITY DETECTED\n\n")
	b.WriteString("Flagged transaction:\n")
	writeTransaction(&b, tx)
	fmt.Fprintf(&b, "- Model confidence: %.2f%%\n", verdict.Confidence*100)

	fmt.Fprintf(&b, "\nHistorical activity for account %s (last %d transactions, most recent first):\n", tx.OriginAccount, len(history))
	if len(history) == 0 {
		b.WriteString(noHistoryText + "\n")
	}
	for i := range history {
		fmt.Fprintf(&b, "\nTransaction %d:\n", i+1)
		writeTransaction(&b, &history[i])
	}

	b.WriteString("\nGenerate the Suspicious Activity Report.\n")
	return b.String()
}

func writeTransaction(b *strings.Builder, tx *Transaction) {
	fmt.Fprintf(b, "- From: %s / %s\n", orUnknown(tx.OriginBank), orUnknown(tx.OriginAccount))
	fmt.Fprintf(b, "- To: %s / %s\n", orUnknown(tx.DestBank), orUnknown(tx.DestAccount))
	fmt.Fprintf(b, "- Amount received: %.2f %s\n", tx.Amount, orDefault(tx.Currency, "USD"))
	fmt.Fprintf(b, "- Payment format: %s\n", orUnknown(tx.Format))
	if !tx.CreatedAt.IsZero() {
		fmt.Fprintf(b, "- Timestamp: %s\n", tx.CreatedAt.UTC().Format(time.RFC3339))
	}
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

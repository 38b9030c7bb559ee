package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"go.opentelemetry.io/otel/attribute"
)

// Notifier delivers a filed report to an external channel. Delivery is
// best-effort; the pipeline never fails a cycle on a notification error.
type Notifier interface {
	Send(ctx context.Context, report *Report) error
}

// Machine runs triage cycles: claim one unprocessed transaction, encode it,
// score it, branch on the verdict, and file a report when warranted. Every
// cycle that claims a transaction leaves it processed, whatever else fails;
// a permanently broken transaction must never block the queue.
type Machine struct {
	store    Store
	adapter  *Adapter
	history  *Aggregator
	reporter *Reporter
	metrics  *Metrics
	logger   log.Logger
	lookback int
	notifier Notifier
}

// NewMachine wires the triage state machine. metrics may be nil.
func NewMachine(store Store, adapter *Adapter, history *Aggregator, reporter *Reporter, metrics *Metrics, logger log.Logger, lookback int) *Machine {
	if logger == nil {
		logger = log.Nop()
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Machine{
		store:    store,
		adapter:  adapter,
		history:  history,
		reporter: reporter,
		metrics:  metrics,
		logger:   logger,
		lookback: lookback,
	}
}

// SetNotifier attaches an optional notifier invoked after each filed report.
func (m *Machine) SetNotifier(n Notifier) {
	m.notifier = n
}

// RunCycle processes at most one transaction start to finish. An empty queue
// returns HasTransaction=false and no error. The only errors returned are
// store failures during the claim, which mutate nothing; everything after a
// successful claim is captured in the CycleResult.
func (m *Machine) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "triage.cycle")
	defer span.End()

	res := &CycleResult{State: StateAwaiting}

	tx, ok, err := m.store.ClaimNext(ctx)
	if err != nil {
		m.observe(res, start, "store_error")
		return nil, fmt.Errorf("claim next transaction: %w", err)
	}
	if !ok {
		m.observe(res, start, "idle")
		return res, nil
	}

	res.HasTransaction = true
	res.Transaction = tx
	span.SetAttributes(
		attribute.String("sentinel.transaction.id", tx.ID),
		attribute.String("sentinel.account", tx.OriginAccount),
	)

	L := m.logger.With("transaction_id", tx.ID, "account", tx.OriginAccount)

	features := EncodeFeatures(tx)
	verdict := m.adapter.Score(features[:])
	res.Verdict = &verdict
	res.State = StateScored
	span.SetAttributes(scoreAttrs(verdict)...)

	if verdict.Err != "" {
		// Attempted-once semantics: record the failure and retire the
		// transaction so it cannot poison the queue.
		L.Warn(ctx, "scoring failed", "error", verdict.Err)
		res.Err = verdict.Err
		m.finish(ctx, res, tx, L)
		m.observe(res, start, "score_error")
		return res, nil
	}

	if !verdict.Suspicious {
		res.State = StateClean
		L.Info(ctx, "transaction clean", "confidence", verdict.Confidence)
		m.finish(ctx, res, tx, L)
		m.observe(res, start, "clean")
		return res, nil
	}

	res.State = StateInvestigating
	L.Info(ctx, "transaction flagged suspicious", "confidence", verdict.Confidence)

	history, err := m.history.Recent(ctx, tx.OriginAccount, tx.ID, m.lookback)
	if err != nil {
		// Degraded context is better than a dropped investigation.
		L.Error(ctx, err, "history aggregation failed")
		history = nil
	}

	report, err := m.reporter.CompileAndPersist(ctx, tx, verdict, history)
	if err != nil {
		L.Error(ctx, err, "report persistence failed")
		res.Err = err.Error()
		m.finish(ctx, res, tx, L)
		m.observe(res, start, "report_error")
		return res, nil
	}

	res.Report = report
	res.State = StateReported
	if m.notifier != nil {
		if err := m.notifier.Send(ctx, report); err != nil {
			L.Warn(ctx, "report notification failed", "error", err)
		}
	}
	m.finish(ctx, res, tx, L)
	m.observe(res, start, "reported")
	return res, nil
}

// finish marks the transaction processed and moves the cycle to its terminal
// state. ClaimNext already flipped the flag atomically; this re-mark is
// idempotent and keeps attempted-once semantics explicit on every exit path.
func (m *Machine) finish(ctx context.Context, res *CycleResult, tx *Transaction, L log.Logger) {
	if err := m.store.MarkProcessed(ctx, tx.ID); err != nil {
		L.Error(ctx, err, "mark processed failed")
		if res.Err == "" {
			res.Err = fmt.Sprintf("mark processed: %v", err)
		}
	}
	tx.Processed = true
	// Reported and Clean are informative enough to keep as terminal states;
	// any other path (scoring or persistence failure) is simply done.
	if res.State != StateReported && res.State != StateClean {
		res.State = StateDone
	}
}

func (m *Machine) observe(res *CycleResult, start time.Time, outcome string) {
	res.Duration = time.Since(start).Seconds()
	if m.metrics != nil {
		m.metrics.ObserveCycle(outcome, res)
	}
}

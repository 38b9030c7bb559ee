package triage

import "context"

// Store is the persistence interface for transactions and investigation
// reports. Implementations must index transactions by account and by the
// processed flag so polling stays cheap.
type Store interface {
	// InsertTransaction stores a new unprocessed transaction and returns it
	// with the store-assigned ID populated.
	InsertTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)

	// ClaimNext atomically selects the oldest unprocessed transaction and
	// marks it processed in a single conditional update, so two concurrent
	// cycles can never claim the same transaction. ok=false means the queue
	// is drained; that is not an error.
	ClaimNext(ctx context.Context) (tx *Transaction, ok bool, err error)

	// MarkProcessed sets processed=true for the given transaction.
	// Idempotent: marking an already-processed transaction is a no-op.
	MarkProcessed(ctx context.Context, id string) error

	// RecentByAccount returns up to limit transactions originating from the
	// account, most recent first by creation time. Unknown accounts yield an
	// empty slice, not an error.
	RecentByAccount(ctx context.Context, account string, limit int) ([]Transaction, error)

	// InsertReport persists an investigation report and returns it with the
	// store-assigned ID populated.
	InsertReport(ctx context.Context, r *Report) (*Report, error)

	// GetReport retrieves a report by ID.
	GetReport(ctx context.Context, id string) (*Report, bool, error)

	// ListReports returns all persisted reports, newest first.
	ListReports(ctx context.Context) ([]Report, error)

	// Stats reports processing counters.
	Stats(ctx context.Context) (*Stats, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

package triage

import (
	"context"
	"fmt"
)

// DefaultLookback is how many prior transactions the aggregator fetches when
// the caller does not specify a limit.
const DefaultLookback = 10

// Aggregator retrieves historical context for an account under investigation.
// Read-only over the store.
type Aggregator struct {
	store Store
}

// NewAggregator creates a history aggregator backed by the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Recent returns up to limit transactions for the account, most recent first,
// excluding the transaction currently being triaged. An account with no
// history yields an empty slice. limit <= 0 uses DefaultLookback.
func (a *Aggregator) Recent(ctx context.Context, account, excludeTxID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultLookback
	}

	// Over-fetch by one so excluding the current transaction still fills the
	// requested window.
	rows, err := a.store.RecentByAccount(ctx, account, limit+1)
	if err != nil {
		return nil, fmt.Errorf("recent by account: %w", err)
	}

	out := make([]Transaction, 0, limit)
	for _, tx := range rows {
		if tx.ID == excludeTxID {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

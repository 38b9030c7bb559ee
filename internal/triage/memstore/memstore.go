// Package memstore provides an in-memory implementation of triage.Store.
// Suitable for dev/testing; the claim path holds the write lock so the
// at-most-one-worker-per-transaction guarantee carries over.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

// Store holds transactions and reports in memory.
type Store struct {
	mu        sync.RWMutex
	txs       map[string]*triage.Transaction
	order     []string // insertion order, drives claim ordering
	byAccount map[string][]string
	reports   map[string]*triage.Report
	repOrder  []string
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{
		txs:       make(map[string]*triage.Transaction),
		byAccount: make(map[string][]string),
		reports:   make(map[string]*triage.Report),
	}
}

// InsertTransaction stores a copy of tx with a fresh ID and Processed=false.
func (s *Store) InsertTransaction(_ context.Context, tx *triage.Transaction) (*triage.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	cp.ID = ulid.Make().String()
	cp.Processed = false
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	s.txs[cp.ID] = &cp
	s.order = append(s.order, cp.ID)
	s.byAccount[cp.OriginAccount] = append(s.byAccount[cp.OriginAccount], cp.ID)

	out := cp
	return &out, nil
}

// ClaimNext atomically takes the oldest unprocessed transaction and marks it
// processed under the write lock, so concurrent claimers never overlap.
func (s *Store) ClaimNext(_ context.Context) (*triage.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		tx := s.txs[id]
		if tx.Processed {
			continue
		}
		tx.Processed = true
		cp := *tx
		// The caller sees the claimed transaction as still in flight.
		cp.Processed = false
		return &cp, true, nil
	}
	return nil, false, nil
}

// MarkProcessed flips the processed flag. Idempotent; unknown IDs are a no-op
// to match the conditional-update semantics of the SQL implementation.
func (s *Store) MarkProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx, ok := s.txs[id]; ok {
		tx.Processed = true
	}
	return nil
}

// RecentByAccount returns up to limit transactions originating from the
// account, most recent first. Returns copies.
func (s *Store) RecentByAccount(_ context.Context, account string, limit int) ([]triage.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAccount[account]
	out := make([]triage.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.txs[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertReport stores a copy of r with a fresh ID.
func (s *Store) InsertReport(_ context.Context, r *triage.Report) (*triage.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	cp.ID = ulid.Make().String()
	s.reports[cp.ID] = &cp
	s.repOrder = append(s.repOrder, cp.ID)

	out := cp
	return &out, nil
}

// GetReport retrieves a report by its ID. Returns a copy.
func (s *Store) GetReport(_ context.Context, id string) (*triage.Report, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// ListReports returns all reports, newest first.
func (s *Store) ListReports(_ context.Context) ([]triage.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]triage.Report, 0, len(s.repOrder))
	for i := len(s.repOrder) - 1; i >= 0; i-- {
		out = append(out, *s.reports[s.repOrder[i]])
	}
	return out, nil
}

// Stats reports processing counters.
func (s *Store) Stats(_ context.Context) (*triage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &triage.Stats{
		TotalTransactions: len(s.txs),
		Reports:           len(s.reports),
	}
	for _, tx := range s.txs {
		if tx.Processed {
			st.Processed++
		} else {
			st.Unprocessed++
		}
	}
	return st, nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

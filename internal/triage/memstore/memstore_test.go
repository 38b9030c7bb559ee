package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

func TestInsertTransaction_AssignsID(t *testing.T) {
	t.Parallel()

	s := New()
	tx, err := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1", Amount: 100})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if tx.ID == "" {
		t.Error("expected assigned ID")
	}
	if tx.Processed {
		t.Error("new transaction must start unprocessed")
	}
	if tx.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestClaimNext_OldestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	first, _ := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1"})
	second, _ := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC2"})

	got, ok, err := s.ClaimNext(context.Background())
	if err != nil || !ok {
		t.Fatalf("ClaimNext: ok=%v err=%v", ok, err)
	}
	if got.ID != first.ID {
		t.Errorf("claimed %q, want oldest %q", got.ID, first.ID)
	}

	got, ok, _ = s.ClaimNext(context.Background())
	if !ok || got.ID != second.ID {
		t.Errorf("second claim = %v/%v, want %q", got, ok, second.ID)
	}

	if _, ok, _ := s.ClaimNext(context.Background()); ok {
		t.Error("drained queue should return ok=false")
	}
}

func TestClaimNext_AtMostOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	s := New()
	const total = 200
	for i := 0; i < total; i++ {
		if _, err := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1"}); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				tx, ok, err := s.ClaimNext(context.Background())
				if err != nil {
					t.Errorf("ClaimNext: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				seen[tx.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Errorf("claimed %d distinct transactions, want %d", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("transaction %s claimed %d times, want exactly once", id, n)
		}
	}
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	t.Parallel()

	s := New()
	tx, _ := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1"})

	for i := 0; i < 3; i++ {
		if err := s.MarkProcessed(context.Background(), tx.ID); err != nil {
			t.Fatalf("MarkProcessed call %d: %v", i, err)
		}
	}

	stats, _ := s.Stats(context.Background())
	if stats.Processed != 1 {
		t.Errorf("processed = %d, want 1 after repeated marks", stats.Processed)
	}

	// Unknown IDs are a no-op, matching the conditional SQL update.
	if err := s.MarkProcessed(context.Background(), "no-such-id"); err != nil {
		t.Errorf("MarkProcessed unknown id: %v", err)
	}
}

func TestRecentByAccount_OrderAndLimit(t *testing.T) {
	t.Parallel()

	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.InsertTransaction(context.Background(), &triage.Transaction{
			OriginAccount: "ACC1",
			Amount:        float64(i),
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC-other", CreatedAt: base})

	got, err := s.RecentByAccount(context.Background(), "ACC1", 3)
	if err != nil {
		t.Fatalf("RecentByAccount: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Error("expected most recent first")
		}
	}
	if got[0].Amount != 4 {
		t.Errorf("newest amount = %v, want 4", got[0].Amount)
	}
}

func TestRecentByAccount_UnknownAccount(t *testing.T) {
	t.Parallel()

	got, err := New().RecentByAccount(context.Background(), "ACC-missing", 10)
	if err != nil {
		t.Fatalf("RecentByAccount: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestReports_RoundTrip(t *testing.T) {
	t.Parallel()

	s := New()
	saved, err := s.InsertReport(context.Background(), &triage.Report{
		Account:       "ACC1",
		TransactionID: "tx-1",
		Narrative:     "n",
		Status:        triage.StatusPendingReview,
		RiskLevel:     triage.RiskHigh,
	})
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected assigned report ID")
	}

	got, ok, err := s.GetReport(context.Background(), saved.ID)
	if err != nil || !ok {
		t.Fatalf("GetReport: ok=%v err=%v", ok, err)
	}
	if got.Account != "ACC1" || got.Status != triage.StatusPendingReview {
		t.Errorf("report = %+v", got)
	}

	if _, ok, _ := s.GetReport(context.Background(), "missing"); ok {
		t.Error("unknown report ID should return ok=false")
	}
}

func TestListReports_NewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	a, _ := s.InsertReport(context.Background(), &triage.Report{Account: "A"})
	b, _ := s.InsertReport(context.Background(), &triage.Report{Account: "B"})

	got, err := s.ListReports(context.Background())
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("order = %s, %s; want newest first", got[0].ID, got[1].ID)
	}
}

func TestStats_Counters(t *testing.T) {
	t.Parallel()

	s := New()
	s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1"})
	s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC2"})
	s.ClaimNext(context.Background())
	s.InsertReport(context.Background(), &triage.Report{})

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTransactions != 2 || stats.Processed != 1 || stats.Unprocessed != 1 || stats.Reports != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestInsertTransaction_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	tx, _ := s.InsertTransaction(context.Background(), &triage.Transaction{OriginAccount: "ACC1"})

	// Mutating the returned value must not leak into the store.
	tx.Amount = 999999

	got, _, _ := s.ClaimNext(context.Background())
	if got.Amount == 999999 {
		t.Error("store state mutated through returned transaction")
	}
}

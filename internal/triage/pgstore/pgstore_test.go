package pgstore_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/sentinel/internal/postgres"
	"github.com/linnemanlabs/sentinel/internal/triage"
	"github.com/linnemanlabs/sentinel/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("SENTINEL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SENTINEL_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestInsertAndClaim(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	tx, err := s.InsertTransaction(ctx, &triage.Transaction{
		OriginBank:    "Bank_A",
		OriginAccount: "ACC00000001",
		DestBank:      "Bank_B",
		DestAccount:   "ACC00000002",
		Amount:        9500,
		Currency:      "USD",
		Format:        "WIRE",
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected assigned ID")
	}
	if tx.Processed {
		t.Error("new transaction must start unprocessed")
	}

	// Drain until we find our row; other tests may have queued work.
	for {
		got, ok, err := s.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("ClaimNext: %v", err)
		}
		if !ok {
			t.Fatal("queue drained without yielding the inserted transaction")
		}
		if got.ID != tx.ID {
			continue
		}
		assertEqual(t, "OriginBank", tx.OriginBank, got.OriginBank)
		assertEqual(t, "OriginAccount", tx.OriginAccount, got.OriginAccount)
		assertEqual(t, "DestBank", tx.DestBank, got.DestBank)
		assertEqual(t, "DestAccount", tx.DestAccount, got.DestAccount)
		assertEqual(t, "Amount", tx.Amount, got.Amount)
		assertEqual(t, "Currency", tx.Currency, got.Currency)
		assertEqual(t, "Format", tx.Format, got.Format)
		break
	}
}

func TestClaimNext_AtMostOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	const total = 50
	inserted := make(map[string]bool, total)
	for i := 0; i < total; i++ {
		tx, err := s.InsertTransaction(ctx, &triage.Transaction{
			OriginAccount: "ACC-concurrency-test",
			Amount:        float64(i),
		})
		if err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
		inserted[tx.ID] = true
	}

	var mu sync.Mutex
	claims := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				tx, ok, err := s.ClaimNext(ctx)
				if err != nil {
					t.Errorf("ClaimNext: %v", err)
					return
				}
				if !ok {
					return
				}
				if inserted[tx.ID] {
					mu.Lock()
					claims[tx.ID]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if len(claims) != total {
		t.Errorf("claimed %d of our transactions, want %d", len(claims), total)
	}
	for id, n := range claims {
		if n != 1 {
			t.Errorf("transaction %s claimed %d times, want exactly once", id, n)
		}
	}
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tx, err := s.InsertTransaction(ctx, &triage.Transaction{OriginAccount: "ACC-mark"})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.MarkProcessed(ctx, tx.ID); err != nil {
			t.Fatalf("MarkProcessed call %d: %v", i, err)
		}
	}
	if err := s.MarkProcessed(ctx, "no-such-id"); err != nil {
		t.Errorf("MarkProcessed unknown id: %v", err)
	}
}

func TestRecentByAccount(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	account := "ACC-recent-" + time.Now().Format("150405.000")
	base := time.Now().Add(-time.Hour).Truncate(time.Microsecond).UTC()
	for i := 0; i < 5; i++ {
		_, err := s.InsertTransaction(ctx, &triage.Transaction{
			OriginAccount: account,
			Amount:        float64(i),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	got, err := s.RecentByAccount(ctx, account, 3)
	if err != nil {
		t.Fatalf("RecentByAccount: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Amount != 4 {
		t.Errorf("newest amount = %v, want 4", got[0].Amount)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Error("expected most recent first")
		}
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	saved, err := s.InsertReport(ctx, &triage.Report{
		Account:       "ACC-report",
		TransactionID: "tx-report-1",
		Verdict:       triage.Verdict{Suspicious: true, Confidence: 0.93, Label: 1},
		History: []triage.Transaction{
			{ID: "h1", OriginAccount: "ACC-report", Amount: 9900},
		},
		Narrative: "Structured deposits just below the reporting threshold.",
		Status:    triage.StatusPendingReview,
		RiskLevel: triage.RiskHigh,
		CreatedAt: time.Now().Truncate(time.Microsecond).UTC(),
	})
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected assigned report ID")
	}

	got, ok, err := s.GetReport(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if !ok {
		t.Fatal("GetReport returned ok=false, want true")
	}

	assertEqual(t, "Account", saved.Account, got.Account)
	assertEqual(t, "TransactionID", saved.TransactionID, got.TransactionID)
	assertEqual(t, "Suspicious", saved.Verdict.Suspicious, got.Verdict.Suspicious)
	assertEqual(t, "Confidence", saved.Verdict.Confidence, got.Verdict.Confidence)
	assertEqual(t, "Label", saved.Verdict.Label, got.Verdict.Label)
	assertEqual(t, "Narrative", saved.Narrative, got.Narrative)
	assertEqual(t, "Status", string(saved.Status), string(got.Status))
	assertEqual(t, "RiskLevel", string(saved.RiskLevel), string(got.RiskLevel))

	if len(got.History) != 1 || got.History[0].Amount != 9900 {
		t.Errorf("History mismatch: got %v", got.History)
	}

	if _, ok, _ := s.GetReport(ctx, "missing"); ok {
		t.Error("unknown report ID should return ok=false")
	}
}

func TestStatsAndPing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTransactions != stats.Processed+stats.Unprocessed {
		t.Errorf("stats inconsistent: %+v", stats)
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}

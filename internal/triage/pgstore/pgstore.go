// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sentinel/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists transactions and investigation reports in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema to the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const txColumns = `id, origin_bank, origin_account, dest_bank, dest_account,
	amount, currency, format, created_at, processed`

// InsertTransaction stores a new unprocessed transaction.
func (s *Store) InsertTransaction(ctx context.Context, tx *triage.Transaction) (*triage.Transaction, error) {
	ctx, span := s.startSpan(ctx, "pgstore.InsertTransaction", "INSERT")
	defer span.End()

	cp := *tx
	cp.ID = ulid.Make().String()
	cp.Processed = false
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, origin_bank, origin_account, dest_bank, dest_account,
			amount, currency, format, created_at, processed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE)`,
		cp.ID, cp.OriginBank, cp.OriginAccount, cp.DestBank, cp.DestAccount,
		cp.Amount, cp.Currency, cp.Format, cp.CreatedAt,
	)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("insert transaction: %w", err))
	}
	return &cp, nil
}

// ClaimNext marks the oldest unprocessed transaction processed and returns it.
// The claim is a single conditional update: SKIP LOCKED guarantees two
// concurrent claimers never receive the same row.
func (s *Store) ClaimNext(ctx context.Context) (*triage.Transaction, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ClaimNext", "UPDATE")
	defer span.End()

	query := `UPDATE transactions SET processed = TRUE
		WHERE id = (
			SELECT id FROM transactions
			WHERE NOT processed
			ORDER BY created_at, id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + txColumns

	tx, err := scanTransaction(s.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if tx == nil {
		return nil, false, nil
	}

	// ClaimNext returns the row as it was handed to the cycle: claimed but
	// not yet finished. The processed column is already true in the store.
	tx.Processed = false
	return tx, true, nil
}

// MarkProcessed sets processed=true. Idempotent; unknown IDs are a no-op.
func (s *Store) MarkProcessed(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "pgstore.MarkProcessed", "UPDATE")
	defer span.End()

	if _, err := s.pool.Exec(ctx,
		`UPDATE transactions SET processed = TRUE WHERE id = $1`, id); err != nil {
		return s.fail(span, fmt.Errorf("mark processed: %w", err))
	}
	return nil
}

// RecentByAccount returns up to limit transactions originating from the
// account, most recent first.
func (s *Store) RecentByAccount(ctx context.Context, account string, limit int) ([]triage.Transaction, error) {
	ctx, span := s.startSpan(ctx, "pgstore.RecentByAccount", "SELECT")
	defer span.End()

	query := `SELECT ` + txColumns + ` FROM transactions
		WHERE origin_account = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, account, limit)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query recent: %w", err))
	}
	defer rows.Close()

	var out []triage.Transaction
	for rows.Next() {
		var tx triage.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.OriginBank, &tx.OriginAccount, &tx.DestBank, &tx.DestAccount,
			&tx.Amount, &tx.Currency, &tx.Format, &tx.CreatedAt, &tx.Processed,
		); err != nil {
			return nil, s.fail(span, fmt.Errorf("scan transaction: %w", err))
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, fmt.Errorf("iterate transactions: %w", err))
	}
	if out == nil {
		out = []triage.Transaction{}
	}
	return out, nil
}

// InsertReport persists an investigation report.
func (s *Store) InsertReport(ctx context.Context, r *triage.Report) (*triage.Report, error) {
	ctx, span := s.startSpan(ctx, "pgstore.InsertReport", "INSERT")
	defer span.End()

	cp := *r
	cp.ID = ulid.Make().String()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	historyJSON, err := json.Marshal(cp.History)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("marshal history: %w", err))
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, account, transaction_id, suspicious, confidence, label,
			verdict_error, history, narrative, status, risk_level, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		cp.ID, cp.Account, cp.TransactionID, cp.Verdict.Suspicious, cp.Verdict.Confidence,
		cp.Verdict.Label, cp.Verdict.Err, historyJSON, cp.Narrative,
		string(cp.Status), string(cp.RiskLevel), cp.CreatedAt,
	)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("insert report: %w", err))
	}
	return &cp, nil
}

const reportColumns = `id, account, transaction_id, suspicious, confidence, label,
	verdict_error, history, narrative, status, risk_level, created_at`

// GetReport retrieves a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*triage.Report, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.GetReport", "SELECT")
	defer span.End()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	r, err := scanReport(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// ListReports returns all reports, newest first.
func (s *Store) ListReports(ctx context.Context) ([]triage.Report, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListReports", "SELECT")
	defer span.End()

	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query reports: %w", err))
	}
	defer rows.Close()

	var out []triage.Report
	for rows.Next() {
		r, err := scanReportRow(rows)
		if err != nil {
			return nil, s.fail(span, err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, fmt.Errorf("iterate reports: %w", err))
	}
	if out == nil {
		out = []triage.Report{}
	}
	return out, nil
}

// Stats reports processing counters.
func (s *Store) Stats(ctx context.Context) (*triage.Stats, error) {
	ctx, span := s.startSpan(ctx, "pgstore.Stats", "SELECT")
	defer span.End()

	var st triage.Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM transactions),
			(SELECT count(*) FROM transactions WHERE processed),
			(SELECT count(*) FROM transactions WHERE NOT processed),
			(SELECT count(*) FROM reports)`,
	).Scan(&st.TotalTransactions, &st.Processed, &st.Unprocessed, &st.Reports)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("stats: %w", err))
	}
	return &st, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func (s *Store) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// scanTransaction scans a single transaction row. Returns (nil, nil) when no
// row is found.
func scanTransaction(row pgx.Row) (*triage.Transaction, error) {
	var tx triage.Transaction
	err := row.Scan(
		&tx.ID, &tx.OriginBank, &tx.OriginAccount, &tx.DestBank, &tx.DestAccount,
		&tx.Amount, &tx.Currency, &tx.Format, &tx.CreatedAt, &tx.Processed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &tx, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReportRow(row rowScanner) (*triage.Report, error) {
	var (
		r           triage.Report
		status      string
		riskLevel   string
		historyJSON []byte
	)
	err := row.Scan(
		&r.ID, &r.Account, &r.TransactionID, &r.Verdict.Suspicious, &r.Verdict.Confidence,
		&r.Verdict.Label, &r.Verdict.Err, &historyJSON, &r.Narrative,
		&status, &riskLevel, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.Status = triage.ReportStatus(status)
	r.RiskLevel = triage.RiskLevel(riskLevel)
	if err := json.Unmarshal(historyJSON, &r.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &r, nil
}

// scanReport scans a single report row. Returns (nil, nil) when no row is found.
func scanReport(row pgx.Row) (*triage.Report, error) {
	r, err := scanReportRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

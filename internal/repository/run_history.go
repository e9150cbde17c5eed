package repository

import (
	"context"
	"database/sql"
	"fmt"

	"qdr/internal/domain/models"
	pkgch "qdr/pkg/clickhouse"
)

// SchemaStatements creates the run-history database and table. Fed to
// pkgch.Client.InitSchema at startup; idempotent.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.optimization_runs (
			ts DateTime,
			tickers String,
			risk_aversion Float64,
			num_slices UInt32,
			expected_return Float64,
			volatility Float64,
			sharpe_ratio Float64,
			energy Float64,
			status String,
			duration_ms UInt64
		) ENGINE=MergeTree ORDER BY ts`, database),
	}
}

// RunHistory stores optimization runs in ClickHouse.
type RunHistory struct {
	db    *sql.DB
	table string
}

// NewRunHistory creates the ClickHouse-backed run store.
func NewRunHistory(client *pkgch.Client, database string) *RunHistory {
	return &RunHistory{db: client.DB(), table: database + ".optimization_runs"}
}

// Insert writes one completed run.
func (r *RunHistory) Insert(ctx context.Context, rec models.RunRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(ts, tickers, risk_aversion, num_slices, expected_return, volatility, sharpe_ratio, energy, status, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)
	_, err := r.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.Tickers,
		rec.RiskAversion,
		uint32(rec.NumSlices),
		rec.ExpectedReturn,
		rec.Volatility,
		rec.SharpeRatio,
		rec.Energy,
		rec.Status,
		uint64(rec.DurationMS),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (r *RunHistory) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT ts, tickers, risk_aversion, num_slices, expected_return,
		volatility, sharpe_ratio, energy, status, duration_ms
		FROM %s ORDER BY ts DESC LIMIT ?`, r.table)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var slices uint32
		var duration uint64
		if err := rows.Scan(
			&rec.Timestamp,
			&rec.Tickers,
			&rec.RiskAversion,
			&slices,
			&rec.ExpectedReturn,
			&rec.Volatility,
			&rec.SharpeRatio,
			&rec.Energy,
			&rec.Status,
			&duration,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.NumSlices = int(slices)
		rec.DurationMS = int64(duration)
		out = append(out, rec)
	}
	return out, rows.Err()
}

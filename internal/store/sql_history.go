package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLHistoryReader lists run summaries with a hand-written query over a raw
// *sql.DB: some deployments point run-history reads at a read replica that
// the GORM connection pool doesn't manage, so a thin query-only reader that
// takes any *sql.DB is kept alongside GormStore rather than folded into it.
type SQLHistoryReader struct {
	db *sql.DB
}

// NewSQLHistoryReader wraps db for raw history queries.
func NewSQLHistoryReader(db *sql.DB) *SQLHistoryReader {
	return &SQLHistoryReader{db: db}
}

// ListRecent returns the limit most recent runs, newest first.
func (r *SQLHistoryReader) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT id, workflow_name, created_at, cache_hits, cache_misses
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query run history: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.WorkflowName, &s.CreatedAt, &s.CacheHits, &s.CacheMisses); err != nil {
			return nil, fmt.Errorf("store: failed to scan run history row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: run history row iteration failed: %w", err)
	}
	return out, nil
}

// CountRuns returns the total number of persisted runs.
func (r *SQLHistoryReader) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_runs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: failed to count runs: %w", err)
	}
	return count, nil
}

// Package store persists analysis-run history. Persistence is optional:
// callers that never configure a DSN get an in-memory Store via NewGormStore
// over a sqlite ":memory:" handle, or can skip the store entirely
// (ReportNode treats a nil Store as "don't persist").
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/perftree/perftree/pkg/telemetry"
)

// RunRecord is what a completed workflow run persists: the rendered
// hotspot/balance analysis records plus the caching executor's hit/miss
// counters. Hotspots and Balance are already-serialized JSON, produced by the caller
// (ReportNode marshals the analysis.Hotspot/analysis.Balance values it has
// in hand) so this package stays independent of internal/analysis.
type RunRecord struct {
	ID           string
	WorkflowName string
	CreatedAt    time.Time
	Hotspots     json.RawMessage
	Balance      json.RawMessage
	CacheHits    int
	CacheMisses  int
}

// RunSummary is the lightweight projection ListRuns returns: enough to list
// and pick a run without paying for the JSON payloads.
type RunSummary struct {
	ID           string
	WorkflowName string
	CreatedAt    time.Time
	CacheHits    int
	CacheMisses  int
}

// Store persists and retrieves analysis run records.
type Store interface {
	SaveRun(ctx context.Context, rec *RunRecord) (string, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Open opens a GORM connection at dsn and migrates the analysis_runs table.
// The driver is picked from the DSN's shape: a postgres URL or key=value
// connection string selects postgres, a mysql "user:pass@tcp(...)/" DSN
// selects mysql, and anything else (including the empty string, which means
// an in-memory database) is treated as a sqlite path. sqlite is the
// single-binary default; the networked drivers serve deployments that keep
// run history in a shared database. When tracing is enabled, the gorm
// OpenTelemetry plugin is installed so store queries appear as spans
// alongside the builder's and executors'.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}
	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("store: failed to enable tracing: %w", err)
		}
	}
	if err := db.AutoMigrate(&AnalysisRun{}); err != nil {
		return nil, fmt.Errorf("store: failed to migrate schema: %w", err)
	}
	return db, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	case strings.Contains(dsn, "@tcp("):
		return mysql.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// GormStore implements Store over a *gorm.DB.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db as a Store. Callers typically obtain db from Open.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveRun inserts rec, assigning a UUID when rec.ID is empty, and returns the
// id the record was saved under.
func (s *GormStore) SaveRun(ctx context.Context, rec *RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	row := &AnalysisRun{
		ID:           rec.ID,
		WorkflowName: rec.WorkflowName,
		Hotspots:     JSONField(rec.Hotspots),
		Balance:      JSONField(rec.Balance),
		CacheHits:    rec.CacheHits,
		CacheMisses:  rec.CacheMisses,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("store: failed to save run: %w", err)
	}
	return row.ID, nil
}

// GetRun retrieves a run by id.
func (s *GormStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var row AnalysisRun
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("store: run not found: %s: %w", id, err)
	}
	return &RunRecord{
		ID:           row.ID,
		WorkflowName: row.WorkflowName,
		CreatedAt:    row.CreatedAt,
		Hotspots:     json.RawMessage(row.Hotspots),
		Balance:      json.RawMessage(row.Balance),
		CacheHits:    row.CacheHits,
		CacheMisses:  row.CacheMisses,
	}, nil
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	var rows []AnalysisRun
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: failed to list runs: %w", err)
	}
	out := make([]RunSummary, len(rows))
	for i, r := range rows {
		out[i] = RunSummary{
			ID:           r.ID,
			WorkflowName: r.WorkflowName,
			CreatedAt:    r.CreatedAt,
			CacheHits:    r.CacheHits,
			CacheMisses:  r.CacheMisses,
		}
	}
	return out, nil
}

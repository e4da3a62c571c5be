package store

import (
	"database/sql/driver"
	"errors"
	"time"
)

// AnalysisRun represents the analysis_runs table: one row per workflow
// execution, keyed by a UUID rather than an autoincrement id since runs may
// originate from many independent processes with no shared sequence.
type AnalysisRun struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey"`
	WorkflowName string    `gorm:"column:workflow_name;type:varchar(128)"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	Hotspots     JSONField `gorm:"column:hotspots;type:json"`
	Balance      JSONField `gorm:"column:balance;type:json"`
	CacheHits    int       `gorm:"column:cache_hits"`
	CacheMisses  int       `gorm:"column:cache_misses"`
}

// TableName returns the table name for AnalysisRun.
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// JSONField stores raw JSON in a single column, scanning from either []byte
// or string since sqlite drivers report json columns both ways.
type JSONField []byte

// Value implements driver.Valuer.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("store: unsupported type for JSONField")
	}
}

// Package storage defines the persistence interface for ingest run history.
package storage

import (
	"context"

	"github.com/hyperjump/kiji/internal/models"
)

// Storage defines run-history persistence operations.
type Storage interface {
	// RecordRun persists a completed ingest run.
	RecordRun(ctx context.Context, run *models.IngestRun) error
	// LatestRun returns the most recently finished run, or an error if none exist.
	LatestRun(ctx context.Context) (*models.IngestRun, error)
	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]*models.IngestRun, error)
	// CountRuns returns the total number of recorded runs.
	CountRuns(ctx context.Context) (int64, error)

	Close() error
}

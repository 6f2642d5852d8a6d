// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kiji/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		published INTEGER NOT NULL,
		quarantined INTEGER NOT NULL,
		superseded INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ingest_runs_finished_at ON ingest_runs(finished_at);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordRun inserts a completed run.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, started_at, finished_at, input_dir, output_dir, published, quarantined, superseded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.InputDir, run.OutputDir,
		run.Published, run.Quarantined, run.Superseded,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently finished run.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*models.IngestRun, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*models.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, input_dir, output_dir, published, quarantined, superseded
		 FROM ingest_runs ORDER BY finished_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.IngestRun
	for rows.Next() {
		var run models.IngestRun
		var started, finished time.Time
		if err := rows.Scan(&run.ID, &started, &finished, &run.InputDir, &run.OutputDir,
			&run.Published, &run.Quarantined, &run.Superseded); err != nil {
			return nil, err
		}
		run.StartedAt = started.UTC()
		run.FinishedAt = finished.UTC()
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountRuns returns the total number of recorded runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingest_runs`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

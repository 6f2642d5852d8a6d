package models

import "time"

// IngestRun is the persisted record of one completed ingest run, kept in the
// run-history store and surfaced by the status command.
type IngestRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	InputDir    string    `json:"input_dir"`
	OutputDir   string    `json:"output_dir"`
	Published   int       `json:"published"`
	Quarantined int       `json:"quarantined"`
	Superseded  int       `json:"superseded"`
}

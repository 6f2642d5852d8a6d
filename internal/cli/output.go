// Package cli provides output formatting for the kiji commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/kiji/internal/models"
	"github.com/hyperjump/kiji/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output-format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSummary writes an ingest run summary to w in the given format.
func WriteSummary(w io.Writer, summary models.RunSummary, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprintf(w, "published:    %d\n", summary.Published)
	fmt.Fprintf(w, "quarantined:  %d\n", summary.Quarantined)
	fmt.Fprintf(w, "superseded:   %d\n", summary.Superseded)
	return nil
}

// WriteQuarantine writes one line per quarantined segment so operators see
// data-quality problems without opening quarantine.json.
func WriteQuarantine(w io.Writer, records []*models.QuarantineRecord) {
	for _, rec := range records {
		fmt.Fprintf(w, "quarantined: %s#%d %s: %q\n",
			rec.SourceFile, rec.Ordinal, rec.Reason,
			utils.Truncate(firstLine(rec.Excerpt), 80),
		)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// WriteRuns writes recorded ingest runs to w, most recent first.
func WriteRuns(w io.Writer, runs []*models.IngestRun, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  published=%d quarantined=%d superseded=%d  (%s)\n",
			run.FinishedAt.Format("2006-01-02 15:04:05"),
			run.ID,
			run.Published, run.Quarantined, run.Superseded,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
		)
		fmt.Fprintf(w, "  input:  %s\n", run.InputDir)
		fmt.Fprintf(w, "  output: %s\n", run.OutputDir)
	}
	return nil
}

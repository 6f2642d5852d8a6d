// Package output writes the catalog artifacts to disk. A run is staged in a
// sibling directory and renamed into place, so a failed or aborted run never
// leaves a partial catalog behind.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kiji/internal/catalog"
	"github.com/hyperjump/kiji/internal/models"
)

const (
	catalogFile    = "catalog.json"
	tagsFile       = "tags.json"
	quarantineFile = "quarantine.json"
	duplicatesFile = "duplicates.json"
	bodiesDir      = "bodies"
)

// Writer stages and commits one run's artifacts.
type Writer struct {
	outDir string
	logger *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter returns a writer targeting outDir.
func NewWriter(outDir string, opts ...WriterOption) *Writer {
	w := &Writer{outDir: outDir}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stages all artifacts for result and commits them to the output
// directory, replacing any previous run's artifacts atomically (directory
// rename). On any error the staging directory is removed and the previous
// output is left untouched.
func (w *Writer) Write(result *models.IngestResult) (err error) {
	staging := w.outDir + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(staging, bodiesDir), 0755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := writeJSON(filepath.Join(staging, catalogFile), result.Catalog); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(staging, tagsFile), orEmptyTags(result.TagIndex)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(staging, quarantineFile), orEmptyQuarantine(result.Quarantine)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(staging, duplicatesFile), orEmptyGroups(result.Duplicates)); err != nil {
		return err
	}
	// Superseded documents keep their body files too; they are excluded from
	// the indexes but never dropped.
	for _, doc := range result.Documents {
		path := filepath.Join(staging, catalog.BodyRef(doc.ID))
		if err := os.WriteFile(path, []byte(doc.Body), 0644); err != nil {
			return fmt.Errorf("write body %s: %w", doc.ID, err)
		}
	}

	if err := w.commit(staging); err != nil {
		return err
	}
	if w.logger != nil {
		w.logger.Debug("output committed",
			zap.String("dir", w.outDir),
			zap.Int("documents", len(result.Documents)),
			zap.Int("quarantined", len(result.Quarantine)),
		)
	}
	return nil
}

// commit swaps staging into place. The previous output is parked aside
// first, so a failed rename restores it instead of losing the catalog.
func (w *Writer) commit(staging string) error {
	old := w.outDir + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clear old output dir: %w", err)
	}
	hadPrevious := false
	if _, err := os.Stat(w.outDir); err == nil {
		if err := os.Rename(w.outDir, old); err != nil {
			return fmt.Errorf("park previous output dir: %w", err)
		}
		hadPrevious = true
	}
	if err := os.Rename(staging, w.outDir); err != nil {
		if hadPrevious {
			_ = os.Rename(old, w.outDir)
		}
		return fmt.Errorf("commit output dir: %w", err)
	}
	if hadPrevious {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("remove old output dir: %w", err)
		}
	}
	return nil
}

// CheckWritable verifies the output location's parent can be written to
// before any work is done, so unwritable output fails the run up front.
func (w *Writer) CheckWritable() error {
	parent := filepath.Dir(w.outDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("output parent not writable: %w", err)
	}
	probe, err := os.CreateTemp(parent, ".kiji-probe-*")
	if err != nil {
		return fmt.Errorf("output parent not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// JSON output stays stable across runs: empty collections marshal as [] and
// {} rather than null.

func orEmptyTags(idx models.TagIndex) models.TagIndex {
	if idx == nil {
		return models.TagIndex{}
	}
	return idx
}

func orEmptyQuarantine(records []*models.QuarantineRecord) []*models.QuarantineRecord {
	if records == nil {
		return []*models.QuarantineRecord{}
	}
	return records
}

func orEmptyGroups(groups []*models.DuplicateGroup) []*models.DuplicateGroup {
	if groups == nil {
		return []*models.DuplicateGroup{}
	}
	return groups
}

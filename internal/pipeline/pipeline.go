// Package pipeline orchestrates one ingest run: walk the input tree, process
// files in a worker pool, then reduce the collected results into the catalog.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/kiji/internal/catalog"
	"github.com/hyperjump/kiji/internal/dedup"
	"github.com/hyperjump/kiji/internal/frontmatter"
	"github.com/hyperjump/kiji/internal/models"
	"github.com/hyperjump/kiji/internal/normalize"
	"github.com/hyperjump/kiji/internal/splitter"
)

// excerptLen bounds the raw text kept in quarantine records.
const excerptLen = 500

// Pipeline runs the ingest stages over an input directory.
type Pipeline struct {
	splitter *splitter.Splitter
	builder  *catalog.Builder
	workers  int
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug output (files processed, segments
// quarantined, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithWorkers sets the worker pool size; values below 1 select NumCPU.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// New creates a pipeline with the given splitter and catalog builder.
func New(split *splitter.Splitter, builder *catalog.Builder, opts ...Option) *Pipeline {
	p := &Pipeline{
		splitter: split,
		builder:  builder,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.NumCPU()
	}
	return p
}

// fileResult is what one worker produces for one file. Workers share nothing;
// results flow over a channel to the collector.
type fileResult struct {
	docs       []*models.Document
	quarantine []*models.QuarantineRecord
}

// Run ingests inputDir and returns the full result of the run. It fails only
// on fatal conditions: unreadable input root, unreadable file mid-run, or
// context cancellation. Per-segment problems become quarantine records and
// never block sibling segments or other files.
func (p *Pipeline) Run(ctx context.Context, inputDir string) (*models.IngestResult, error) {
	paths, err := collectFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Debug("ingest starting",
			zap.String("input", inputDir),
			zap.Int("files", len(paths)),
			zap.Int("workers", p.workers),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pathCh := make(chan string)
	resultCh := make(chan *fileResult)
	errCh := make(chan error, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range pathCh {
				res, err := p.processFile(path)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				select {
				case resultCh <- res:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(pathCh)
		for _, path := range paths {
			select {
			case pathCh <- path:
			case <-runCtx.Done():
				return
			}
		}
	}()

	// Barrier: the reduce step below only runs once every worker is done.
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var docs []*models.Document
	var quarantine []*models.QuarantineRecord
	for res := range resultCh {
		docs = append(docs, res.docs...)
		quarantine = append(quarantine, res.quarantine...)
	}
	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.reduce(docs, quarantine), nil
}

// processFile reads, splits, parses, and normalizes one file. All segment
// failures are quarantined; only I/O failures are returned as errors.
func (p *Pipeline) processFile(path string) (*fileResult, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res := &fileResult{}
	for _, seg := range p.splitter.Split(raw) {
		fm, body, reason, perr := frontmatter.Parse(seg)
		if reason == "" && perr == nil {
			var doc *models.Document
			doc, reason, perr = normalize.Document(fm, body, seg)
			if perr == nil {
				res.docs = append(res.docs, doc)
				continue
			}
		}
		if p.logger != nil {
			p.logger.Debug("segment quarantined",
				zap.String("file", seg.SourceFile),
				zap.Int("ordinal", seg.Ordinal),
				zap.String("reason", string(reason)),
				zap.Error(perr),
			)
		}
		res.quarantine = append(res.quarantine, &models.QuarantineRecord{
			SourceFile: seg.SourceFile,
			Ordinal:    seg.Ordinal,
			Reason:     reason,
			Excerpt:    excerpt(seg.Content),
		})
	}
	return res, nil
}

// reduce is the pure aggregation after the parallel stage's barrier: order
// documents deterministically, resolve slugs and duplicates, build indexes.
func (p *Pipeline) reduce(docs []*models.Document, quarantine []*models.QuarantineRecord) *models.IngestResult {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.Ordinal < b.Ordinal
	})
	normalize.AssignSlugs(docs)
	groups := dedup.Resolve(docs)
	dateIndex, tagIndex, cat := p.builder.Build(docs)
	catalog.SortQuarantine(quarantine)

	superseded := 0
	for _, doc := range docs {
		if doc.Superseded {
			superseded++
		}
	}
	published := 0
	for _, page := range cat.Pages {
		published += len(page.Entries)
	}
	return &models.IngestResult{
		Documents:  docs,
		DateIndex:  dateIndex,
		TagIndex:   tagIndex,
		Catalog:    cat,
		Duplicates: groups,
		Quarantine: quarantine,
		Summary: models.RunSummary{
			Published:   published,
			Quarantined: len(quarantine),
			Superseded:  superseded,
		},
	}
}

// collectFiles walks root and returns all regular files, sorted so work is
// handed out in a stable order. An unreadable root is fatal.
func collectFiles(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}
	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// readFile loads a source file read-only, replacing invalid UTF-8 sequences.
func readFile(path string) (*models.RawFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return &models.RawFile{Path: path, Content: text}, nil
}

// excerpt bounds raw text for quarantine records.
func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	cut := s[:excerptLen]
	// Do not cut a UTF-8 sequence in half.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

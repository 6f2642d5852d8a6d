// Package main is the kiji CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kiji/internal/catalog"
	"github.com/hyperjump/kiji/internal/cli"
	"github.com/hyperjump/kiji/internal/config"
	"github.com/hyperjump/kiji/internal/models"
	"github.com/hyperjump/kiji/internal/output"
	"github.com/hyperjump/kiji/internal/pipeline"
	"github.com/hyperjump/kiji/internal/splitter"
	"github.com/hyperjump/kiji/internal/storage"
	"github.com/hyperjump/kiji/internal/watcher"
	"github.com/hyperjump/kiji/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kiji/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used. A missing config file is not an error: defaults apply, and flags
// fill in the rest.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	if _, err := os.Stat(path); err != nil {
		if path != defaultConfigPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "ingest":
		runIngest()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kiji version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// ingestFlags registers the shared ingest/watch flag set and returns the
// parsed config with flag overrides applied.
func ingestFlags(fs *flag.FlagSet, args []string) (*config.Config, bool, error) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	input := fs.String("input", "", "input directory of markdown posts")
	outDir := fs.String("output", "", "output directory for the catalog")
	pageSize := fs.Int("page-size", 0, "catalog page size (default 10)")
	includeDrafts := fs.Bool("include-drafts", false, "include drafts in the catalog")
	workers := fs.Int("workers", 0, "worker pool size (default: number of CPUs)")
	separator := fs.String("separator", "", "separator line pattern for concatenated files (regexp)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, false, err
	}
	if *input != "" {
		cfg.Ingest.InputDir = *input
	}
	if *outDir != "" {
		cfg.Ingest.OutputDir = *outDir
	}
	if *pageSize > 0 {
		cfg.Ingest.PageSize = *pageSize
	}
	if *includeDrafts {
		cfg.Ingest.IncludeDrafts = true
	}
	if *workers > 0 {
		cfg.Ingest.Workers = *workers
	}
	if *separator != "" {
		cfg.Ingest.SeparatorPattern = *separator
	}
	debugMode := cfg.Debug || *debug
	if cfg.Ingest.InputDir == "" {
		return nil, false, fmt.Errorf("no input directory; use --input or set ingest.input_dir in config")
	}
	return cfg, debugMode, nil
}

// components holds the initialized services for one command invocation.
type components struct {
	pipeline *pipeline.Pipeline
	writer   *output.Writer
	store    storage.Storage
	logger   *zap.Logger
}

func (c *components) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func initializeComponents(cfg *config.Config, debug bool) (*components, error) {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	split, err := splitter.New(cfg.Ingest.SeparatorPattern)
	if err != nil {
		return nil, err
	}
	builder := catalog.NewBuilder(catalog.Options{
		PageSize:      cfg.Ingest.PageSize,
		IncludeDrafts: cfg.Ingest.IncludeDrafts,
	})
	pipeOpts := []pipeline.Option{pipeline.WithWorkers(cfg.Ingest.Workers)}
	writerOpts := []output.WriterOption{}
	if debug {
		pipeOpts = append(pipeOpts, pipeline.WithLogger(logger))
		writerOpts = append(writerOpts, output.WithLogger(logger))
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run history: %w", err)
	}
	return &components{
		pipeline: pipeline.New(split, builder, pipeOpts...),
		writer:   output.NewWriter(cfg.Ingest.OutputDir, writerOpts...),
		store:    store,
		logger:   logger,
	}, nil
}

// ingestOnce executes one full pipeline run and records it. The returned
// result is nil when the run failed.
func ingestOnce(ctx context.Context, cfg *config.Config, comps *components) (*models.IngestResult, error) {
	if err := comps.writer.CheckWritable(); err != nil {
		return nil, err
	}
	started := time.Now().UTC()
	result, err := comps.pipeline.Run(ctx, cfg.Ingest.InputDir)
	if err != nil {
		return nil, err
	}
	if err := comps.writer.Write(result); err != nil {
		return nil, err
	}
	run := &models.IngestRun{
		ID:          uuid.New().String(),
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		InputDir:    cfg.Ingest.InputDir,
		OutputDir:   cfg.Ingest.OutputDir,
		Published:   result.Summary.Published,
		Quarantined: result.Summary.Quarantined,
		Superseded:  result.Summary.Superseded,
	}
	if err := comps.store.RecordRun(ctx, run); err != nil {
		comps.logger.Warn("failed to record run", zap.Error(err))
	}
	return result, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	outputFormat := fs.String("output-format", "text", "summary output format: text or json")
	cfg, debugMode, err := ingestFlags(fs, os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	comps, err := initializeComponents(cfg, debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer comps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ingestOnce(ctx, cfg, comps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputText {
		cli.WriteQuarantine(os.Stderr, result.Quarantine)
	}
	if err := cli.WriteSummary(os.Stdout, result.Summary, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	// Quarantine is a warning condition, not a failure: exit 0 either way.
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg, debugMode, err := ingestFlags(fs, os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	comps, err := initializeComponents(cfg, debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer comps.Close()
	logger := comps.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func() {
		result, err := ingestOnce(ctx, cfg, comps)
		if err != nil {
			logger.Warn("rebuild failed", zap.Error(err))
			return
		}
		logger.Info("catalog rebuilt",
			zap.Int("published", result.Summary.Published),
			zap.Int("quarantined", result.Summary.Quarantined),
			zap.Int("superseded", result.Summary.Superseded),
		)
	}
	rebuild()

	watchOpts := []watcher.Option{
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond),
	}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.New(cfg.Ingest.InputDir, rebuild, watchOpts...)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()

	logger.Info("watching for changes", zap.String("input", cfg.Ingest.InputDir))
	<-ctx.Done()
	logger.Info("Shutting down...")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of runs to show")
	outputFormat := fs.String("output-format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List runs failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRuns(os.Stdout, runs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputText && len(runs) > 0 {
		if bytes, err := storage.DiskUsageBytes(runs[0].OutputDir, cfg.Storage.DatabasePath); err == nil {
			fmt.Printf("disk_usage_bytes: %d   # catalog output + run history\n", bytes)
		}
	}
}

func printUsage() {
	fmt.Println(`kiji - markdown corpus ingest and catalog builder

Usage:
  kiji ingest [flags]   Ingest a directory of posts and build the catalog
  kiji watch [flags]    Ingest, then rebuild whenever the input changes
  kiji status [flags]   Show recent ingest runs
  kiji version          Show version
  kiji help             Show this help

Ingest/Watch Flags:
  --config string      Config file path (default: /usr/local/etc/kiji/config.yaml)
  --input string       Input directory of markdown posts
  --output string      Output directory for catalog.json, tags.json, quarantine.json, bodies/
  --page-size int      Catalog page size (default: 10)
  --include-drafts     Include drafts in the catalog (default: false)
  --workers int        Worker pool size (default: number of CPUs)
  --separator string   Separator line pattern for concatenated files (regexp)
  --debug              Enable debug logging

Status Flags:
  --config string         Config file path
  --limit int             Number of runs to show (default: 10)
  --output-format string  text or json (default: text)

Examples:
  kiji ingest --input ./posts --output ./site
  kiji ingest --input ./posts --output ./site --include-drafts --page-size 25
  kiji watch --input ./posts --output ./site
  kiji status --output-format json`)
}

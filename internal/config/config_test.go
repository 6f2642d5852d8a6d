package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ingest:
  input_dir: "/srv/posts"
  output_dir: "/srv/site"
  page_size: 25
  include_drafts: true
storage:
  database_path: "/var/lib/kiji/runs.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.InputDir != "/srv/posts" || cfg.Ingest.OutputDir != "/srv/site" {
		t.Errorf("unexpected ingest config: %+v", cfg.Ingest)
	}
	if cfg.Ingest.PageSize != 25 {
		t.Errorf("page_size = %d, want 25", cfg.Ingest.PageSize)
	}
	if !cfg.Ingest.IncludeDrafts {
		t.Error("include_drafts should be true")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ingest:
  input_dir: "./posts"
  output_dir: "./site"
storage:
  database_path: "./data/runs.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "posts"); cfg.Ingest.InputDir != want {
		t.Errorf("input_dir = %s, want %s", cfg.Ingest.InputDir, want)
	}
	if want := filepath.Join(dir, "data", "runs.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Ingest.PageSize != 10 {
		t.Errorf("default page_size: got %d", cfg.Ingest.PageSize)
	}
	if cfg.Ingest.OutputDir == "" {
		t.Error("output_dir should have a default")
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should have a default")
	}
	if cfg.Watch.DebounceMillis != 400 {
		t.Errorf("default debounce_millis: got %d", cfg.Watch.DebounceMillis)
	}
	if cfg.Ingest.Workers != 0 {
		t.Errorf("workers should stay 0 (pipeline resolves NumCPU): got %d", cfg.Ingest.Workers)
	}
	if cfg.Ingest.SeparatorPattern != "" {
		t.Errorf("separator pattern should stay empty (splitter default): got %q", cfg.Ingest.SeparatorPattern)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Ingest.PageSize = 5
	cfg.Storage.DatabasePath = "/tmp/x.db"
	ApplyDefaults(cfg)
	if cfg.Ingest.PageSize != 5 {
		t.Errorf("explicit page_size overwritten: got %d", cfg.Ingest.PageSize)
	}
	if cfg.Storage.DatabasePath != "/tmp/x.db" {
		t.Errorf("explicit database_path overwritten: got %s", cfg.Storage.DatabasePath)
	}
}

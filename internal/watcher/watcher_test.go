package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_triggersRebuildOnWrite(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New(dir, func() { rebuilds.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "post.md"), []byte("---\ntitle: X\n---\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return rebuilds.Load() >= 1 }) {
		t.Error("rebuild not triggered")
	}
}

func TestWatcher_coalescesBursts(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New(dir, func() { rebuilds.Add(1) }, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "burst.md")
		if err := os.WriteFile(name, []byte{byte('a' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return rebuilds.Load() >= 1 }) {
		t.Fatal("rebuild not triggered")
	}
	// Let any stray timers fire before counting.
	time.Sleep(300 * time.Millisecond)
	if n := rebuilds.Load(); n > 2 {
		t.Errorf("burst should coalesce, got %d rebuilds", n)
	}
}

func TestWatcher_newSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	var rebuilds atomic.Int32
	w := New(dir, func() { rebuilds.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "drafts")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return rebuilds.Load() >= 1 }) {
		t.Fatal("mkdir should trigger a rebuild")
	}
	before := rebuilds.Load()
	if err := os.WriteFile(filepath.Join(sub, "new.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return rebuilds.Load() > before }) {
		t.Error("write in new subdirectory should trigger a rebuild")
	}
}

func TestWatcher_stopIsIdempotent(t *testing.T) {
	w := New(t.TempDir(), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_missingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for missing root")
	}
}

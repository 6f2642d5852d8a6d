// Package integration exercises the full ingest pipeline end to end: corpus
// on disk in, committed catalog artifacts out.
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kiji/internal/catalog"
	"github.com/hyperjump/kiji/internal/models"
	"github.com/hyperjump/kiji/internal/output"
	"github.com/hyperjump/kiji/internal/pipeline"
	"github.com/hyperjump/kiji/internal/splitter"
)

const sep = "<!-- kiji:concat:4be91a77c203 -->"

// corpus is a small but representative input tree: a concatenated file, a
// draft, a duplicate pair, and a file that quarantines alongside a good sibling.
var corpus = map[string]string{
	"2025/multi.md": "---\ntitle: Shipping Notes\ndate: 2025-12-01\ntags: [releases]\n---\nfirst post body\n" +
		sep + "\n---\ntitle: Retro Notes\ndate: 2025-12-02T09:30:00\ntags: [releases, process]\n---\nsecond post body\n",
	"2025/draft.md": "---\ntitle: Unfinished Thoughts\ndate: 2025-12-03\ndraft: true\n---\nnot ready\n",
	"dup-a.md":      "---\ntitle: \"LLM Council: Zero-to-Production Guide\"\ndate: 2025-12-04\n---\nshort copy\n",
	"dup-b.md": "---\ntitle: \"LLM Council: Zero-to-Production Guide\"\ndate: 2025-12-04\n---\n" +
		"the full guide, substantially longer than the short copy, with all sections present\n",
	"mixed.md": "---\ntitle: Healthy Sibling\ndate: 2025-12-05\n---\nok\n" +
		sep + "\n---\ntitle: Broken Sibling\ndate: 2025-12-06\nnever closed",
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range corpus {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func ingest(t *testing.T, inputDir, outputDir string) *models.IngestResult {
	t.Helper()
	split, err := splitter.New("")
	if err != nil {
		t.Fatal(err)
	}
	p := pipeline.New(split, catalog.NewBuilder(catalog.Options{PageSize: 2}))
	res, err := p.Run(context.Background(), inputDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := output.NewWriter(outputDir).Write(res); err != nil {
		t.Fatal(err)
	}
	return res
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
}

func TestIngest_endToEnd(t *testing.T) {
	input := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "site")
	res := ingest(t, input, out)

	// 6 segments parse, 1 quarantines, 1 is superseded; the draft counts as
	// canonical but unpublished.
	if res.Summary.Quarantined != 1 {
		t.Errorf("quarantined = %d", res.Summary.Quarantined)
	}
	if res.Summary.Superseded != 1 {
		t.Errorf("superseded = %d", res.Summary.Superseded)
	}
	if res.Summary.Published != 4 {
		t.Errorf("published = %d", res.Summary.Published)
	}

	var cat models.Catalog
	readJSON(t, filepath.Join(out, "catalog.json"), &cat)
	if cat.PageSize != 2 || cat.TotalPages != 2 {
		t.Errorf("catalog shape: %+v", cat)
	}
	for _, page := range cat.Pages {
		for _, e := range page.Entries {
			if e.ID == "unfinished-thoughts" {
				t.Error("draft leaked into catalog.json")
			}
			body := filepath.Join(out, filepath.FromSlash(e.BodyRef))
			if _, err := os.Stat(body); err != nil {
				t.Errorf("body file missing for %s: %v", e.ID, err)
			}
		}
	}

	var tags map[string][]string
	readJSON(t, filepath.Join(out, "tags.json"), &tags)
	if got := tags["releases"]; len(got) != 2 || got[0] != "retro-notes" || got[1] != "shipping-notes" {
		t.Errorf("tags[releases] = %v", got)
	}

	var quarantine []*models.QuarantineRecord
	readJSON(t, filepath.Join(out, "quarantine.json"), &quarantine)
	if len(quarantine) != 1 {
		t.Fatalf("quarantine.json = %+v", quarantine)
	}
	if quarantine[0].Reason != models.ReasonTruncatedFrontMatter || quarantine[0].Ordinal != 1 {
		t.Errorf("quarantine record = %+v", quarantine[0])
	}
}

func TestIngest_idempotent(t *testing.T) {
	input := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "site")

	snapshot := func() map[string][]byte {
		files := map[string][]byte{}
		for _, name := range []string{"catalog.json", "tags.json", "quarantine.json", "duplicates.json"} {
			data, err := os.ReadFile(filepath.Join(out, name))
			if err != nil {
				t.Fatal(err)
			}
			files[name] = data
		}
		return files
	}

	ingest(t, input, out)
	first := snapshot()
	ingest(t, input, out)
	second := snapshot()
	for name, data := range first {
		if string(second[name]) != string(data) {
			t.Errorf("%s not byte-identical across runs", name)
		}
	}
}

func TestIngest_supersededKeptButUnindexed(t *testing.T) {
	input := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "site")
	res := ingest(t, input, out)

	var groups []*models.DuplicateGroup
	readJSON(t, filepath.Join(out, "duplicates.json"), &groups)
	if len(groups) != 1 {
		t.Fatalf("duplicates.json = %+v", groups)
	}
	group := groups[0]
	if len(group.Superseded) != 1 {
		t.Fatalf("superseded ids = %v", group.Superseded)
	}

	// The losing copy keeps its body file but is absent from every index.
	loser := group.Superseded[0]
	if _, err := os.Stat(filepath.Join(out, "bodies", loser+".md")); err != nil {
		t.Errorf("superseded body file missing: %v", err)
	}
	for _, id := range res.DateIndex {
		if id == loser {
			t.Error("superseded id in date index")
		}
	}
	var tags map[string][]string
	readJSON(t, filepath.Join(out, "tags.json"), &tags)
	for tag, ids := range tags {
		for _, id := range ids {
			if id == loser {
				t.Errorf("superseded id under tag %s", tag)
			}
		}
	}
}

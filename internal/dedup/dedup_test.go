package dedup

import (
	"testing"
	"time"

	"github.com/hyperjump/kiji/internal/models"
)

func doc(id, title, file string, ordinal int, body string) *models.Document {
	return &models.Document{
		ID:          id,
		Title:       title,
		PublishedAt: time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC),
		Body:        body,
		SourceFile:  file,
		Ordinal:     ordinal,
		ContentHash: body,
	}
}

func TestResolve_longerBodyWins(t *testing.T) {
	short := doc("llm-council-zero-to-production-guide", "LLM Council: Zero-to-Production Guide", "a.md", 0, "short body")
	long := doc("llm-council-zero-to-production-guide-2", "LLM Council: Zero-to-Production Guide", "b.md", 0, "a substantially longer body with much more content in it")
	groups := Resolve([]*models.Document{short, long})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.CanonicalID != long.ID {
		t.Errorf("canonical = %s, want %s", g.CanonicalID, long.ID)
	}
	if len(g.Superseded) != 1 || g.Superseded[0] != short.ID {
		t.Errorf("superseded = %v", g.Superseded)
	}
	if !short.Superseded || short.CanonicalID != long.ID {
		t.Errorf("loser not annotated: %+v", short)
	}
	if long.Superseded {
		t.Error("winner must not be superseded")
	}
}

func TestResolve_bodyLengthIsCharacters(t *testing.T) {
	// 20 ASCII characters beat 11 kanji even though the kanji body is 33
	// bytes; length is counted in characters.
	long := doc("a", "Same", "a.md", 0, "twenty ascii letters")
	short := doc("b", "Same", "b.md", 0, "日本語の記事本文です。")
	groups := Resolve([]*models.Document{short, long})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].CanonicalID != long.ID {
		t.Errorf("canonical = %s, want %s", groups[0].CanonicalID, long.ID)
	}
	if long.Superseded || !short.Superseded {
		t.Error("character-longer body should win over byte-longer body")
	}
}

func TestResolve_tieGoesToEarliestOrigin(t *testing.T) {
	first := doc("a", "Same", "a.md", 0, "equal length")
	second := doc("b", "Same", "a.md", 1, "equal-length")
	Resolve([]*models.Document{second, first})
	if first.Superseded {
		t.Error("earliest (sourceFile, ordinal) should win ties")
	}
	if !second.Superseded {
		t.Error("later document should be superseded")
	}
}

func TestResolve_titleMatchIsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := doc("a", "Hello  World", "a.md", 0, "one")
	b := doc("b", "hello world", "b.md", 0, "two!")
	groups := Resolve([]*models.Document{a, b})
	if len(groups) != 1 {
		t.Fatalf("expected normalized titles to group, got %d groups", len(groups))
	}
}

func TestResolve_differentDatesDoNotGroup(t *testing.T) {
	a := doc("a", "Same Title", "a.md", 0, "one")
	b := doc("b", "Same Title", "b.md", 0, "two")
	b.PublishedAt = b.PublishedAt.Add(24 * time.Hour)
	if groups := Resolve([]*models.Document{a, b}); len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
	if a.Superseded || b.Superseded {
		t.Error("nothing should be superseded")
	}
}

func TestResolve_identicalContentStillSupersedes(t *testing.T) {
	a := doc("a", "Same", "a.md", 0, "identical")
	b := doc("b", "Same", "b.md", 0, "identical")
	groups := Resolve([]*models.Document{a, b})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].CanonicalID != "a" {
		t.Errorf("canonical = %s, want a", groups[0].CanonicalID)
	}
	if !b.Superseded {
		t.Error("duplicate copy should be superseded")
	}
}

func TestResolve_deterministicGroupOrder(t *testing.T) {
	mk := func() []*models.Document {
		return []*models.Document{
			doc("z1", "Zebra", "z.md", 0, "one"),
			doc("z2", "Zebra", "z.md", 1, "two!!"),
			doc("a1", "Aardvark", "a.md", 0, "one"),
			doc("a2", "Aardvark", "a.md", 1, "two!!"),
		}
	}
	g1 := Resolve(mk())
	g2 := Resolve(mk())
	if len(g1) != 2 || len(g2) != 2 {
		t.Fatalf("expected 2 groups, got %d and %d", len(g1), len(g2))
	}
	for i := range g1 {
		if g1[i].Key != g2[i].Key {
			t.Errorf("group order differs: %s vs %s", g1[i].Key, g2[i].Key)
		}
	}
	if g1[0].Key >= g1[1].Key {
		t.Error("groups should be sorted by key")
	}
}

// Package dedup detects documents that are the same post ingested twice and
// resolves each group to a single canonical document.
package dedup

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kiji/internal/dates"
	"github.com/hyperjump/kiji/internal/models"
)

// Resolve annotates docs with duplicate-group membership. Documents sharing a
// normalized (title, publishedAt) pair form a group; the member with the
// strictly longer trimmed body is canonical, ties going to the earliest
// (sourceFile, ordinal). Losers stay in the document set flagged Superseded.
// Byte-identical copies still supersede; the resolution notes it.
func Resolve(docs []*models.Document) []*models.DuplicateGroup {
	byKey := make(map[string][]*models.Document)
	var keys []string
	for _, doc := range docs {
		k := groupKey(doc)
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], doc)
	}
	sort.Strings(keys)

	var groups []*models.DuplicateGroup
	for _, k := range keys {
		members := byKey[k]
		if len(members) < 2 {
			continue
		}
		canonical := pickCanonical(members)
		group := &models.DuplicateGroup{
			Key:         k,
			CanonicalID: canonical.ID,
			Resolution:  resolution(canonical, members),
		}
		for _, m := range members {
			if m == canonical {
				continue
			}
			m.Superseded = true
			m.CanonicalID = canonical.ID
			group.Superseded = append(group.Superseded, m.ID)
		}
		groups = append(groups, group)
	}
	return groups
}

func groupKey(doc *models.Document) string {
	title := strings.Join(strings.Fields(strings.ToLower(doc.Title)), " ")
	return title + "|" + dates.FormatInstant(doc.PublishedAt)
}

// pickCanonical prefers the longer trimmed body; exact ties go to the
// document earliest in (sourceFile, ordinal) order.
func pickCanonical(members []*models.Document) *models.Document {
	best := members[0]
	for _, m := range members[1:] {
		bl, ml := bodyLen(best), bodyLen(m)
		switch {
		case ml > bl:
			best = m
		case ml == bl && earlier(m, best):
			best = m
		}
	}
	return best
}

// bodyLen counts characters, not bytes, so multi-byte text competes fairly.
func bodyLen(doc *models.Document) int {
	return utf8.RuneCountInString(strings.TrimSpace(doc.Body))
}

func earlier(a, b *models.Document) bool {
	if a.SourceFile != b.SourceFile {
		return a.SourceFile < b.SourceFile
	}
	return a.Ordinal < b.Ordinal
}

func resolution(canonical *models.Document, members []*models.Document) string {
	distinct := make(map[string]struct{}, len(members))
	for _, m := range members {
		distinct[m.ContentHash] = struct{}{}
	}
	if len(distinct) == 1 {
		return fmt.Sprintf("identical content, kept earliest occurrence %s", canonical.ID)
	}
	return fmt.Sprintf("kept longest body (%d chars) as %s", bodyLen(canonical), canonical.ID)
}

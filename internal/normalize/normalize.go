// Package normalize turns parsed front matter into canonical documents: tag
// cleanup, stable slugs, and body content hashes.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/hyperjump/kiji/internal/dates"
	"github.com/hyperjump/kiji/internal/models"
)

// Document builds a normalized Document from a parsed segment. The returned
// document has its slug set but not yet de-conflicted; AssignSlugs resolves
// collisions across the whole run. A date that fails normalization is
// reported via reason ReasonUnparsableDate.
func Document(fm *models.FrontMatter, body string, seg *models.RawSegment) (*models.Document, models.QuarantineReason, error) {
	instant, precision, err := dates.Normalize(fm.Date)
	if err != nil {
		return nil, models.ReasonUnparsableDate, err
	}
	doc := &models.Document{
		ID:            Slug(fm.Title, seg.SourceFile, seg.Ordinal),
		Title:         fm.Title,
		PublishedAt:   instant,
		DatePrecision: precision,
		Draft:         fm.Draft,
		Tags:          Tags(fm.Tags),
		Description:   fm.Description,
		Body:          body,
		SourceFile:    seg.SourceFile,
		Ordinal:       seg.Ordinal,
		ContentHash:   ContentHash(body),
		Extra:         fm.Extra,
	}
	return doc, "", nil
}

// Tags trims, lowercases, and collapses internal whitespace, then dedups
// within the document preserving first-occurrence order.
func Tags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		norm := strings.Join(strings.Fields(strings.ToLower(t)), " ")
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// Slug derives a URL-safe id from title, falling back to a hash of the
// segment's origin when the title yields nothing usable (purely symbolic titles).
func Slug(title, sourceFile string, ordinal int) string {
	s, err := slug.Normalize(title)
	if err != nil || s == "" {
		return fallbackSlug(sourceFile, ordinal)
	}
	return s
}

func fallbackSlug(sourceFile string, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", sourceFile, ordinal)))
	return "post-" + hex.EncodeToString(sum[:8])
}

// ContentHash hashes the whitespace-trimmed body; used for duplicate
// detection and idempotence checks.
func ContentHash(body string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(body)))
	return hex.EncodeToString(sum[:])
}

// AssignSlugs de-conflicts slug collisions across distinct documents.
// docs must already be in (sourceFile, ordinal) ascending order; the first
// holder keeps the bare slug and later ones get -2, -3, ... suffixes. A
// suffixed form may itself be taken (a literal "foo-2" title), so candidates
// keep advancing until a free one is found.
func AssignSlugs(docs []*models.Document) {
	taken := make(map[string]int, len(docs))
	for _, doc := range docs {
		base := doc.ID
		n := taken[base]
		if n == 0 {
			taken[base] = 1
			continue
		}
		candidate := fmt.Sprintf("%s-%d", base, n+1)
		for taken[candidate] > 0 {
			n++
			candidate = fmt.Sprintf("%s-%d", base, n+1)
		}
		taken[base] = n + 1
		taken[candidate] = 1
		doc.ID = candidate
	}
}

// Package catalog builds the chronological index, tag index, and paginated
// publish catalog from the final document set. Pure aggregation over already
// validated input; this stage cannot fail.
package catalog

import (
	"sort"

	"github.com/hyperjump/kiji/internal/dates"
	"github.com/hyperjump/kiji/internal/models"
)

// DefaultPageSize is the catalog page size when none is configured.
const DefaultPageSize = 10

// Options controls catalog construction.
type Options struct {
	PageSize      int
	IncludeDrafts bool
}

// Builder aggregates canonical documents into the output indexes.
type Builder struct {
	opts Options
}

// NewBuilder returns a builder. A zero or negative page size falls back to
// DefaultPageSize.
func NewBuilder(opts Options) *Builder {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Builder{opts: opts}
}

// Build produces the DateIndex, TagIndex, and Catalog for docs. Superseded
// documents are excluded from every index; drafts are excluded from the
// catalog unless IncludeDrafts is set, but always appear in the DateIndex.
func (b *Builder) Build(docs []*models.Document) (models.DateIndex, models.TagIndex, *models.Catalog) {
	canonical := make([]*models.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Superseded {
			continue
		}
		canonical = append(canonical, doc)
	}
	sortChronological(canonical)

	dateIndex := make(models.DateIndex, 0, len(canonical))
	for _, doc := range canonical {
		dateIndex = append(dateIndex, doc.ID)
	}

	tagIndex := make(models.TagIndex)
	for _, doc := range canonical {
		for _, tag := range doc.Tags {
			tagIndex[tag] = append(tagIndex[tag], doc.ID)
		}
	}

	published := canonical
	if !b.opts.IncludeDrafts {
		published = published[:0:0]
		for _, doc := range canonical {
			if !doc.Draft {
				published = append(published, doc)
			}
		}
	}
	return dateIndex, tagIndex, b.paginate(published)
}

func (b *Builder) paginate(published []*models.Document) *models.Catalog {
	size := b.opts.PageSize
	totalPages := (len(published) + size - 1) / size
	cat := &models.Catalog{
		Pages:      make([]*models.CatalogPage, 0, totalPages),
		PageSize:   size,
		TotalPages: totalPages,
	}
	for start := 0; start < len(published); start += size {
		end := start + size
		if end > len(published) {
			end = len(published)
		}
		page := &models.CatalogPage{Page: len(cat.Pages) + 1}
		for _, doc := range published[start:end] {
			page.Entries = append(page.Entries, Summary(doc))
		}
		cat.Pages = append(cat.Pages, page)
	}
	return cat
}

// Summary is the publish-facing projection of a document.
func Summary(doc *models.Document) *models.DocumentSummary {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.DocumentSummary{
		ID:          doc.ID,
		Title:       doc.Title,
		PublishedAt: dates.FormatInstant(doc.PublishedAt),
		Tags:        tags,
		BodyRef:     BodyRef(doc.ID),
	}
}

// BodyRef is the relative path of a document's body file inside the output tree.
func BodyRef(id string) string {
	return "bodies/" + id + ".md"
}

// sortChronological orders newest first, ties broken by (sourceFile, ordinal)
// ascending so output is deterministic across runs.
func sortChronological(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.Ordinal < b.Ordinal
	})
}

// SortQuarantine orders quarantine records by (sourceFile, ordinal) for
// deterministic reports.
func SortQuarantine(records []*models.QuarantineRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.Ordinal < b.Ordinal
	})
}

package models

// DocumentSummary is the publish-facing shape of a document inside catalog
// pages; the body stays in its own file referenced by BodyRef.
type DocumentSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	PublishedAt string   `json:"published_at"`
	Tags        []string `json:"tags"`
	BodyRef     string   `json:"body_ref"`
}

// CatalogPage is one page of the publish catalog.
type CatalogPage struct {
	Page    int                `json:"page"`
	Entries []*DocumentSummary `json:"entries"`
}

// Catalog is the final, draft-filtered, paginated view of published documents.
// Pages are 1-based and hold the ordered summaries for that page.
type Catalog struct {
	Pages      []*CatalogPage `json:"pages"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// TagIndex maps a normalized tag to document ids, newest first, no duplicates.
type TagIndex map[string][]string

// DateIndex is the full chronological ordering (newest first) of all
// non-quarantined canonical documents, including drafts.
type DateIndex []string

// IngestResult is everything one pipeline run produces, handed to the output
// writer and the run-history store.
type IngestResult struct {
	Documents  []*Document
	DateIndex  DateIndex
	TagIndex   TagIndex
	Catalog    *Catalog
	Duplicates []*DuplicateGroup
	Quarantine []*QuarantineRecord
	Summary    RunSummary
}

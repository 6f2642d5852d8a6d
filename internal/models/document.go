// Package models defines core data structures for raw input, documents, and catalog output.
package models

import "time"

// RawFile is one source file as read from the input tree. The pipeline never
// mutates source files; Content is the full UTF-8 text of the file.
type RawFile struct {
	Path    string
	Content string
}

// RawSegment is one candidate document's raw text, carved out of a RawFile by
// the splitter. Ordinal is the 0-based position of the segment within the file.
// A file with no concatenation markers yields exactly one segment.
type RawSegment struct {
	SourceFile string
	Ordinal    int
	Content    string
}

// DatePrecision records how much of an instant was present in the source date string.
type DatePrecision string

const (
	PrecisionDateOnly     DatePrecision = "date-only"
	PrecisionDatetimeNoTZ DatePrecision = "datetime-no-tz"
	PrecisionDatetimeTZ   DatePrecision = "datetime-with-tz"
)

// FrontMatter holds the recognized header fields of a segment plus an open bag
// of unrecognized keys preserved verbatim for pass-through.
type FrontMatter struct {
	Title       string
	Date        string
	Draft       bool
	Tags        []string
	Description string
	Extra       map[string]any
}

// Document is the normalized unit of content produced by the pipeline.
type Document struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	PublishedAt   time.Time      `json:"published_at"`
	DatePrecision DatePrecision  `json:"date_precision"`
	Draft         bool           `json:"draft"`
	Tags          []string       `json:"tags"`
	Description   string         `json:"description,omitempty"`
	Body          string         `json:"-"`
	SourceFile    string         `json:"source_file"`
	Ordinal       int            `json:"ordinal"`
	ContentHash   string         `json:"content_hash"`
	Extra         map[string]any `json:"extra,omitempty"`

	// Superseded is set by deduplication when another document with the same
	// title and date was chosen as canonical. Superseded documents are kept
	// but excluded from all indexes.
	Superseded bool `json:"superseded,omitempty"`
	// CanonicalID references the winning document when Superseded is true.
	CanonicalID string `json:"canonical_id,omitempty"`
}

// DuplicateGroup records documents sharing a (normalized title, publishedAt)
// pair with differing content hashes, and which member was kept.
type DuplicateGroup struct {
	Key         string   `json:"key"`
	CanonicalID string   `json:"canonical_id"`
	Superseded  []string `json:"superseded"`
	Resolution  string   `json:"resolution"`
}

// QuarantineReason classifies why a segment was set aside.
type QuarantineReason string

const (
	ReasonMissingFrontMatter   QuarantineReason = "missing_front_matter"
	ReasonTruncatedFrontMatter QuarantineReason = "truncated_front_matter"
	ReasonUnparsableDate       QuarantineReason = "unparsable_date"
	ReasonMissingTitle         QuarantineReason = "missing_title"
)

// QuarantineRecord is a segment that failed structural validation, kept for
// operator inspection. Quarantined segments never appear in any index.
type QuarantineRecord struct {
	SourceFile string           `json:"source_file"`
	Ordinal    int              `json:"ordinal"`
	Reason     QuarantineReason `json:"reason"`
	Excerpt    string           `json:"excerpt"`
}

// RunSummary is the user-visible outcome of one ingest run.
type RunSummary struct {
	Published   int `json:"published"`
	Quarantined int `json:"quarantined"`
	Superseded  int `json:"superseded"`
}

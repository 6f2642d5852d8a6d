// Package frontmatter extracts the delimited metadata header and body from a
// raw segment, tolerating malformed input by quarantining instead of failing.
package frontmatter

import (
	"fmt"
	"strings"

	adrg "github.com/adrg/frontmatter"

	"github.com/hyperjump/kiji/internal/models"
)

const delimiter = "---"

// envelope is the YAML shape of a recognized header block. Unknown keys land
// in Extra and are preserved verbatim for pass-through. Tags is decoded as a
// bare interface so both sequence and scalar forms are tolerated.
type envelope struct {
	Title       string         `yaml:"title"`
	Date        string         `yaml:"date"`
	Draft       bool           `yaml:"draft"`
	Tags        any            `yaml:"tags"`
	Description string         `yaml:"description"`
	Extra       map[string]any `yaml:",inline"`
}

// Parse splits segment content into front matter and body. On structural
// failure it returns a quarantine reason instead of an error; err is reserved
// for unexpected decoder failures that still map onto a reason.
func Parse(segment *models.RawSegment) (*models.FrontMatter, string, models.QuarantineReason, error) {
	content, ok := trimLeadingBlankLines(segment.Content)
	if !ok {
		return nil, "", models.ReasonMissingFrontMatter, fmt.Errorf("segment has no opening %s delimiter", delimiter)
	}
	if !hasClosingDelimiter(content) {
		return nil, "", models.ReasonTruncatedFrontMatter, fmt.Errorf("segment has no closing %s delimiter", delimiter)
	}

	var env envelope
	body, err := adrg.Parse(strings.NewReader(content), &env)
	if err != nil {
		// Delimiters are present but the block does not decode; the header is
		// effectively cut off mid-structure.
		return nil, "", models.ReasonTruncatedFrontMatter, fmt.Errorf("decode front matter: %w", err)
	}
	if strings.TrimSpace(env.Title) == "" {
		return nil, "", models.ReasonMissingTitle, fmt.Errorf("front matter has no title")
	}

	fm := &models.FrontMatter{
		Title:       env.Title,
		Date:        env.Date,
		Draft:       env.Draft,
		Tags:        coerceTags(env.Tags),
		Description: env.Description,
		Extra:       env.Extra,
	}
	return fm, string(body), "", nil
}

// trimLeadingBlankLines returns content starting at the opening delimiter
// line, skipping optional leading blank lines. ok is false when the first
// non-blank line is not a solitary delimiter.
func trimLeadingBlankLines(content string) (string, bool) {
	rest := content
	for {
		line, tail, found := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == "" {
			if !found {
				return "", false
			}
			rest = tail
			continue
		}
		if strings.TrimRight(line, " \t\r") == delimiter {
			return rest, true
		}
		return "", false
	}
}

// hasClosingDelimiter reports whether a second solitary delimiter line exists.
// content must already start at the opening delimiter line.
func hasClosingDelimiter(content string) bool {
	_, rest, found := strings.Cut(content, "\n")
	if !found {
		return false
	}
	for {
		line, tail, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t\r") == delimiter {
			return true
		}
		if !more {
			return false
		}
		rest = tail
	}
}

// coerceTags accepts the sequence forms YAML produces plus a bare scalar.
func coerceTags(v any) []string {
	switch tags := v.(type) {
	case nil:
		return nil
	case string:
		return []string{tags}
	case []any:
		out := make([]string, 0, len(tags))
		for _, item := range tags {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case []string:
		return tags
	default:
		return []string{fmt.Sprintf("%v", tags)}
	}
}

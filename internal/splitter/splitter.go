// Package splitter carves concatenated multi-post files into per-document segments.
package splitter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/kiji/internal/models"
)

// DefaultSeparatorPattern matches the concatenation marker left by upstream
// aggregation: an HTML-comment line embedding a run hash. The hash varies per
// run, so the pattern anchors on the stable prefix/suffix shape and treats the
// hex payload as a wildcard.
const DefaultSeparatorPattern = `^<!--\s*kiji:concat:[0-9a-f]{6,40}\s*-->\s*$`

// Splitter scans raw files for separator lines and yields per-document segments.
type Splitter struct {
	sep *regexp.Regexp
}

// New returns a splitter using pattern as the separator line regexp. The
// pattern is matched against whole lines. An empty pattern selects the default.
func New(pattern string) (*Splitter, error) {
	if pattern == "" {
		pattern = DefaultSeparatorPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile separator pattern: %w", err)
	}
	return &Splitter{sep: re}, nil
}

// Split returns the ordered segments of file. A file without separator lines
// yields one segment equal to its full content. Separator lines inside fenced
// code blocks are not split points. At most one newline on each side of a
// separator is trimmed; all other content is preserved verbatim. Separators
// with nothing between them and the ends of the file produce no empty segment.
func (s *Splitter) Split(file *models.RawFile) []*models.RawSegment {
	parts := s.splitContent(file.Content)
	segments := make([]*models.RawSegment, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, &models.RawSegment{
			SourceFile: file.Path,
			Ordinal:    len(segments),
			Content:    part,
		})
	}
	return segments
}

// splitContent walks content line by line, tracking fenced code blocks so a
// quoted separator never splits a document.
func (s *Splitter) splitContent(content string) []string {
	lines := strings.SplitAfter(content, "\n")

	var seps []int
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if isFenceLine(trimmed) {
			inFence = !inFence
			continue
		}
		if !inFence && s.sep.MatchString(trimmed) {
			seps = append(seps, i)
		}
	}
	if len(seps) == 0 {
		return []string{content}
	}

	var parts []string
	start := 0
	bounds := append(seps, len(lines))
	for bi, end := range bounds {
		section := strings.Join(lines[start:end], "")
		if start > 0 {
			section = trimLeadingNewline(section)
		}
		if end < len(lines) {
			section = trimTrailingNewline(section)
		}
		if strings.TrimSpace(section) != "" {
			parts = append(parts, section)
		}
		if bi < len(seps) {
			start = seps[bi] + 1
		}
	}
	return parts
}

// trimTrailingNewline removes at most the one newline the split introduced.
func trimTrailingNewline(s string) string {
	if p, ok := strings.CutSuffix(s, "\r\n"); ok {
		return p
	}
	if p, ok := strings.CutSuffix(s, "\n"); ok {
		return p
	}
	return s
}

func trimLeadingNewline(s string) string {
	if p, ok := strings.CutPrefix(s, "\r\n"); ok {
		return p
	}
	if p, ok := strings.CutPrefix(s, "\n"); ok {
		return p
	}
	return s
}

// isFenceLine reports whether line opens or closes a fenced code block.
func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "```")
}

// Package dates normalizes heterogeneous front-matter date strings to UTC instants.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kiji/internal/models"
)

// The three accepted shapes, tried in this fixed order. The first layout that
// parses wins; anything else fails outright rather than being guessed at.
// Naive datetimes (no offset) are taken as already UTC; time.Parse accepts an
// optional fractional second after the seconds field even when the layout has none.
var layouts = []struct {
	layout    string
	precision models.DatePrecision
}{
	{"2006-01-02", models.PrecisionDateOnly},
	{"2006-01-02T15:04:05", models.PrecisionDatetimeNoTZ},
	{"2006-01-02T15:04:05Z07:00", models.PrecisionDatetimeTZ},
}

// Normalize parses raw into a canonical UTC instant and a precision tag.
// Date-only values become midnight UTC; offsets are converted to UTC.
func Normalize(raw string) (time.Time, models.DatePrecision, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, "", fmt.Errorf("empty date string")
	}
	for _, l := range layouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.UTC(), l.precision, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unparsable date %q", raw)
}

// FormatInstant renders a normalized instant for output files. Seconds always
// appear; fractional seconds appear only when the instant carries them, so
// "2025-12-06T19:58:03.136" round-trips as "2025-12-06T19:58:03.136Z".
func FormatInstant(t time.Time) string {
	u := t.UTC()
	if u.Nanosecond() == 0 {
		return u.Format("2006-01-02T15:04:05Z")
	}
	return u.Format("2006-01-02T15:04:05.999999999Z")
}

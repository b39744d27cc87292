// Package dates parses the loosely formatted date strings stored on records.
package dates

import (
	"strings"
	"time"
)

// DateOnly is the layout used for calendar-day fields such as due dates.
const DateOnly = "2006-01-02"

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateOnly,
}

// Parse interprets s using the known layouts. Values without a zone are read
// in loc. The second result is false for empty or unparseable input.
func Parse(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Valid reports whether s is empty or parseable. It is used as a validation rule.
func Valid(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := Parse(s, time.UTC)
	return ok
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

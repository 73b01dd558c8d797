package entities

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"January 2, 2006",
}

// ParseTimestamp parses the timestamp formats found in archived records.
// It reports false instead of failing when the value is empty or unknown.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

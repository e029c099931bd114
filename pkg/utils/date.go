package utils

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-calls/pkg/common"
)

// StartOfDay returns midnight UTC of t's UTC calendar date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(common.DateLayout)
}

// ParseDate accepts YYYY-MM-DD, RFC3339 and "YYYY-MM-DD HH:MM:SS" forms.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{common.DateLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// PrettyDate formats t for human-readable notifications.
func PrettyDate(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

// LoadLocation resolves an IANA zone name, defaulting to UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

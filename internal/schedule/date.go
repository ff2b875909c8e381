package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for civil dates in template files and
// the audit artifact.
const DateLayout = "2006-01-02"

// Date constructs a civil date (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time component, returning the civil date of t in UTC.
func Truncate(t time.Time) time.Time {
	return Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// daysBetween returns the whole number of days from a to b.
// Both arguments must be civil dates; the result is negative when b < a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// Package dates parses the date parameters accepted by export runs.
// All returned times are in UTC.
package dates

import (
	"fmt"
	"time"
)

// layouts accepted for run parameters, tried in order.
var layouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Parse converts a date string to a UTC time.
//
// Accepted forms:
//   - YYYY-MM-DD (midnight UTC)
//   - YYYY-MM-DDTHH:MM:SS (assumed UTC)
//   - YYYY-MM-DDTHH:MM:SSZ
//   - RFC 3339 with timezone offset (converted to UTC)
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf(
		"invalid date format: %s (expected YYYY-MM-DD, YYYY-MM-DDTHH:MM:SS, or ISO 8601)", s)
}

// ValidateRange ensures since is strictly before until.
func ValidateRange(since, until time.Time) error {
	if !since.Before(until) {
		return fmt.Errorf("date range start %s must be before end %s",
			since.Format(time.RFC3339), until.Format(time.RFC3339))
	}
	return nil
}

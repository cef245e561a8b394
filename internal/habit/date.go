package habit

import (
	"fmt"
	"time"
)

// DayFormat is the canonical calendar-day layout used throughout the app.
const DayFormat = "2006-01-02"

// ParseError reports a value that could not be interpreted as a calendar day.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as a calendar day", e.Value)
}

// Timestamp layouts accepted by Normalize, tried after DayFormat.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize converts a day string or timestamp string into canonical
// YYYY-MM-DD form. Timestamps keep their own offset; the date is never
// shifted to UTC first. Normalizing an already-canonical string returns
// it unchanged.
func Normalize(value string) (string, error) {
	if _, err := time.Parse(DayFormat, value); err == nil {
		return value, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DayFormat), nil
		}
	}
	return "", &ParseError{Value: value}
}

// Day returns the canonical day string for a point in time, in t's location.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package utils

import (
	"fmt"
	"time"
)

// EventTimeLayout is the canonical timestamp format written at ingestion.
const EventTimeLayout = time.RFC3339

// eventTimeLayouts lists accepted timestamp layouts in trial order. Ingestion
// writes RFC3339, but events migrated from older deployments carry bare ISO
// timestamps without a zone designator.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseEventTime returns the instant encoded by an event timestamp string.
// Zone-less layouts are interpreted as UTC.
func ParseEventTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// CalendarDaysApart returns the absolute distance between two instants in
// whole calendar days. Time-of-day is truncated, not rounded: 23:59 on one
// day and 00:01 on the next are one day apart.
func CalendarDaysApart(a, b time.Time) int {
	da := truncateToDay(a)
	db := truncateToDay(b)
	diff := int(db.Sub(da).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

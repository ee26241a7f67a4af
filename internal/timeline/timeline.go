// Package timeline holds pure helpers for working with a patient's event
// history: edit validation, date-range filtering, statistics and export.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

// ValidateEdit checks an in-place event edit. The patient and event type are
// immutable once recorded; only the text, drugs and metadata may change.
func ValidateEdit(original, updated models.PatientEvent) error {
	if err := updated.Validate(); err != nil {
		return err
	}
	if original.PatientID != updated.PatientID {
		return fmt.Errorf("cannot change patient_id during edit")
	}
	if original.Type != updated.Type {
		return fmt.Errorf("cannot change event_type during edit")
	}
	if strings.TrimSpace(updated.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}

// AuditEntry records a timeline modification for later review.
type AuditEntry struct {
	Action    string `json:"action"`
	EventID   string `json:"event_id"`
	PatientID string `json:"patient_id"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// NewAuditEntry builds an audit record. An empty user defaults to "system".
func NewAuditEntry(action, eventID, patientID, user string) AuditEntry {
	if user == "" {
		user = "system"
	}
	return AuditEntry{
		Action:    action,
		EventID:   eventID,
		PatientID: patientID,
		User:      user,
		Timestamp: time.Now().UTC().Format(utils.EventTimeLayout),
	}
}

// FilterByDateRange keeps events whose timestamp falls inside the inclusive
// range. A zero bound leaves that side open. Events with unparseable
// timestamps are dropped when any bound is set.
func FilterByDateRange(events []models.PatientEvent, start, end time.Time) []models.PatientEvent {
	if start.IsZero() && end.IsZero() {
		return events
	}
	filtered := make([]models.PatientEvent, 0, len(events))
	for _, event := range events {
		occurred, err := event.OccurredAt()
		if err != nil {
			continue
		}
		if !start.IsZero() && occurred.Before(start) {
			continue
		}
		if !end.IsZero() && occurred.After(end) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// DateRange summarises the temporal extent of a timeline.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
	SpanDays int    `json:"span_days"`
}

// Stats aggregates a patient's timeline.
type Stats struct {
	TotalEvents       int        `json:"total_events"`
	Symptoms          int        `json:"symptoms"`
	Prescriptions     int        `json:"prescriptions"`
	UniqueDrugs       []string   `json:"unique_drugs"`
	DateRange         *DateRange `json:"date_range,omitempty"`
	AvgEventsPerMonth float64    `json:"avg_events_per_month"`
}

// Statistics computes counts, the set of prescribed drugs and the covered
// date range. Unparseable timestamps are ignored for the range but still
// counted as events.
func Statistics(events []models.PatientEvent) Stats {
	stats := Stats{TotalEvents: len(events), UniqueDrugs: []string{}}
	if len(events) == 0 {
		return stats
	}

	drugSet := make(map[string]struct{})
	var timestamps []time.Time
	for _, event := range events {
		switch event.Type {
		case models.EventTypeSymptom:
			stats.Symptoms++
		case models.EventTypePrescription:
			stats.Prescriptions++
			for _, drug := range event.Drugs {
				drugSet[drug] = struct{}{}
			}
		}
		if occurred, err := event.OccurredAt(); err == nil {
			timestamps = append(timestamps, occurred)
		}
	}

	for drug := range drugSet {
		stats.UniqueDrugs = append(stats.UniqueDrugs, drug)
	}
	sort.Strings(stats.UniqueDrugs)

	if len(timestamps) > 0 {
		earliest, latest := timestamps[0], timestamps[0]
		for _, ts := range timestamps[1:] {
			if ts.Before(earliest) {
				earliest = ts
			}
			if ts.After(latest) {
				latest = ts
			}
		}
		spanDays := int(latest.Sub(earliest).Hours() / 24)
		stats.DateRange = &DateRange{
			Earliest: earliest.Format(utils.EventTimeLayout),
			Latest:   latest.Format(utils.EventTimeLayout),
			SpanDays: spanDays,
		}
		if spanDays > 0 {
			months := math.Max(float64(spanDays)/30.0, 0.1)
			stats.AvgEventsPerMonth = math.Round(float64(len(events))/months*100) / 100
		}
	}
	return stats
}

// Export is a portable snapshot of a timeline with internal point ids
// stripped.
type Export struct {
	PatientID       string                `json:"patient_id"`
	ExportTimestamp string                `json:"export_timestamp"`
	EventCount      int                   `json:"event_count"`
	Events          []models.PatientEvent `json:"events"`
}

// ExportTimeline builds an Export for backup or transfer.
func ExportTimeline(events []models.PatientEvent) Export {
	export := Export{
		ExportTimestamp: time.Now().UTC().Format(utils.EventTimeLayout),
		EventCount:      len(events),
		Events:          make([]models.PatientEvent, 0, len(events)),
	}
	if len(events) > 0 {
		export.PatientID = events[0].PatientID
	}
	for _, event := range events {
		event.ID = ""
		export.Events = append(export.Events, event)
	}
	return export
}

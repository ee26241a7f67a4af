package timeline

import (
	"testing"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/models"
)

func event(id string, eventType models.EventType, text, timestamp string, drugs ...string) models.PatientEvent {
	return models.PatientEvent{
		ID:        id,
		PatientID: "p1",
		Type:      eventType,
		Text:      text,
		Timestamp: timestamp,
		Drugs:     drugs,
	}
}

func TestValidateEdit(t *testing.T) {
	original := event("e1", models.EventTypeSymptom, "headache", "2026-01-01T10:00:00Z")

	updated := original
	updated.Text = "headache, mostly mornings"
	if err := ValidateEdit(original, updated); err != nil {
		t.Fatalf("legit edit rejected: %v", err)
	}

	updated = original
	updated.PatientID = "p2"
	if err := ValidateEdit(original, updated); err == nil {
		t.Fatalf("patient change should be rejected")
	}

	updated = original
	updated.Type = models.EventTypePrescription
	if err := ValidateEdit(original, updated); err == nil {
		t.Fatalf("type change should be rejected")
	}

	updated = original
	updated.Text = "   "
	if err := ValidateEdit(original, updated); err == nil {
		t.Fatalf("blank text should be rejected")
	}
}

func TestFilterByDateRange(t *testing.T) {
	events := []models.PatientEvent{
		event("e1", models.EventTypeSymptom, "a", "2026-01-01T00:00:00Z"),
		event("e2", models.EventTypeSymptom, "b", "2026-01-15T00:00:00Z"),
		event("e3", models.EventTypeSymptom, "c", "2026-02-01T00:00:00Z"),
		event("e4", models.EventTypeSymptom, "d", "garbage"),
	}

	got := FilterByDateRange(events, time.Time{}, time.Time{})
	if len(got) != 4 {
		t.Fatalf("open range should keep all events, got %d", len(got))
	}

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	got = FilterByDateRange(events, start, end)
	if len(got) != 1 || got[0].ID != "e2" {
		t.Fatalf("got %v, want just e2", got)
	}

	got = FilterByDateRange(events, start, time.Time{})
	if len(got) != 2 {
		t.Fatalf("open end should keep e2 and e3, got %d", len(got))
	}
}

func TestStatistics(t *testing.T) {
	stats := Statistics(nil)
	if stats.TotalEvents != 0 || stats.DateRange != nil {
		t.Fatalf("empty timeline stats: %+v", stats)
	}

	events := []models.PatientEvent{
		event("e1", models.EventTypeSymptom, "headache", "2026-01-01T00:00:00Z"),
		event("e2", models.EventTypePrescription, "rx", "2026-01-31T00:00:00Z", "warfarin", "aspirin"),
		event("e3", models.EventTypePrescription, "rx", "2026-01-20T00:00:00Z", "aspirin"),
		event("e4", models.EventTypeSymptom, "nausea", "bad-timestamp"),
	}
	stats = Statistics(events)
	if stats.TotalEvents != 4 || stats.Symptoms != 2 || stats.Prescriptions != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if len(stats.UniqueDrugs) != 2 || stats.UniqueDrugs[0] != "aspirin" || stats.UniqueDrugs[1] != "warfarin" {
		t.Fatalf("unexpected drugs: %v", stats.UniqueDrugs)
	}
	if stats.DateRange == nil || stats.DateRange.SpanDays != 30 {
		t.Fatalf("unexpected date range: %+v", stats.DateRange)
	}
	if stats.AvgEventsPerMonth != 4 {
		t.Fatalf("got avg %v, want 4 events over one month", stats.AvgEventsPerMonth)
	}
}

func TestExportTimelineStripsIDs(t *testing.T) {
	events := []models.PatientEvent{
		event("e1", models.EventTypeSymptom, "headache", "2026-01-01T00:00:00Z"),
	}
	export := ExportTimeline(events)
	if export.PatientID != "p1" || export.EventCount != 1 {
		t.Fatalf("unexpected export: %+v", export)
	}
	if export.Events[0].ID != "" {
		t.Fatalf("point id should be stripped from export")
	}
	if events[0].ID != "e1" {
		t.Fatalf("export must not mutate the input")
	}
}

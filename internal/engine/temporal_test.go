package engine

import (
	"testing"

	"github.com/caretracestack/caretrace-engine/internal/models"
)

func prescriptionEvent(timestamp string, drugs ...string) models.PatientEvent {
	return models.PatientEvent{
		PatientID: "patient-1",
		Type:      models.EventTypePrescription,
		Text:      "prescribed " + drugs[0],
		Timestamp: timestamp,
		Drugs:     drugs,
	}
}

func TestCorrelateNoPrescriptions(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	report := correlator.Correlate([]models.PatientEvent{symptomEvent("headache", "2026-01-01")}, nil, "headache")
	if report.Found || report.Reason != models.CorrelationReasonNoPrescriptions {
		t.Fatalf("got %+v, want no_prescriptions", report)
	}
}

func TestCorrelateKeywordNotFound(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	report := correlator.Correlate(
		[]models.PatientEvent{symptomEvent("persistent nausea", "2026-01-01")},
		[]models.PatientEvent{prescriptionEvent("2026-01-02", "ibuprofen")},
		"headache")
	if report.Found || report.Reason != models.CorrelationReasonKeywordNotFound {
		t.Fatalf("got %+v, want keyword_not_found", report)
	}
}

func TestCorrelateSubstringMatchIsCaseInsensitive(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	report := correlator.Correlate(
		[]models.PatientEvent{symptomEvent("Splitting HEADACHE since lunch", "2026-01-05T14:00:00")},
		[]models.PatientEvent{prescriptionEvent("2026-01-03T10:00:00", "lisinopril")},
		"head")
	if !report.Found || len(report.Correlations) != 1 {
		t.Fatalf("got %+v, want one correlation via substring match", report)
	}
	corr := report.Correlations[0]
	if corr.DaysApart != 2 {
		t.Fatalf("got days_apart %d, want 2", corr.DaysApart)
	}
	if len(corr.PrescriptionDrugs) != 1 || corr.PrescriptionDrugs[0] != "lisinopril" {
		t.Fatalf("got drugs %v, want [lisinopril]", corr.PrescriptionDrugs)
	}
}

func TestCorrelateWindowBoundaryInclusive(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	symptoms := []models.PatientEvent{symptomEvent("headache", "2026-01-08T23:00:00")}

	report := correlator.Correlate(symptoms,
		[]models.PatientEvent{prescriptionEvent("2026-01-01T01:00:00", "amlodipine")}, "headache")
	if !report.Found || report.Correlations[0].DaysApart != 7 {
		t.Fatalf("7 days apart should correlate: got %+v", report)
	}

	report = correlator.Correlate(symptoms,
		[]models.PatientEvent{prescriptionEvent("2025-12-30T01:00:00", "amlodipine")}, "headache")
	if report.Found || report.Reason != models.CorrelationReasonNoTemporalOverlap {
		t.Fatalf("9 days apart should not correlate: got %+v", report)
	}
}

func TestCorrelateCrossProduct(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	report := correlator.Correlate(
		[]models.PatientEvent{
			symptomEvent("headache in the morning", "2026-02-10"),
			symptomEvent("headache again", "2026-02-12"),
		},
		[]models.PatientEvent{
			prescriptionEvent("2026-02-09", "metformin"),
			prescriptionEvent("2026-02-11", "atorvastatin"),
		},
		"headache")
	if !report.Found || len(report.Correlations) != 4 {
		t.Fatalf("got %d correlations, want full 2x2 cross product: %+v", len(report.Correlations), report)
	}
}

func TestCorrelateSkipsUnparseableTimestamps(t *testing.T) {
	correlator := NewTemporalCorrelator(nil, 7)
	report := correlator.Correlate(
		[]models.PatientEvent{
			symptomEvent("headache", "yesterday-ish"),
			symptomEvent("headache", "2026-03-02"),
		},
		[]models.PatientEvent{
			prescriptionEvent("not a date", "warfarin"),
			prescriptionEvent("2026-03-01", "warfarin"),
		},
		"headache")
	if !report.Found || len(report.Correlations) != 1 {
		t.Fatalf("got %+v, want exactly one correlation from the parseable pair", report)
	}
}

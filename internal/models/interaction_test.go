package models

import "testing"

func TestSeverityRank(t *testing.T) {
	cases := map[Severity]int{
		SeveritySevere:   3,
		SeverityModerate: 2,
		SeverityMild:     1,
		"SEVERE":         3,
		"unrated":        1,
		"":               1,
	}
	for sev, want := range cases {
		if got := sev.Rank(); got != want {
			t.Fatalf("rank(%q) = %d, want %d", sev, got, want)
		}
	}
}

func TestInteractionMatchesUnordered(t *testing.T) {
	ix := DrugInteraction{DrugA: "Warfarin", DrugB: "Aspirin"}
	if !ix.Matches("aspirin", "WARFARIN") {
		t.Fatalf("expected reversed, case-variant pair to match")
	}
	if ix.Matches("aspirin", "ibuprofen") {
		t.Fatalf("unexpected match")
	}
}

func TestNormaliseBackfillsExplanation(t *testing.T) {
	ix := DrugInteraction{DrugA: "A", DrugB: "B", LegacyDescription: "legacy text"}
	ix.Normalise()
	if ix.Explanation != "legacy text" {
		t.Fatalf("expected explanation backfilled, got %q", ix.Explanation)
	}

	empty := DrugInteraction{DrugA: "A", DrugB: "B"}
	empty.Normalise()
	if empty.Explanation != "" {
		t.Fatalf("expected empty explanation, got %q", empty.Explanation)
	}
}

func TestPatientEventValidate(t *testing.T) {
	good := PatientEvent{PatientID: "p1", Type: EventTypeSymptom, Text: "headache", Timestamp: "2024-03-01T10:00:00Z"}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []PatientEvent{
		{Type: EventTypeSymptom, Text: "x", Timestamp: "2024-03-01"},
		{PatientID: "p1", Type: "note", Text: "x", Timestamp: "2024-03-01"},
		{PatientID: "p1", Type: EventTypeSymptom, Timestamp: "2024-03-01"},
		{PatientID: "p1", Type: EventTypeSymptom, Text: "x"},
	}
	for i, event := range bad {
		if err := event.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

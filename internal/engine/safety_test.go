package engine

import (
	"testing"

	"github.com/caretracestack/caretrace-engine/internal/models"
)

var testKnowledgeBase = []models.DrugInteraction{
	{DrugA: "warfarin", DrugB: "aspirin", Severity: models.SeveritySevere, Explanation: "increased bleeding risk"},
	{DrugA: "warfarin", DrugB: "ibuprofen", Severity: models.SeverityModerate, Explanation: "increased bleeding risk"},
	{DrugA: "lisinopril", DrugB: "ibuprofen", Severity: models.SeverityMild, Explanation: "reduced antihypertensive effect"},
}

func TestCheckNoCurrentMedications(t *testing.T) {
	checker := NewSafetyChecker(nil)
	verdict := checker.Check(nil, "aspirin", testKnowledgeBase)
	if !verdict.Safe || verdict.Code != models.VerdictNoCurrentMedications {
		t.Fatalf("got %+v, want safe with no_current_medications", verdict)
	}
	verdict = checker.Check([]string{"  ", ""}, "aspirin", testKnowledgeBase)
	if verdict.Code != models.VerdictNoCurrentMedications {
		t.Fatalf("blank-only drugs: got code %s, want no_current_medications", verdict.Code)
	}
}

func TestCheckNoKnownInteractions(t *testing.T) {
	checker := NewSafetyChecker(nil)
	verdict := checker.Check([]string{"metformin"}, "aspirin", testKnowledgeBase)
	if !verdict.Safe || verdict.Code != models.VerdictNoKnownInteractions {
		t.Fatalf("got %+v, want safe with no_known_interactions", verdict)
	}
	if len(verdict.Interactions) != 0 {
		t.Fatalf("got %d interactions, want none", len(verdict.Interactions))
	}
}

func TestCheckFlagsInteractionCaseInsensitive(t *testing.T) {
	checker := NewSafetyChecker(nil)
	verdict := checker.Check([]string{" Warfarin "}, "ASPIRIN", testKnowledgeBase)
	if verdict.Safe || verdict.Code != models.VerdictInteractionsFound {
		t.Fatalf("got %+v, want unsafe with interactions_found", verdict)
	}
	if verdict.NewDrug != "aspirin" {
		t.Fatalf("got new drug %q, want normalised aspirin", verdict.NewDrug)
	}
	if verdict.MaxSeverity != models.SeveritySevere {
		t.Fatalf("got max severity %s, want severe", verdict.MaxSeverity)
	}
}

func TestCheckSymmetricPairOrder(t *testing.T) {
	checker := NewSafetyChecker(nil)
	a := checker.Check([]string{"warfarin"}, "aspirin", testKnowledgeBase)
	b := checker.Check([]string{"aspirin"}, "warfarin", testKnowledgeBase)
	if a.Safe != b.Safe || a.Code != b.Code || a.MaxSeverity != b.MaxSeverity {
		t.Fatalf("pair order changed the verdict: %+v vs %+v", a, b)
	}
}

func TestCheckCollectsAllMatchesAndMaxSeverity(t *testing.T) {
	checker := NewSafetyChecker(nil)
	verdict := checker.Check([]string{"lisinopril", "warfarin"}, "ibuprofen", testKnowledgeBase)
	if verdict.Safe || len(verdict.Interactions) != 2 {
		t.Fatalf("got %+v, want two interactions", verdict)
	}
	if verdict.MaxSeverity != models.SeverityModerate {
		t.Fatalf("got max severity %s, want moderate over mild", verdict.MaxSeverity)
	}
}

func TestInteractionDetails(t *testing.T) {
	checker := NewSafetyChecker(nil)
	interaction, ok := checker.InteractionDetails("Aspirin", "warfarin", testKnowledgeBase)
	if !ok || interaction.Severity != models.SeveritySevere {
		t.Fatalf("got %+v ok=%v, want the severe warfarin/aspirin entry", interaction, ok)
	}
	if _, ok := checker.InteractionDetails("aspirin", "metformin", testKnowledgeBase); ok {
		t.Fatalf("unknown pair should not be found")
	}
}

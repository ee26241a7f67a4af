package models

// VerdictCode distinguishes why a safety check came back the way it did.
// "No data" and "checked, clear" are deliberately separate codes.
type VerdictCode string

const (
	VerdictNoCurrentMedications VerdictCode = "no_current_medications"
	VerdictNoKnownInteractions  VerdictCode = "no_known_interactions"
	VerdictInteractionsFound    VerdictCode = "interactions_found"
)

// SafetyVerdict is the outcome of checking a candidate drug against a
// patient's current medication set.
type SafetyVerdict struct {
	Safe         bool              `json:"safe"`
	Code         VerdictCode       `json:"code"`
	NewDrug      string            `json:"new_drug"`
	CurrentDrugs []string          `json:"current_drugs"`
	Interactions []DrugInteraction `json:"interactions"`
	MaxSeverity  Severity          `json:"max_severity,omitempty"`
	Message      string            `json:"message"`
}

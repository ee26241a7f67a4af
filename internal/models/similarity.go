package models

// ScoredEvent pairs an event with its similarity score from vector search.
type ScoredEvent struct {
	Event PatientEvent `json:"event"`
	Score float64      `json:"similarity_score"`
}

// PatientProfile summarises a synthetic patient used for population-level
// comparison.
type PatientProfile struct {
	PatientID   string   `json:"patient_id"`
	Age         int      `json:"age,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Symptoms    []string `json:"symptoms,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

// ScoredProfile pairs a profile with its similarity score.
type ScoredProfile struct {
	Profile PatientProfile `json:"profile"`
	Score   float64        `json:"similarity_score"`
}

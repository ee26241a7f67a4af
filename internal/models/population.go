package models

// SimilarPatientsReport is the outcome of a population similarity lookup.
// SimilarPatients may be populated even when FoundSimilar is false, when
// matches existed but fell below the similarity threshold.
type SimilarPatientsReport struct {
	FoundSimilar    bool            `json:"found_similar"`
	SimilarPatients []ScoredProfile `json:"similar_patients,omitempty"`
	Message         string          `json:"message"`
}

// FrequencyCount pairs an item with how often it appears across a cohort.
type FrequencyCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// PopulationInsight summarises one aspect of a similar-patient cohort.
type PopulationInsight struct {
	InsightType string           `json:"insight_type"`
	Common      []FrequencyCount `json:"common"`
	Message     string           `json:"message"`
}

package models

// CorrelationReason explains a negative temporal-correlation result.
type CorrelationReason string

const (
	CorrelationReasonNoPrescriptions   CorrelationReason = "no_prescriptions"
	CorrelationReasonKeywordNotFound   CorrelationReason = "keyword_not_found"
	CorrelationReasonNoTemporalOverlap CorrelationReason = "no_temporal_overlap"
)

// Correlation links one symptom report to one prescription that fell inside
// the day window. The cross-product may yield several records per symptom.
type Correlation struct {
	SymptomText       string   `json:"symptom_text"`
	SymptomDate       string   `json:"symptom_date"`
	PrescriptionDrugs []string `json:"prescription_drugs"`
	PrescriptionDate  string   `json:"prescription_date"`
	DaysApart         int      `json:"days_apart"`
}

// CorrelationReport is the full outcome of a temporal correlation query.
type CorrelationReport struct {
	Found        bool              `json:"correlation_found"`
	Reason       CorrelationReason `json:"reason,omitempty"`
	Correlations []Correlation     `json:"correlations,omitempty"`
}

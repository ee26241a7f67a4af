package models

// PatternReason explains a negative pattern-detection result.
type PatternReason string

const (
	PatternReasonInsufficientData PatternReason = "insufficient_data"
	PatternReasonNoneDetected     PatternReason = "none_detected"
)

// RecurringPattern describes a symptom keyword that repeats across reports.
// Dates and Reports parallel each other and preserve source event order.
type RecurringPattern struct {
	Keyword string   `json:"symptom_keyword"`
	Count   int      `json:"occurrence_count"`
	Dates   []string `json:"dates"`
	Reports []string `json:"reports"`
}

// PatternReport is the full outcome of a recurrence scan. A negative result
// is a value with a reason code, never an error.
type PatternReport struct {
	HasPatterns bool               `json:"has_patterns"`
	Reason      PatternReason      `json:"reason,omitempty"`
	Patterns    []RecurringPattern `json:"recurring_symptoms,omitempty"`
}

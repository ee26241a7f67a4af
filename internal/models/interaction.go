package models

import "strings"

// Severity captures the impact level of a drug-drug interaction.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities for worst-case comparison: severe > moderate > mild.
// Unrecognised values rank as mild rather than erroring.
func (s Severity) Rank() int {
	switch Severity(strings.ToLower(string(s))) {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	default:
		return 1
	}
}

// DrugInteraction records a known adverse pairing. The pair is unordered:
// (A, B) and (B, A) describe the same relation.
type DrugInteraction struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Severity    Severity `json:"severity"`
	Explanation string   `json:"explanation"`
	Evidence    string   `json:"evidence,omitempty"`

	// LegacyDescription carries the pre-rename explanation field still
	// present on older stored records.
	LegacyDescription string `json:"description,omitempty"`
}

// Normalise guarantees Explanation is populated, backfilling from the legacy
// description field and defaulting to the empty string.
func (i *DrugInteraction) Normalise() {
	if i.Explanation == "" {
		i.Explanation = i.LegacyDescription
	}
	i.LegacyDescription = ""
}

// Matches reports whether the interaction covers the unordered, case-insensitive
// pair (a, b).
func (i DrugInteraction) Matches(a, b string) bool {
	da := NormaliseDrugName(i.DrugA)
	db := NormaliseDrugName(i.DrugB)
	a = NormaliseDrugName(a)
	b = NormaliseDrugName(b)
	return (da == a && db == b) || (da == b && db == a)
}

// NormaliseDrugName lower-cases and trims a drug name for comparison.
func NormaliseDrugName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

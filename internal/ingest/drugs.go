package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// knownDrugs is a small built-in lexicon covering common medications. A
// production deployment would swap this for a drug-database lookup.
var knownDrugs = []string{
	"aspirin", "ibuprofen", "paracetamol", "acetaminophen",
	"metformin", "lisinopril", "amlodipine", "atorvastatin",
	"warfarin", "clopidogrel", "omeprazole", "levothyroxine",
	"simvastatin", "losartan", "metoprolol", "furosemide",
	"prednisone", "amoxicillin", "azithromycin", "ciprofloxacin",
}

// dosagePattern matches a capitalised word followed by a dosage, which in
// prescription text is usually a drug name, e.g. "Naproxen 250mg".
var dosagePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:in|ol|ide|one|cin)?)\s*\d+\s*(?:mg|ML|tablet)`)

// ExtractDrugNames pulls probable drug names out of recognised prescription
// text. Names are title-cased, deduplicated and sorted for stable output.
func ExtractDrugNames(text string) []string {
	seen := make(map[string]struct{})
	lower := strings.ToLower(text)

	for _, drug := range knownDrugs {
		if strings.Contains(lower, drug) {
			seen[capitalise(drug)] = struct{}{}
		}
	}

	for _, match := range dosagePattern.FindAllStringSubmatch(text, -1) {
		seen[capitalise(match[1])] = struct{}{}
	}

	drugs := make([]string, 0, len(seen))
	for drug := range seen {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)
	return drugs
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

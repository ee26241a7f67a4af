package engine

import (
	"log/slog"
	"sort"

	"github.com/caretracestack/caretrace-engine/internal/models"
)

// minEventsForPatterns is the smallest history that can exhibit recurrence.
const minEventsForPatterns = 2

// PatternDetector finds symptom keywords that repeat across a patient's
// reports. Each call is a pure function of its arguments.
type PatternDetector struct {
	repeatThreshold int
	minKeywordLen   int
	logger          *slog.Logger
}

// NewPatternDetector constructs a detector. A non-positive threshold falls
// back to requiring two occurrences.
func NewPatternDetector(logger *slog.Logger, repeatThreshold, minKeywordLen int) *PatternDetector {
	if logger == nil {
		logger = slog.Default()
	}
	if repeatThreshold <= 0 {
		repeatThreshold = 2
	}
	if minKeywordLen <= 0 {
		minKeywordLen = DefaultMinKeywordLength
	}
	return &PatternDetector{
		repeatThreshold: repeatThreshold,
		minKeywordLen:   minKeywordLen,
		logger:          logger,
	}
}

type keywordOccurrence struct {
	timestamp string
	text      string
}

// Detect scans symptom events for recurring keywords. Callers supply only
// symptom events, in their preferred order; output dates and reports follow
// that order. Patterns are listed by occurrence count descending, ties by
// first appearance, so results are deterministic.
func (d *PatternDetector) Detect(symptomEvents []models.PatientEvent) models.PatternReport {
	if len(symptomEvents) < minEventsForPatterns {
		return models.PatternReport{HasPatterns: false, Reason: models.PatternReasonInsufficientData}
	}

	occurrences := make(map[string][]keywordOccurrence)
	firstSeen := make(map[string]int)
	order := 0

	for _, event := range symptomEvents {
		for _, keyword := range Keywords(event.Text, d.minKeywordLen) {
			if _, ok := firstSeen[keyword]; !ok {
				firstSeen[keyword] = order
				order++
			}
			occurrences[keyword] = append(occurrences[keyword], keywordOccurrence{
				timestamp: event.Timestamp,
				text:      event.Text,
			})
		}
	}

	recurring := make([]string, 0, len(occurrences))
	for keyword, occs := range occurrences {
		if len(occs) >= d.repeatThreshold {
			recurring = append(recurring, keyword)
		}
	}
	if len(recurring) == 0 {
		return models.PatternReport{HasPatterns: false, Reason: models.PatternReasonNoneDetected}
	}

	sort.Slice(recurring, func(i, j int) bool {
		ci, cj := len(occurrences[recurring[i]]), len(occurrences[recurring[j]])
		if ci != cj {
			return ci > cj
		}
		return firstSeen[recurring[i]] < firstSeen[recurring[j]]
	})

	patterns := make([]models.RecurringPattern, 0, len(recurring))
	for _, keyword := range recurring {
		occs := occurrences[keyword]
		pattern := models.RecurringPattern{
			Keyword: keyword,
			Count:   len(occs),
			Dates:   make([]string, 0, len(occs)),
			Reports: make([]string, 0, len(occs)),
		}
		for _, occ := range occs {
			pattern.Dates = append(pattern.Dates, occ.timestamp)
			pattern.Reports = append(pattern.Reports, occ.text)
		}
		patterns = append(patterns, pattern)
	}

	d.logger.Debug("recurring symptom scan complete",
		slog.Int("events", len(symptomEvents)),
		slog.Int("patterns", len(patterns)))

	return models.PatternReport{HasPatterns: true, Patterns: patterns}
}

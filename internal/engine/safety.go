package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caretracestack/caretrace-engine/internal/models"
)

// SafetyChecker evaluates a candidate drug against a patient's current
// medications using a knowledge base of known pairwise interactions.
type SafetyChecker struct {
	logger *slog.Logger
}

func NewSafetyChecker(logger *slog.Logger) *SafetyChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SafetyChecker{logger: logger}
}

// Check compares the candidate against every current medication and collects
// all known interactions, never stopping at the first hit. The verdict's
// MaxSeverity is the highest-ranked severity among the matches.
func (s *SafetyChecker) Check(currentDrugs []string, candidate string, knowledgeBase []models.DrugInteraction) models.SafetyVerdict {
	newDrug := models.NormaliseDrugName(candidate)

	normalised := make([]string, 0, len(currentDrugs))
	for _, drug := range currentDrugs {
		if name := models.NormaliseDrugName(drug); name != "" {
			normalised = append(normalised, name)
		}
	}

	if len(normalised) == 0 {
		return models.SafetyVerdict{
			Safe:         true,
			Code:         models.VerdictNoCurrentMedications,
			NewDrug:      newDrug,
			CurrentDrugs: []string{},
			Interactions: []models.DrugInteraction{},
			Message:      fmt.Sprintf("no current medications on record; no interactions to check for %s", newDrug),
		}
	}

	var found []models.DrugInteraction
	var maxSeverity models.Severity
	for _, current := range normalised {
		for _, interaction := range knowledgeBase {
			if interaction.Matches(newDrug, current) {
				found = append(found, interaction)
				if interaction.Severity.Rank() > maxSeverity.Rank() || maxSeverity == "" {
					maxSeverity = interaction.Severity
				}
			}
		}
	}

	if len(found) == 0 {
		return models.SafetyVerdict{
			Safe:         true,
			Code:         models.VerdictNoKnownInteractions,
			NewDrug:      newDrug,
			CurrentDrugs: normalised,
			Interactions: []models.DrugInteraction{},
			Message:      fmt.Sprintf("no known interactions between %s and current medications", newDrug),
		}
	}

	s.logger.Info("drug interactions flagged",
		slog.String("candidate", newDrug),
		slog.Int("matches", len(found)),
		slog.String("max_severity", string(maxSeverity)))

	return models.SafetyVerdict{
		Safe:         false,
		Code:         models.VerdictInteractionsFound,
		NewDrug:      newDrug,
		CurrentDrugs: normalised,
		Interactions: found,
		MaxSeverity:  maxSeverity,
		Message: fmt.Sprintf("%d known interaction(s) found for %s; highest severity %s",
			len(found), newDrug, strings.ToLower(string(maxSeverity))),
	}
}

// InteractionDetails returns the first knowledge-base entry covering the
// unordered pair, or false when the pair is not on record.
func (s *SafetyChecker) InteractionDetails(drugA, drugB string, knowledgeBase []models.DrugInteraction) (models.DrugInteraction, bool) {
	for _, interaction := range knowledgeBase {
		if interaction.Matches(drugA, drugB) {
			return interaction, true
		}
	}
	return models.DrugInteraction{}, false
}

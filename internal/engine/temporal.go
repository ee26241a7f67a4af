package engine

import (
	"log/slog"
	"strings"

	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

// TemporalCorrelator relates symptom reports to prescriptions that were
// recorded within a calendar-day window of each other.
type TemporalCorrelator struct {
	windowDays int
	logger     *slog.Logger
}

// NewTemporalCorrelator constructs a correlator. A non-positive window falls
// back to seven days.
func NewTemporalCorrelator(logger *slog.Logger, windowDays int) *TemporalCorrelator {
	if logger == nil {
		logger = slog.Default()
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &TemporalCorrelator{windowDays: windowDays, logger: logger}
}

// Correlate pairs every symptom whose text contains the keyword with every
// prescription recorded within the window. Matching is a case-insensitive
// substring test, so "head" matches "headache". Events whose timestamps fail
// to parse are left out of the pairing rather than failing the whole call.
func (c *TemporalCorrelator) Correlate(symptoms, prescriptions []models.PatientEvent, keyword string) models.CorrelationReport {
	if len(prescriptions) == 0 {
		return models.CorrelationReport{Found: false, Reason: models.CorrelationReasonNoPrescriptions}
	}

	needle := strings.ToLower(strings.TrimSpace(keyword))
	matched := make([]models.PatientEvent, 0, len(symptoms))
	for _, symptom := range symptoms {
		if strings.Contains(strings.ToLower(symptom.Text), needle) {
			matched = append(matched, symptom)
		}
	}
	if len(matched) == 0 {
		return models.CorrelationReport{Found: false, Reason: models.CorrelationReasonKeywordNotFound}
	}

	var correlations []models.Correlation
	for _, symptom := range matched {
		symptomAt, err := utils.ParseEventTime(symptom.Timestamp)
		if err != nil {
			c.logger.Warn("skipping symptom with unparseable timestamp",
				slog.String("timestamp", symptom.Timestamp))
			continue
		}
		for _, prescription := range prescriptions {
			prescribedAt, err := utils.ParseEventTime(prescription.Timestamp)
			if err != nil {
				c.logger.Warn("skipping prescription with unparseable timestamp",
					slog.String("timestamp", prescription.Timestamp))
				continue
			}
			daysApart := utils.CalendarDaysApart(symptomAt, prescribedAt)
			if daysApart <= c.windowDays {
				correlations = append(correlations, models.Correlation{
					SymptomText:       symptom.Text,
					SymptomDate:       symptom.Timestamp,
					PrescriptionDrugs: prescription.Drugs,
					PrescriptionDate:  prescription.Timestamp,
					DaysApart:         daysApart,
				})
			}
		}
	}

	if len(correlations) == 0 {
		return models.CorrelationReport{Found: false, Reason: models.CorrelationReasonNoTemporalOverlap}
	}
	return models.CorrelationReport{Found: true, Correlations: correlations}
}

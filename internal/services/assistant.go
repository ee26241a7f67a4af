package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/embedding"
	"github.com/caretracestack/caretrace-engine/internal/engine"
	"github.com/caretracestack/caretrace-engine/internal/metrics"
	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/repo"
	"github.com/caretracestack/caretrace-engine/internal/timeline"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

// EventStore defines the storage operations the assistant needs. The Qdrant
// repository is the production implementation.
type EventStore interface {
	StoreEvent(ctx context.Context, event models.PatientEvent, vector []float32) error
	UpdateEvent(ctx context.Context, event models.PatientEvent, vector []float32) error
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (models.PatientEvent, error)
	PatientHistory(ctx context.Context, patientID string, eventType models.EventType) ([]models.PatientEvent, error)
	SimilarSymptoms(ctx context.Context, patientID string, vector []float32, limit int, threshold float64) ([]models.ScoredEvent, error)
	AllInteractions(ctx context.Context) ([]models.DrugInteraction, error)
	SimilarPatients(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.ScoredProfile, error)
}

// ErrNotFound mirrors the repo sentinel so handlers need not import repo.
var ErrNotFound = repo.ErrNotFound

// ErrValidation marks bad caller input. Handlers map it to a client error.
var ErrValidation = errors.New("validation failed")

// BulkDeleteResult summarises a multi-event delete.
type BulkDeleteResult struct {
	Success []string `json:"success"`
	Failed  []string `json:"failed"`
	Total   int      `json:"total"`
}

// AssistantService orchestrates ingestion, storage and the analysis engines
// behind a single facade used by the HTTP layer.
type AssistantService struct {
	logger              *slog.Logger
	store               EventStore
	embedder            embedding.Embedder
	detector            *engine.PatternDetector
	correlator          *engine.TemporalCorrelator
	checker             *engine.SafetyChecker
	similarityThreshold float64
	latencies           *utils.LatencyTracker
}

// NewAssistantService constructs the assistant facade.
func NewAssistantService(
	logger *slog.Logger,
	store EventStore,
	embedder embedding.Embedder,
	detector *engine.PatternDetector,
	correlator *engine.TemporalCorrelator,
	checker *engine.SafetyChecker,
	similarityThreshold float64,
) *AssistantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantService{
		logger:              logger,
		store:               store,
		embedder:            embedder,
		detector:            detector,
		correlator:          correlator,
		checker:             checker,
		similarityThreshold: similarityThreshold,
		latencies:           utils.NewLatencyTracker(1024),
	}
}

// RecordEvent embeds an event's text and stores it.
func (s *AssistantService) RecordEvent(ctx context.Context, event models.PatientEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	vector, err := s.embedder.Embed(ctx, event.Text)
	if err != nil {
		return utils.NewAppError("services.RecordEvent", "embed event text", err)
	}
	if err := s.store.StoreEvent(ctx, event, vector); err != nil {
		return utils.NewAppError("services.RecordEvent", "store event", err)
	}

	metrics.ObserveEventIngested(string(event.Type))
	s.logger.Info("event recorded",
		slog.String("event_id", event.ID),
		slog.String("patient_id", event.PatientID),
		slog.String("event_type", string(event.Type)))
	return nil
}

// UpdateEvent validates an edit against the stored original and re-embeds
// the text before writing it back.
func (s *AssistantService) UpdateEvent(ctx context.Context, event models.PatientEvent) error {
	original, err := s.store.GetEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	if err := timeline.ValidateEdit(original, event); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	vector, err := s.embedder.Embed(ctx, event.Text)
	if err != nil {
		return utils.NewAppError("services.UpdateEvent", "embed event text", err)
	}
	if err := s.store.UpdateEvent(ctx, event, vector); err != nil {
		return utils.NewAppError("services.UpdateEvent", "update event", err)
	}

	audit := timeline.NewAuditEntry("edit", event.ID, event.PatientID, "")
	s.logger.Info("event edited",
		slog.String("event_id", audit.EventID),
		slog.String("patient_id", audit.PatientID),
		slog.String("user", audit.User))
	return nil
}

// DeleteEvent removes a single event.
func (s *AssistantService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return utils.NewAppError("services.DeleteEvent", "delete event", err)
	}

	audit := timeline.NewAuditEntry("delete", id, event.PatientID, "")
	s.logger.Info("event deleted",
		slog.String("event_id", audit.EventID),
		slog.String("patient_id", audit.PatientID))
	return nil
}

// BulkDeleteEvents deletes many events, reporting per-id success.
func (s *AssistantService) BulkDeleteEvents(ctx context.Context, ids []string) BulkDeleteResult {
	result := BulkDeleteResult{Success: []string{}, Failed: []string{}, Total: len(ids)}
	for _, id := range ids {
		if err := s.DeleteEvent(ctx, id); err != nil {
			s.logger.Warn("bulk delete entry failed", slog.String("event_id", id), slog.Any("error", err))
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Success = append(result.Success, id)
	}
	return result
}

// History returns a patient's events, optionally filtered by type and
// bounded to the most recent limit entries.
func (s *AssistantService) History(ctx context.Context, patientID string, eventType models.EventType, limit int) ([]models.PatientEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	events, err := s.store.PatientHistory(ctx, patientID, eventType)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// DetectRecurringSymptoms runs the pattern detector over a patient's symptom
// history.
func (s *AssistantService) DetectRecurringSymptoms(ctx context.Context, patientID string) (models.PatternReport, error) {
	start := time.Now()
	symptoms, err := s.store.PatientHistory(ctx, patientID, models.EventTypeSymptom)
	if err != nil {
		metrics.ObservePatternScan(metrics.OutcomeError)
		return models.PatternReport{}, err
	}

	report := s.detector.Detect(symptoms)
	duration := time.Since(start)
	s.latencies.Observe(duration)
	metrics.ObservePatternScan(metrics.OutcomeSuccess)
	metrics.ObserveAnalysis("pattern_scan", duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency snapshot",
			slog.Int("samples", count),
			slog.Duration("p95", s.latencies.Percentile(95)))
	}
	return report, nil
}

// CorrelateWithMedications relates a symptom keyword to the patient's
// prescriptions in time.
func (s *AssistantService) CorrelateWithMedications(ctx context.Context, patientID, keyword string) (models.CorrelationReport, error) {
	if strings.TrimSpace(keyword) == "" {
		return models.CorrelationReport{}, fmt.Errorf("%w: keyword is required", ErrValidation)
	}

	start := time.Now()
	symptoms, err := s.store.PatientHistory(ctx, patientID, models.EventTypeSymptom)
	if err != nil {
		return models.CorrelationReport{}, err
	}
	prescriptions, err := s.store.PatientHistory(ctx, patientID, models.EventTypePrescription)
	if err != nil {
		return models.CorrelationReport{}, err
	}

	report := s.correlator.Correlate(symptoms, prescriptions, keyword)
	metrics.ObserveAnalysis("correlation", time.Since(start))
	return report, nil
}

// CheckMedication evaluates a candidate drug against every drug from the
// patient's prescription history.
func (s *AssistantService) CheckMedication(ctx context.Context, patientID, drug string) (models.SafetyVerdict, error) {
	if strings.TrimSpace(drug) == "" {
		return models.SafetyVerdict{}, fmt.Errorf("%w: drug name is required", ErrValidation)
	}

	start := time.Now()
	prescriptions, err := s.store.PatientHistory(ctx, patientID, models.EventTypePrescription)
	if err != nil {
		return models.SafetyVerdict{}, err
	}

	seen := make(map[string]struct{})
	var currentDrugs []string
	for _, prescription := range prescriptions {
		for _, name := range prescription.Drugs {
			normalised := models.NormaliseDrugName(name)
			if normalised == "" {
				continue
			}
			if _, ok := seen[normalised]; ok {
				continue
			}
			seen[normalised] = struct{}{}
			currentDrugs = append(currentDrugs, normalised)
		}
	}

	knowledgeBase, err := s.store.AllInteractions(ctx)
	if err != nil {
		return models.SafetyVerdict{}, err
	}

	verdict := s.checker.Check(currentDrugs, drug, knowledgeBase)
	metrics.ObserveSafetyCheck(string(verdict.Code))
	metrics.ObserveAnalysis("safety_check", time.Since(start))
	return verdict, nil
}

// InteractionDetails looks up the knowledge-base entry for a drug pair.
func (s *AssistantService) InteractionDetails(ctx context.Context, drugA, drugB string) (models.DrugInteraction, error) {
	if strings.TrimSpace(drugA) == "" || strings.TrimSpace(drugB) == "" {
		return models.DrugInteraction{}, fmt.Errorf("%w: both drug names are required", ErrValidation)
	}
	knowledgeBase, err := s.store.AllInteractions(ctx)
	if err != nil {
		return models.DrugInteraction{}, err
	}
	interaction, ok := s.checker.InteractionDetails(drugA, drugB, knowledgeBase)
	if !ok {
		return models.DrugInteraction{}, fmt.Errorf("interaction %s/%s: %w", drugA, drugB, ErrNotFound)
	}
	return interaction, nil
}

// SimilarSymptoms embeds a free-text query and searches a patient's symptom
// events for semantic matches.
func (s *AssistantService) SimilarSymptoms(ctx context.Context, patientID, query string, limit int) ([]models.ScoredEvent, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, utils.NewAppError("services.SimilarSymptoms", "embed query", err)
	}
	return s.store.SimilarSymptoms(ctx, patientID, vector, limit, s.similarityThreshold)
}

// SimilarPatients searches the synthetic population for patients resembling
// the target's medication and symptom profile.
func (s *AssistantService) SimilarPatients(ctx context.Context, patientID string, limit int) (models.SimilarPatientsReport, error) {
	if limit <= 0 {
		limit = 3
	}

	summary, err := s.buildPatientSummary(ctx, patientID)
	if err != nil {
		return models.SimilarPatientsReport{}, err
	}
	if summary == "" {
		return models.SimilarPatientsReport{
			FoundSimilar: false,
			Message:      "insufficient patient data to find similar cases",
		}, nil
	}

	vector, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		return models.SimilarPatientsReport{}, utils.NewAppError("services.SimilarPatients", "embed patient summary", err)
	}

	// One extra result in case the patient matches their own profile.
	scored, err := s.store.SimilarPatients(ctx, vector, limit+1, 0)
	if err != nil {
		return models.SimilarPatientsReport{}, err
	}

	others := make([]models.ScoredProfile, 0, len(scored))
	for _, profile := range scored {
		if profile.Profile.PatientID == patientID {
			continue
		}
		others = append(others, profile)
		if len(others) == limit {
			break
		}
	}
	if len(others) == 0 {
		return models.SimilarPatientsReport{
			FoundSimilar: false,
			Message:      "no similar patients found in population",
		}, nil
	}

	relevant := make([]models.ScoredProfile, 0, len(others))
	for _, profile := range others {
		if profile.Score >= s.similarityThreshold {
			relevant = append(relevant, profile)
		}
	}
	if len(relevant) == 0 {
		return models.SimilarPatientsReport{
			FoundSimilar:    false,
			SimilarPatients: others,
			Message:         fmt.Sprintf("found %d patients but none above similarity threshold (%.2f)", len(others), s.similarityThreshold),
		}, nil
	}

	return models.SimilarPatientsReport{
		FoundSimilar:    true,
		SimilarPatients: relevant,
		Message:         fmt.Sprintf("found %d similar patient(s) with high similarity scores", len(relevant)),
	}, nil
}

// PopulationInsights analyses one aspect of the similar-patient cohort.
// Focus is one of "medications", "symptoms" or "conditions".
func (s *AssistantService) PopulationInsights(ctx context.Context, patientID, focus string) (models.PopulationInsight, error) {
	report, err := s.SimilarPatients(ctx, patientID, 5)
	if err != nil {
		return models.PopulationInsight{}, err
	}
	if !report.FoundSimilar {
		return models.PopulationInsight{InsightType: focus, Common: []models.FrequencyCount{}, Message: report.Message}, nil
	}

	var items []string
	for _, profile := range report.SimilarPatients {
		switch focus {
		case "medications":
			items = append(items, profile.Profile.Medications...)
		case "symptoms":
			items = append(items, profile.Profile.Symptoms...)
		case "conditions":
			items = append(items, profile.Profile.Conditions...)
		default:
			return models.PopulationInsight{}, fmt.Errorf("%w: unknown focus area %q", ErrValidation, focus)
		}
	}

	common := topFrequencies(items, 5)
	names := make([]string, 0, 3)
	for i, fc := range common {
		if i == 3 {
			break
		}
		names = append(names, fc.Item)
	}
	return models.PopulationInsight{
		InsightType: focus,
		Common:      common,
		Message: fmt.Sprintf("among %d similar patients, most common %s are: %s",
			len(report.SimilarPatients), focus, strings.Join(names, ", ")),
	}, nil
}

// TimelineStats aggregates a patient's full history.
func (s *AssistantService) TimelineStats(ctx context.Context, patientID string) (timeline.Stats, error) {
	events, err := s.store.PatientHistory(ctx, patientID, "")
	if err != nil {
		return timeline.Stats{}, err
	}
	return timeline.Statistics(events), nil
}

func (s *AssistantService) buildPatientSummary(ctx context.Context, patientID string) (string, error) {
	symptoms, err := s.store.PatientHistory(ctx, patientID, models.EventTypeSymptom)
	if err != nil {
		return "", err
	}
	prescriptions, err := s.store.PatientHistory(ctx, patientID, models.EventTypePrescription)
	if err != nil {
		return "", err
	}
	if len(symptoms) == 0 && len(prescriptions) == 0 {
		return "", nil
	}

	seen := make(map[string]struct{})
	var medications []string
	for _, prescription := range prescriptions {
		for _, drug := range prescription.Drugs {
			if _, ok := seen[drug]; ok {
				continue
			}
			seen[drug] = struct{}{}
			medications = append(medications, drug)
		}
	}
	sort.Strings(medications)

	var parts []string
	if len(medications) > 0 {
		parts = append(parts, "Medications: "+strings.Join(medications, ", "))
	}
	if len(symptoms) > 0 {
		// Most recent reports carry the strongest signal.
		recent := make([]string, 0, 3)
		for i := len(symptoms) - 1; i >= 0 && len(recent) < 3; i-- {
			recent = append(recent, symptoms[i].Text)
		}
		parts = append(parts, "Recent symptoms: "+strings.Join(recent, " "))
	}
	return strings.Join(parts, ". "), nil
}

func topFrequencies(items []string, limit int) []models.FrequencyCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, item := range items {
		if _, ok := counts[item]; !ok {
			firstSeen[item] = i
		}
		counts[item]++
	}

	unique := make([]string, 0, len(counts))
	for item := range counts {
		unique = append(unique, item)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return firstSeen[unique[i]] < firstSeen[unique[j]]
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	result := make([]models.FrequencyCount, 0, len(unique))
	for _, item := range unique {
		result = append(result, models.FrequencyCount{Item: item, Count: counts[item]})
	}
	return result
}

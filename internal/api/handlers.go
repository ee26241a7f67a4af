package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caretracestack/caretrace-engine/internal/ingest"
	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/services"
	"github.com/caretracestack/caretrace-engine/internal/timeline"
)

// Assistant is the service surface the HTTP layer depends on.
type Assistant interface {
	RecordEvent(ctx context.Context, event models.PatientEvent) error
	UpdateEvent(ctx context.Context, event models.PatientEvent) error
	DeleteEvent(ctx context.Context, id string) error
	BulkDeleteEvents(ctx context.Context, ids []string) services.BulkDeleteResult
	History(ctx context.Context, patientID string, eventType models.EventType, limit int) ([]models.PatientEvent, error)
	DetectRecurringSymptoms(ctx context.Context, patientID string) (models.PatternReport, error)
	CorrelateWithMedications(ctx context.Context, patientID, keyword string) (models.CorrelationReport, error)
	CheckMedication(ctx context.Context, patientID, drug string) (models.SafetyVerdict, error)
	InteractionDetails(ctx context.Context, drugA, drugB string) (models.DrugInteraction, error)
	SimilarSymptoms(ctx context.Context, patientID, query string, limit int) ([]models.ScoredEvent, error)
	SimilarPatients(ctx context.Context, patientID string, limit int) (models.SimilarPatientsReport, error)
	PopulationInsights(ctx context.Context, patientID, focus string) (models.PopulationInsight, error)
	TimelineStats(ctx context.Context, patientID string) (timeline.Stats, error)
}

// Handler wires HTTP endpoints to the assistant service.
type Handler struct {
	assistant Assistant
	ingestor  *ingest.Ingestor
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(assistant Assistant, ingestor *ingest.Ingestor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{assistant: assistant, ingestor: ingestor, logger: logger}
}

// respondError maps service errors onto HTTP status codes: bad input is the
// caller's fault, missing records are 404 and anything else is a failing
// dependency.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "dependency failure"})
	}
}

type createEventRequest struct {
	EventType string   `json:"event_type" binding:"required"`
	Text      string   `json:"text" binding:"required"`
	Drugs     []string `json:"drugs"`
}

// CreateEvent records a manually entered event for a patient.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.ingestor.ManualEvent(c.Param("id"), models.EventType(req.EventType), req.Text, req.Drugs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.assistant.RecordEvent(c.Request.Context(), event); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// ListEvents returns a patient's history, optionally filtered by type.
func (h *Handler) ListEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	eventType := models.EventType(c.Query("type"))
	if eventType != "" && eventType != models.EventTypeSymptom && eventType != models.EventTypePrescription {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be symptom or prescription"})
		return
	}

	events, err := h.assistant.History(c.Request.Context(), c.Param("id"), eventType, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// Patterns runs the recurring-symptom scan.
func (h *Handler) Patterns(c *gin.Context) {
	report, err := h.assistant.DetectRecurringSymptoms(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Correlations relates a symptom keyword to recent prescriptions.
func (h *Handler) Correlations(c *gin.Context) {
	report, err := h.assistant.CorrelateWithMedications(c.Request.Context(), c.Param("id"), c.Query("keyword"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type safetyCheckRequest struct {
	Drug string `json:"drug" binding:"required"`
}

// SafetyCheck evaluates a candidate drug against the patient's medications.
func (h *Handler) SafetyCheck(c *gin.Context) {
	var req safetyCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verdict, err := h.assistant.CheckMedication(c.Request.Context(), c.Param("id"), req.Drug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// SimilarPatients returns population-level matches for a patient.
func (h *Handler) SimilarPatients(c *gin.Context) {
	limit := 3
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	report, err := h.assistant.SimilarPatients(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Insights analyses one aspect of the similar-patient cohort.
func (h *Handler) Insights(c *gin.Context) {
	insight, err := h.assistant.PopulationInsights(c.Request.Context(), c.Param("id"), c.DefaultQuery("focus", "medications"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insight)
}

// TimelineStats aggregates a patient's history.
func (h *Handler) TimelineStats(c *gin.Context) {
	stats, err := h.assistant.TimelineStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InteractionDetails looks up a drug pair in the knowledge base.
func (h *Handler) InteractionDetails(c *gin.Context) {
	interaction, err := h.assistant.InteractionDetails(c.Request.Context(), c.Query("drug_a"), c.Query("drug_b"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interaction)
}

type symptomSearchRequest struct {
	Query     string `json:"query" binding:"required"`
	PatientID string `json:"patient_id" binding:"required"`
	Limit     int    `json:"limit"`
}

// SearchSymptoms finds semantically similar symptom reports.
func (h *Handler) SearchSymptoms(c *gin.Context) {
	var req symptomSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.assistant.SimilarSymptoms(c.Request.Context(), req.PatientID, req.Query, req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type updateEventRequest struct {
	PatientID string            `json:"patient_id" binding:"required"`
	EventType string            `json:"event_type" binding:"required"`
	Text      string            `json:"text" binding:"required"`
	Timestamp string            `json:"timestamp" binding:"required"`
	Drugs     []string          `json:"drugs"`
	Metadata  map[string]string `json:"metadata"`
}

// UpdateEvent edits an existing event in place.
func (h *Handler) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event := models.PatientEvent{
		ID:        c.Param("id"),
		PatientID: req.PatientID,
		Type:      models.EventType(req.EventType),
		Text:      req.Text,
		Timestamp: req.Timestamp,
		Drugs:     req.Drugs,
		Metadata:  req.Metadata,
	}
	if err := h.assistant.UpdateEvent(c.Request.Context(), event); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes one event.
func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.assistant.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BulkDeleteEvents removes several events, reporting per-id outcomes.
func (h *Handler) BulkDeleteEvents(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.assistant.BulkDeleteEvents(c.Request.Context(), req.IDs)
	c.JSON(http.StatusOK, result)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

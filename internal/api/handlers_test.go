package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/caretracestack/caretrace-engine/internal/ingest"
	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/services"
	"github.com/caretracestack/caretrace-engine/internal/timeline"
)

type stubAssistant struct {
	recorded []models.PatientEvent
	verdict  models.SafetyVerdict
	report   models.PatternReport
	err      error
}

func (s *stubAssistant) RecordEvent(_ context.Context, event models.PatientEvent) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, event)
	return nil
}

func (s *stubAssistant) UpdateEvent(context.Context, models.PatientEvent) error { return s.err }
func (s *stubAssistant) DeleteEvent(context.Context, string) error              { return s.err }

func (s *stubAssistant) BulkDeleteEvents(_ context.Context, ids []string) services.BulkDeleteResult {
	return services.BulkDeleteResult{Success: ids, Failed: []string{}, Total: len(ids)}
}

func (s *stubAssistant) History(context.Context, string, models.EventType, int) ([]models.PatientEvent, error) {
	return nil, s.err
}

func (s *stubAssistant) DetectRecurringSymptoms(context.Context, string) (models.PatternReport, error) {
	return s.report, s.err
}

func (s *stubAssistant) CorrelateWithMedications(context.Context, string, string) (models.CorrelationReport, error) {
	return models.CorrelationReport{}, s.err
}

func (s *stubAssistant) CheckMedication(context.Context, string, string) (models.SafetyVerdict, error) {
	return s.verdict, s.err
}

func (s *stubAssistant) InteractionDetails(context.Context, string, string) (models.DrugInteraction, error) {
	return models.DrugInteraction{}, s.err
}

func (s *stubAssistant) SimilarSymptoms(context.Context, string, string, int) ([]models.ScoredEvent, error) {
	return nil, s.err
}

func (s *stubAssistant) SimilarPatients(context.Context, string, int) (models.SimilarPatientsReport, error) {
	return models.SimilarPatientsReport{}, s.err
}

func (s *stubAssistant) PopulationInsights(context.Context, string, string) (models.PopulationInsight, error) {
	return models.PopulationInsight{}, s.err
}

func (s *stubAssistant) TimelineStats(context.Context, string) (timeline.Stats, error) {
	return timeline.Stats{}, s.err
}

func newTestRouter(stub *stubAssistant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(stub, ingest.NewIngestor(nil, nil, nil), nil)
	return NewRouter(handler)
}

func TestCreateEvent(t *testing.T) {
	stub := &stubAssistant{}
	router := newTestRouter(stub)

	body := `{"event_type":"symptom","text":"dull headache"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/p1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(stub.recorded) != 1 || stub.recorded[0].PatientID != "p1" {
		t.Fatalf("event not recorded for path patient: %+v", stub.recorded)
	}
	if stub.recorded[0].ID == "" || stub.recorded[0].Timestamp == "" {
		t.Fatalf("event should get id and timestamp at ingestion: %+v", stub.recorded[0])
	}
}

func TestCreateEventRejectsBadType(t *testing.T) {
	router := newTestRouter(&stubAssistant{})

	body := `{"event_type":"diagnosis","text":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/p1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestSafetyCheckStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"validation", fmt.Errorf("%w: drug required", services.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("event: %w", services.ErrNotFound), http.StatusNotFound},
		{"dependency", fmt.Errorf("qdrant down"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubAssistant{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/p1/safety-check", strings.NewReader(`{"drug":"aspirin"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("got status %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestListEventsValidatesQuery(t *testing.T) {
	router := newTestRouter(&stubAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p1/events?type=diagnosis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type: got status %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients/p1/events?limit=abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got status %d, want 400", rec.Code)
	}
}

func TestPatternsReturnsReport(t *testing.T) {
	stub := &stubAssistant{report: models.PatternReport{
		HasPatterns: true,
		Patterns:    []models.RecurringPattern{{Keyword: "headache", Count: 2}},
	}}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/p1/patterns", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var report models.PatternReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !report.HasPatterns || report.Patterns[0].Keyword != "headache" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestBulkDelete(t *testing.T) {
	router := newTestRouter(&stubAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/bulk-delete", strings.NewReader(`{"ids":["e1","e2"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var result services.BulkDeleteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Total != 2 || len(result.Success) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubAssistant{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

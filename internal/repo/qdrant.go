package repo

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/cache"
	"github.com/caretracestack/caretrace-engine/internal/config"
	"github.com/caretracestack/caretrace-engine/internal/models"
)

// ErrNotFound signals that a requested point does not exist in the store.
var ErrNotFound = errors.New("not found")

// QdrantRepo stores patient events, the drug-interaction knowledge base and
// synthetic patient profiles in Qdrant over its REST API.
type QdrantRepo struct {
	endpoint         string
	apiKey           string
	httpClient       *http.Client
	cache            cache.Provider
	logger           *slog.Logger
	eventsColl       string
	interactionsColl string
	profilesColl     string
	vectorDim        int
	historyLimit     int
	scanSize         int
	interactionsTTL  time.Duration
	similarTTL       time.Duration
}

// NewQdrantRepo constructs a Qdrant client. A nil cache provider disables
// caching via the noop implementation.
func NewQdrantRepo(cfg config.QdrantConfig, cacheProvider cache.Provider, interactionsTTL, similarTTL time.Duration, logger *slog.Logger) *QdrantRepo {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 100
	}
	scanSize := cfg.InteractionScanSize
	if scanSize <= 0 {
		scanSize = 1000
	}
	return &QdrantRepo{
		endpoint:         strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:           cfg.APIKey,
		httpClient:       &http.Client{Timeout: timeout},
		cache:            cacheProvider,
		logger:           logger,
		eventsColl:       cfg.EventsCollection,
		interactionsColl: cfg.InteractionsColl,
		profilesColl:     cfg.ProfilesCollection,
		vectorDim:        cfg.VectorDimension,
		historyLimit:     historyLimit,
		scanSize:         scanSize,
		interactionsTTL:  interactionsTTL,
		similarTTL:       similarTTL,
	}
}

// do issues a JSON request and decodes the wrapped Qdrant response body into
// out when out is non-nil.
func (r *QdrantRepo) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode qdrant response: %w", err)
	}
	return nil
}

// EnsureCollections creates the three collections if they do not already
// exist. Existing collections are left untouched.
func (r *QdrantRepo) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{r.eventsColl, r.interactionsColl, r.profilesColl} {
		if name == "" {
			continue
		}
		payload := map[string]interface{}{
			"vectors": map[string]interface{}{
				"size":     r.vectorDim,
				"distance": "Cosine",
			},
		}
		err := r.do(ctx, http.MethodPut, "/collections/"+name, payload, nil)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
		r.logger.Debug("collection ready", slog.String("collection", name))
	}
	return nil
}

func eventPayload(event models.PatientEvent) map[string]interface{} {
	payload := map[string]interface{}{
		"patient_id": event.PatientID,
		"event_type": string(event.Type),
		"text":       event.Text,
		"timestamp":  event.Timestamp,
	}
	if len(event.Drugs) > 0 {
		payload["drugs"] = event.Drugs
	}
	if len(event.Metadata) > 0 {
		payload["metadata"] = event.Metadata
	}
	return payload
}

type qdrantPoint struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score,omitempty"`
	Payload map[string]interface{} `json:"payload"`
}

func eventFromPayload(id string, payload map[string]interface{}) models.PatientEvent {
	event := models.PatientEvent{ID: id}
	if v, ok := payload["patient_id"].(string); ok {
		event.PatientID = v
	}
	if v, ok := payload["event_type"].(string); ok {
		event.Type = models.EventType(v)
	}
	if v, ok := payload["text"].(string); ok {
		event.Text = v
	}
	if v, ok := payload["timestamp"].(string); ok {
		event.Timestamp = v
	}
	if raw, ok := payload["drugs"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				event.Drugs = append(event.Drugs, s)
			}
		}
	}
	if raw, ok := payload["metadata"].(map[string]interface{}); ok {
		event.Metadata = make(map[string]string, len(raw))
		for k, item := range raw {
			if s, ok := item.(string); ok {
				event.Metadata[k] = s
			}
		}
	}
	return event
}

// StoreEvent upserts a patient event with its embedding.
func (r *QdrantRepo) StoreEvent(ctx context.Context, event models.PatientEvent, vector []float32) error {
	payload := map[string]interface{}{
		"points": []map[string]interface{}{{
			"id":      event.ID,
			"vector":  vector,
			"payload": eventPayload(event),
		}},
	}
	if err := r.do(ctx, http.MethodPut, "/collections/"+r.eventsColl+"/points?wait=true", payload, nil); err != nil {
		return fmt.Errorf("store event %s: %w", event.ID, err)
	}
	return nil
}

// UpdateEvent overwrites an existing event. Upsert semantics make this the
// same call as StoreEvent; existence is checked first so callers get a clean
// ErrNotFound for unknown ids.
func (r *QdrantRepo) UpdateEvent(ctx context.Context, event models.PatientEvent, vector []float32) error {
	if _, err := r.GetEvent(ctx, event.ID); err != nil {
		return err
	}
	return r.StoreEvent(ctx, event, vector)
}

// DeleteEvent removes an event point by id.
func (r *QdrantRepo) DeleteEvent(ctx context.Context, id string) error {
	if _, err := r.GetEvent(ctx, id); err != nil {
		return err
	}
	payload := map[string]interface{}{"points": []string{id}}
	if err := r.do(ctx, http.MethodPost, "/collections/"+r.eventsColl+"/points/delete?wait=true", payload, nil); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// GetEvent fetches a single event point by id.
func (r *QdrantRepo) GetEvent(ctx context.Context, id string) (models.PatientEvent, error) {
	var response struct {
		Result qdrantPoint `json:"result"`
	}
	if err := r.do(ctx, http.MethodGet, "/collections/"+r.eventsColl+"/points/"+id, nil, &response); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.PatientEvent{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return models.PatientEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return eventFromPayload(response.Result.ID, response.Result.Payload), nil
}

// PatientHistory returns a patient's events, optionally filtered by type,
// ordered oldest first. A failed fetch is an error, never an empty history.
func (r *QdrantRepo) PatientHistory(ctx context.Context, patientID string, eventType models.EventType) ([]models.PatientEvent, error) {
	must := []map[string]interface{}{
		{"key": "patient_id", "match": map[string]interface{}{"value": patientID}},
	}
	if eventType != "" {
		must = append(must, map[string]interface{}{
			"key": "event_type", "match": map[string]interface{}{"value": string(eventType)},
		})
	}
	payload := map[string]interface{}{
		"filter":       map[string]interface{}{"must": must},
		"limit":        r.historyLimit,
		"with_payload": true,
	}

	var response struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	if err := r.do(ctx, http.MethodPost, "/collections/"+r.eventsColl+"/points/scroll", payload, &response); err != nil {
		return nil, fmt.Errorf("patient history for %s: %w", patientID, err)
	}

	events := make([]models.PatientEvent, 0, len(response.Result.Points))
	for _, point := range response.Result.Points {
		events = append(events, eventFromPayload(point.ID, point.Payload))
	}
	sortEventsByTime(events)
	return events, nil
}

// sortEventsByTime orders events oldest first. Events with unparseable
// timestamps keep their relative order at the end.
func sortEventsByTime(events []models.PatientEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, errI := events[i].OccurredAt()
		tj, errJ := events[j].OccurredAt()
		if errI != nil {
			return false
		}
		if errJ != nil {
			return true
		}
		return ti.Before(tj)
	})
}

// SimilarSymptoms runs a nearest-neighbour search over a patient's events.
func (r *QdrantRepo) SimilarSymptoms(ctx context.Context, patientID string, vector []float32, limit int, threshold float64) ([]models.ScoredEvent, error) {
	if limit <= 0 {
		limit = 5
	}
	payload := map[string]interface{}{
		"vector": vector,
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": "patient_id", "match": map[string]interface{}{"value": patientID}},
				{"key": "event_type", "match": map[string]interface{}{"value": string(models.EventTypeSymptom)}},
			},
		},
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": threshold,
	}

	var response struct {
		Result []qdrantPoint `json:"result"`
	}
	if err := r.do(ctx, http.MethodPost, "/collections/"+r.eventsColl+"/points/search", payload, &response); err != nil {
		return nil, fmt.Errorf("similar symptoms for %s: %w", patientID, err)
	}

	scored := make([]models.ScoredEvent, 0, len(response.Result))
	for _, point := range response.Result {
		scored = append(scored, models.ScoredEvent{
			Event: eventFromPayload(point.ID, point.Payload),
			Score: point.Score,
		})
	}
	return scored, nil
}

const interactionsCacheKey = "qdrant:interactions:all"

// AllInteractions returns the full drug-interaction knowledge base. The
// result is cached because safety checks read it on every call while the
// base itself changes rarely.
func (r *QdrantRepo) AllInteractions(ctx context.Context) ([]models.DrugInteraction, error) {
	if r.interactionsTTL > 0 {
		if data, err := r.cache.Get(ctx, interactionsCacheKey); err == nil {
			var cached []models.DrugInteraction
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]interface{}{
		"limit":        r.scanSize,
		"with_payload": true,
	}
	var response struct {
		Result struct {
			Points []qdrantPoint `json:"points"`
		} `json:"result"`
	}
	if err := r.do(ctx, http.MethodPost, "/collections/"+r.interactionsColl+"/points/scroll", payload, &response); err != nil {
		return nil, fmt.Errorf("load interaction knowledge base: %w", err)
	}

	interactions := make([]models.DrugInteraction, 0, len(response.Result.Points))
	for _, point := range response.Result.Points {
		data, err := json.Marshal(point.Payload)
		if err != nil {
			continue
		}
		var interaction models.DrugInteraction
		if err := json.Unmarshal(data, &interaction); err != nil {
			r.logger.Warn("skipping malformed interaction point", slog.String("id", point.ID))
			continue
		}
		interaction.Normalise()
		interactions = append(interactions, interaction)
	}

	if r.interactionsTTL > 0 && len(interactions) > 0 {
		if data, err := json.Marshal(interactions); err == nil {
			_ = r.cache.Set(ctx, interactionsCacheKey, data, r.interactionsTTL)
		}
	}
	return interactions, nil
}

// StoreInteraction upserts a knowledge-base entry and invalidates the cache.
func (r *QdrantRepo) StoreInteraction(ctx context.Context, id string, interaction models.DrugInteraction, vector []float32) error {
	interaction.Normalise()
	payload := map[string]interface{}{
		"points": []map[string]interface{}{{
			"id":     id,
			"vector": vector,
			"payload": map[string]interface{}{
				"drug_a":      models.NormaliseDrugName(interaction.DrugA),
				"drug_b":      models.NormaliseDrugName(interaction.DrugB),
				"severity":    string(interaction.Severity),
				"explanation": interaction.Explanation,
				"evidence":    interaction.Evidence,
			},
		}},
	}
	if err := r.do(ctx, http.MethodPut, "/collections/"+r.interactionsColl+"/points?wait=true", payload, nil); err != nil {
		return fmt.Errorf("store interaction %s/%s: %w", interaction.DrugA, interaction.DrugB, err)
	}
	_ = r.cache.Del(ctx, interactionsCacheKey)
	return nil
}

// StoreProfile upserts a synthetic patient profile used for population-level
// similarity lookups.
func (r *QdrantRepo) StoreProfile(ctx context.Context, id string, profile models.PatientProfile, vector []float32) error {
	payload := map[string]interface{}{
		"points": []map[string]interface{}{{
			"id":     id,
			"vector": vector,
			"payload": map[string]interface{}{
				"patient_id":  profile.PatientID,
				"age":         profile.Age,
				"conditions":  profile.Conditions,
				"medications": profile.Medications,
				"symptoms":    profile.Symptoms,
				"summary":     profile.Summary,
			},
		}},
	}
	if err := r.do(ctx, http.MethodPut, "/collections/"+r.profilesColl+"/points?wait=true", payload, nil); err != nil {
		return fmt.Errorf("store profile %s: %w", profile.PatientID, err)
	}
	return nil
}

// vectorCacheKey derives a stable cache key for a query vector.
func vectorCacheKey(prefix string, vector []float32, limit int) string {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range vector {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%s:%d:%x", prefix, limit, h.Sum64())
}

// SimilarPatients searches the synthetic profile collection for patients
// resembling the given description vector. Results are cached briefly since
// the same patient summary is queried repeatedly while a clinician browses.
func (r *QdrantRepo) SimilarPatients(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.ScoredProfile, error) {
	if limit <= 0 {
		limit = 5
	}

	cacheKey := ""
	if r.similarTTL > 0 {
		cacheKey = vectorCacheKey("qdrant:similar_patients", vector, limit)
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.ScoredProfile
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]interface{}{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": threshold,
	}
	var response struct {
		Result []qdrantPoint `json:"result"`
	}
	if err := r.do(ctx, http.MethodPost, "/collections/"+r.profilesColl+"/points/search", payload, &response); err != nil {
		return nil, fmt.Errorf("similar patients: %w", err)
	}

	scored := make([]models.ScoredProfile, 0, len(response.Result))
	for _, point := range response.Result {
		data, err := json.Marshal(point.Payload)
		if err != nil {
			continue
		}
		var profile models.PatientProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			continue
		}
		scored = append(scored, models.ScoredProfile{Profile: profile, Score: point.Score})
	}

	if cacheKey != "" && len(scored) > 0 {
		if data, err := json.Marshal(scored); err == nil {
			_ = r.cache.Set(ctx, cacheKey, data, r.similarTTL)
		}
	}
	return scored, nil
}

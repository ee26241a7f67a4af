package models

import (
	"fmt"
	"time"

	"github.com/caretracestack/caretrace-engine/internal/utils"
)

// EventType distinguishes the two kinds of patient timeline entries.
type EventType string

const (
	EventTypeSymptom      EventType = "symptom"
	EventTypePrescription EventType = "prescription"
)

// PatientEvent is a timestamped symptom report or prescription record. The ID
// is assigned at ingestion and is opaque to the analysis engines.
type PatientEvent struct {
	ID        string            `json:"point_id,omitempty"`
	PatientID string            `json:"patient_id"`
	Type      EventType         `json:"event_type"`
	Text      string            `json:"text"`
	Timestamp string            `json:"timestamp"`
	Drugs     []string          `json:"drugs"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Validate checks required fields at the data-access boundary so the engines
// can assume well-formed records.
func (e PatientEvent) Validate() error {
	if e.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if e.Type != EventTypeSymptom && e.Type != EventTypePrescription {
		return fmt.Errorf("unknown event_type %q", e.Type)
	}
	if e.Text == "" {
		return fmt.Errorf("text is required")
	}
	if e.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// OccurredAt parses the event timestamp. Events whose timestamp fails to
// parse are excluded from time-based analysis rather than failing it.
func (e PatientEvent) OccurredAt() (time.Time, error) {
	return utils.ParseEventTime(e.Timestamp)
}

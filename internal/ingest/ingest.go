// Package ingest converts raw inputs, manual entries, audio recordings and
// prescription images, into structured patient events. It never stores data;
// persistence belongs to the service layer.
package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

// Transcriber converts an audio file into text, reporting the detected
// language when the backend knows it.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (text, language string, err error)
}

// TextRecognizer extracts raw text from an image file.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, imagePath string) (string, error)
}

// Ingestor builds events from the supported input channels.
type Ingestor struct {
	transcriber Transcriber
	recognizer  TextRecognizer
	logger      *slog.Logger
	now         func() time.Time
}

// NewIngestor constructs an Ingestor. Transcriber and recognizer may be nil
// when the corresponding input channel is not deployed.
func NewIngestor(transcriber Transcriber, recognizer TextRecognizer, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		transcriber: transcriber,
		recognizer:  recognizer,
		logger:      logger,
		now:         time.Now,
	}
}

func (i *Ingestor) newEvent(patientID string, eventType models.EventType, text string, drugs []string, metadata map[string]string) models.PatientEvent {
	if drugs == nil {
		drugs = []string{}
	}
	return models.PatientEvent{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Type:      eventType,
		Text:      text,
		Timestamp: i.now().UTC().Format(utils.EventTimeLayout),
		Drugs:     drugs,
		Metadata:  metadata,
	}
}

// ManualEvent builds an event from direct user input, stamping it with the
// current UTC time.
func (i *Ingestor) ManualEvent(patientID string, eventType models.EventType, text string, drugs []string) (models.PatientEvent, error) {
	event := i.newEvent(patientID, eventType, text, drugs, map[string]string{
		"source": "manual_entry",
	})
	if err := event.Validate(); err != nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ManualEvent", "invalid event", err)
	}
	return event, nil
}

// ProcessAudio transcribes a symptom recording into a symptom event.
func (i *Ingestor) ProcessAudio(ctx context.Context, audioPath, patientID string) (models.PatientEvent, error) {
	if i.transcriber == nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessAudio", "no transcriber configured", nil)
	}

	text, language, err := i.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessAudio", "transcription failed", err)
	}
	i.logger.Info("audio transcribed",
		slog.String("file", filepath.Base(audioPath)),
		slog.String("language", language))

	event := i.newEvent(patientID, models.EventTypeSymptom, text, nil, map[string]string{
		"source":   "audio",
		"filename": filepath.Base(audioPath),
		"language": language,
	})
	if err := event.Validate(); err != nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessAudio", "invalid event", err)
	}
	return event, nil
}

// ProcessPrescription runs OCR on a prescription image and extracts drug
// names from the recognised text.
func (i *Ingestor) ProcessPrescription(ctx context.Context, imagePath, patientID string) (models.PatientEvent, error) {
	if i.recognizer == nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessPrescription", "no text recognizer configured", nil)
	}

	text, err := i.recognizer.RecognizeText(ctx, imagePath)
	if err != nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessPrescription", "text recognition failed", err)
	}

	drugs := ExtractDrugNames(text)
	i.logger.Info("prescription processed",
		slog.String("file", filepath.Base(imagePath)),
		slog.Int("drugs", len(drugs)))

	event := i.newEvent(patientID, models.EventTypePrescription, text, drugs, map[string]string{
		"source":   "prescription_image",
		"filename": filepath.Base(imagePath),
	})
	if err := event.Validate(); err != nil {
		return models.PatientEvent{}, utils.NewAppError("ingest.ProcessPrescription", "invalid event", err)
	}
	return event, nil
}

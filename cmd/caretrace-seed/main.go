// Command caretrace-seed prepares the vector store: it creates the
// collections, loads the curated drug-interaction knowledge base and can
// optionally load demo patient timelines.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/caretracestack/caretrace-engine/internal/cache"
	"github.com/caretracestack/caretrace-engine/internal/config"
	"github.com/caretracestack/caretrace-engine/internal/embedding"
	"github.com/caretracestack/caretrace-engine/internal/models"
	"github.com/caretracestack/caretrace-engine/internal/repo"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

var knowledgeBase = []models.DrugInteraction{
	{
		DrugA:       "Warfarin",
		DrugB:       "Aspirin",
		Severity:    models.SeveritySevere,
		Explanation: "Combined anticoagulant and antiplatelet therapy increases risk of major bleeding.",
		Evidence:    "FDA drug interaction database",
	},
	{
		DrugA:       "Warfarin",
		DrugB:       "Ibuprofen",
		Severity:    models.SeveritySevere,
		Explanation: "NSAIDs like ibuprofen significantly increase bleeding risk when combined with warfarin.",
	},
	{
		DrugA:       "Warfarin",
		DrugB:       "Clopidogrel",
		Severity:    models.SeveritySevere,
		Explanation: "Dual anticoagulant and antiplatelet therapy greatly increases bleeding complications.",
	},
	{
		DrugA:       "Aspirin",
		DrugB:       "Ibuprofen",
		Severity:    models.SeverityModerate,
		Explanation: "Ibuprofen can interfere with aspirin's antiplatelet effect and increase GI bleeding risk.",
	},
	{
		DrugA:       "Lisinopril",
		DrugB:       "Ibuprofen",
		Severity:    models.SeverityModerate,
		Explanation: "NSAIDs may reduce the effectiveness of ACE inhibitors and increase kidney stress.",
		Evidence:    "Clinical pharmacology literature",
	},
	{
		DrugA:       "Metformin",
		DrugB:       "Furosemide",
		Severity:    models.SeverityModerate,
		Explanation: "Diuretics can increase risk of lactic acidosis with Metformin.",
		Evidence:    "Drug interaction compendia",
	},
	{
		DrugA:       "Simvastatin",
		DrugB:       "Amlodipine",
		Severity:    models.SeverityModerate,
		Explanation: "Amlodipine increases Simvastatin levels, raising risk of muscle damage.",
		Evidence:    "Pharmacokinetic studies",
	},
	{
		DrugA:       "Clopidogrel",
		DrugB:       "Omeprazole",
		Severity:    models.SeverityModerate,
		Explanation: "Omeprazole reduces Clopidogrel effectiveness for preventing blood clots.",
		Evidence:    "FDA warning 2009",
	},
	{
		DrugA:       "Prednisone",
		DrugB:       "Aspirin",
		Severity:    models.SeverityModerate,
		Explanation: "Both increase risk of stomach ulcers and GI bleeding.",
		Evidence:    "Clinical guidelines",
	},
	{
		DrugA:       "Levothyroxine",
		DrugB:       "Calcium Carbonate",
		Severity:    models.SeverityMild,
		Explanation: "Calcium reduces absorption of levothyroxine when taken together.",
	},
}

type demoEvent struct {
	eventType models.EventType
	text      string
	drugs     []string
	daysAgo   int
}

var demoPatients = map[string][]demoEvent{
	"patient_001": {
		{models.EventTypePrescription, "Metformin 500mg twice daily, Lisinopril 10mg daily", []string{"Metformin", "Lisinopril"}, 30},
		{models.EventTypeSymptom, "Having headaches for the past 3 days, feeling tired", nil, 15},
		{models.EventTypeSymptom, "Headache is still there, also feeling dizzy when standing up", nil, 12},
		{models.EventTypePrescription, "Ibuprofen 400mg as needed for headaches", []string{"Ibuprofen"}, 10},
		{models.EventTypeSymptom, "Headache improved but now having stomach discomfort", nil, 5},
	},
	"patient_002": {
		{models.EventTypePrescription, "Aspirin 100mg daily, Atorvastatin 20mg nightly", []string{"Aspirin", "Atorvastatin"}, 60},
		{models.EventTypeSymptom, "Chest pain during walking, shortness of breath", nil, 20},
		{models.EventTypePrescription, "Warfarin 5mg daily for atrial fibrillation", []string{"Warfarin"}, 15},
		{models.EventTypeSymptom, "Notice bruising easily, small cut took long time to stop bleeding", nil, 8},
	},
	"patient_003": {
		{models.EventTypePrescription, "Albuterol inhaler as needed", []string{"Albuterol"}, 90},
		{models.EventTypeSymptom, "Wheezing and cough getting worse over past week", nil, 10},
		{models.EventTypePrescription, "Prednisone 20mg daily for 5 days", []string{"Prednisone"}, 8},
		{models.EventTypeSymptom, "Breathing better but having stomach upset and heartburn", nil, 4},
	},
}

func main() {
	var configPath string
	var withDemo bool
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&withDemo, "demo", false, "Also load demo patient timelines")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := repo.NewQdrantRepo(cfg.Qdrant, cache.NoopProvider{}, 0, 0, logger)
	if err := store.EnsureCollections(ctx); err != nil {
		logger.Error("failed to create collections", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("collections ready")

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.Error("failed to create embedder", slog.Any("error", err))
		os.Exit(1)
	}

	for _, interaction := range knowledgeBase {
		text := fmt.Sprintf("%s and %s: %s", interaction.DrugA, interaction.DrugB, interaction.Explanation)
		vector, err := embedder.Embed(ctx, text)
		if err != nil {
			logger.Error("failed to embed interaction", slog.String("pair", interaction.DrugA+"/"+interaction.DrugB), slog.Any("error", err))
			os.Exit(1)
		}
		if err := store.StoreInteraction(ctx, uuid.NewString(), interaction, vector); err != nil {
			logger.Error("failed to store interaction", slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("knowledge base seeded", slog.Int("interactions", len(knowledgeBase)))

	if !withDemo {
		return
	}

	now := time.Now().UTC()
	total := 0
	for patientID, events := range demoPatients {
		for _, demo := range events {
			drugs := demo.drugs
			if drugs == nil {
				drugs = []string{}
			}
			event := models.PatientEvent{
				ID:        uuid.NewString(),
				PatientID: patientID,
				Type:      demo.eventType,
				Text:      demo.text,
				Timestamp: now.AddDate(0, 0, -demo.daysAgo).Format(utils.EventTimeLayout),
				Drugs:     drugs,
				Metadata:  map[string]string{"source": "demo_timeline"},
			}
			vector, err := embedder.Embed(ctx, event.Text)
			if err != nil {
				logger.Error("failed to embed demo event", slog.Any("error", err))
				os.Exit(1)
			}
			if err := store.StoreEvent(ctx, event, vector); err != nil {
				logger.Error("failed to store demo event", slog.Any("error", err))
				os.Exit(1)
			}
			total++
		}
		logger.Info("demo patient loaded", slog.String("patient_id", patientID), slog.Int("events", len(events)))
	}
	logger.Info("demo data seeded", slog.Int("events", total))
}

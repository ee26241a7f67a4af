package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Safety.PatternRepeatThreshold != 2 {
		t.Fatalf("expected default repeat threshold 2, got %d", cfg.Safety.PatternRepeatThreshold)
	}
	if cfg.Safety.CorrelationWindowDays != 7 {
		t.Fatalf("expected default window 7, got %d", cfg.Safety.CorrelationWindowDays)
	}
	if cfg.Qdrant.EventsCollection != "patient_events" {
		t.Fatalf("unexpected events collection %q", cfg.Qdrant.EventsCollection)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caretrace.yaml")
	body := []byte("server:\n  address: \":9090\"\nsafety:\n  patternRepeatThreshold: 3\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CARETRACE_QDRANT_URL", "http://qdrant.internal:6333")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("expected file override, got %q", cfg.Server.Address)
	}
	if cfg.Safety.PatternRepeatThreshold != 3 {
		t.Fatalf("expected threshold 3, got %d", cfg.Safety.PatternRepeatThreshold)
	}
	if cfg.Qdrant.Endpoint != "http://qdrant.internal:6333" {
		t.Fatalf("expected env override, got %q", cfg.Qdrant.Endpoint)
	}
	if cfg.Server.GracefulTimeout != 10*time.Second {
		t.Fatalf("expected default graceful timeout, got %v", cfg.Server.GracefulTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the caretrace engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
	Safety    SafetyConfig    `yaml:"safety"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// QdrantConfig configures the vector store holding events and interactions.
type QdrantConfig struct {
	Endpoint            string        `yaml:"endpoint"`
	APIKey              string        `yaml:"apiKey"`
	Timeout             time.Duration `yaml:"timeout"`
	EventsCollection    string        `yaml:"eventsCollection"`
	InteractionsColl    string        `yaml:"interactionsCollection"`
	ProfilesCollection  string        `yaml:"profilesCollection"`
	VectorDimension     int           `yaml:"vectorDimension"`
	HistoryLimit        int           `yaml:"historyLimit"`
	InteractionScanSize int           `yaml:"interactionScanSize"`
}

// EmbeddingConfig selects the embedding collaborator.
type EmbeddingConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// SafetyConfig holds analysis thresholds.
type SafetyConfig struct {
	PatternRepeatThreshold int     `yaml:"patternRepeatThreshold"`
	CorrelationWindowDays  int     `yaml:"correlationWindowDays"`
	SimilarityThreshold    float64 `yaml:"similarityThreshold"`
	MinKeywordLength       int     `yaml:"minKeywordLength"`
}

// CacheConfig controls Redis-backed caching of expensive lookups.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Addr            string        `yaml:"addr"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	DB              int           `yaml:"db"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	InteractionsTTL time.Duration `yaml:"interactionsTTL"`
	SimilarTTL      time.Duration `yaml:"similarTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CARETRACE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Qdrant: QdrantConfig{
			Endpoint:            "http://localhost:6333",
			Timeout:             10 * time.Second,
			EventsCollection:    "patient_events",
			InteractionsColl:    "drug_interactions",
			ProfilesCollection:  "synthetic_patient_profiles",
			VectorDimension:     384,
			HistoryLimit:        100,
			InteractionScanSize: 1000,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "all-minilm",
			BaseURL:  "http://localhost:11434",
			Timeout:  120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Safety: SafetyConfig{
			PatternRepeatThreshold: 2,
			CorrelationWindowDays:  7,
			SimilarityThreshold:    0.7,
			MinKeywordLength:       4,
		},
		Cache: CacheConfig{
			Enabled:         false,
			DialTimeout:     2 * time.Second,
			ReadTimeout:     500 * time.Millisecond,
			WriteTimeout:    500 * time.Millisecond,
			InteractionsTTL: 10 * time.Minute,
			SimilarTTL:      2 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CARETRACE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CARETRACE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CARETRACE_QDRANT_URL"); v != "" {
		cfg.Qdrant.Endpoint = v
	}
	if v := os.Getenv("CARETRACE_QDRANT_API_KEY"); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := os.Getenv("CARETRACE_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("CARETRACE_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("CARETRACE_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("CARETRACE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARETRACE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CARETRACE_PATTERN_REPEAT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Safety.PatternRepeatThreshold = n
		}
	}
	if v := os.Getenv("CARETRACE_CORRELATION_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Safety.CorrelationWindowDays = n
		}
	}
	if v := os.Getenv("CARETRACE_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Safety.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("CARETRACE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("CARETRACE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CARETRACE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CARETRACE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CARETRACE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CARETRACE_CACHE_INTERACTIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.InteractionsTTL = d
		}
	}
	if v := os.Getenv("CARETRACE_CACHE_SIMILAR_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SimilarTTL = d
		}
	}
}

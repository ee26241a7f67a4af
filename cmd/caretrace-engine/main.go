package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caretracestack/caretrace-engine/internal/api"
	"github.com/caretracestack/caretrace-engine/internal/cache"
	"github.com/caretracestack/caretrace-engine/internal/config"
	"github.com/caretracestack/caretrace-engine/internal/embedding"
	"github.com/caretracestack/caretrace-engine/internal/engine"
	"github.com/caretracestack/caretrace-engine/internal/ingest"
	"github.com/caretracestack/caretrace-engine/internal/metrics"
	"github.com/caretracestack/caretrace-engine/internal/repo"
	"github.com/caretracestack/caretrace-engine/internal/services"
	"github.com/caretracestack/caretrace-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting caretrace-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(ctx, cfg.Cache)
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	store := repo.NewQdrantRepo(cfg.Qdrant, cacheProvider, cfg.Cache.InteractionsTTL, cfg.Cache.SimilarTTL, logger)
	if err := store.EnsureCollections(ctx); err != nil {
		logger.Error("failed to prepare qdrant collections", slog.Any("error", err))
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.Error("failed to create embedder", slog.Any("error", err))
		os.Exit(1)
	}

	assistant := services.NewAssistantService(
		logger,
		store,
		embedder,
		engine.NewPatternDetector(logger, cfg.Safety.PatternRepeatThreshold, cfg.Safety.MinKeywordLength),
		engine.NewTemporalCorrelator(logger, cfg.Safety.CorrelationWindowDays),
		engine.NewSafetyChecker(logger),
		cfg.Safety.SimilarityThreshold,
	)

	ingestor := ingest.NewIngestor(nil, nil, logger)
	handler := api.NewHandler(assistant, ingestor, logger)
	server := api.NewServer(cfg.Server, handler, logger)

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("api server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("caretrace-engine stopped")
}

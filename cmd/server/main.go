package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/risk-zone-service/internal/adapter/arcgis"
	"github.com/couchcryptid/risk-zone-service/internal/adapter/backend"
	"github.com/couchcryptid/risk-zone-service/internal/adapter/gemini"
	httpadapter "github.com/couchcryptid/risk-zone-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/risk-zone-service/internal/adapter/kafka"
	"github.com/couchcryptid/risk-zone-service/internal/adapter/objectstore"
	"github.com/couchcryptid/risk-zone-service/internal/analysis"
	"github.com/couchcryptid/risk-zone-service/internal/config"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
	"github.com/couchcryptid/risk-zone-service/internal/zones"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := zones.Load(cfg.ZonesFile)
	if err != nil {
		logger.Error("failed to load zone catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("zone catalog loaded", "zones", len(catalog.List()), "cities", len(catalog.Cities()))

	client := arcgis.NewClient(arcgis.Options{
		BaseURL: cfg.ImageryBaseURL,
		Timeout: cfg.ImageryTimeout,
		Delta:   cfg.ImageryDelta,
		Size:    cfg.ImagerySize,
	}, metrics, logger)
	imagery, err := arcgis.NewCachedImagery(client, cfg.ImageryCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create imagery cache", "error", err)
		os.Exit(1)
	}

	photoBackend := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)

	// Image analyzer: the backend endpoint by default, or Gemini in-process.
	var analyzer domain.ImageAnalyzer = photoBackend
	var closers []func() error
	if cfg.Analyzer == config.AnalyzerGemini {
		g, err := gemini.NewAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("failed to create gemini analyzer", "error", err)
			os.Exit(1)
		}
		analyzer = g
		closers = append(closers, g.Close)
		logger.Info("gemini analyzer enabled", "model", cfg.GeminiModel, "offline", g.Offline())
	} else {
		logger.Info("backend analyzer enabled", "backend_url", cfg.BackendURL)
	}

	var opts []analysis.Option
	if cfg.ArchiveEnabled {
		archive, err := objectstore.NewSnapshotArchive(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create snapshot archive", "error", err)
			os.Exit(1)
		}
		opts = append(opts, analysis.WithArchive(archive))
		logger.Info("snapshot archive enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}
	if cfg.KafkaEnabled {
		notifier := kafkaadapter.NewNotifier(cfg, logger)
		opts = append(opts, analysis.WithNotifier(notifier))
		closers = append(closers, notifier.Close)
		logger.Info("zone notifications enabled", "topic", cfg.KafkaNotifyTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("zone notifications disabled")
	}

	orchestrator := analysis.New(imagery, analyzer, photoBackend, logger, metrics, opts...)
	tracker := analysis.NewTracker(metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, catalog, orchestrator, tracker, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

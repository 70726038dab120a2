// Package analysis coordinates residence analyses of risk zones: satellite
// capture and photo uploads against the external collaborators, and the
// bookkeeping that keeps only the latest result per zone.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

// ErrNoPhotos is returned by AnalyzePhotos when called without photos.
var ErrNoPhotos = errors.New("no photos to analyze")

// SnapshotArchiver stores captured imagery and returns a reference to it.
type SnapshotArchiver interface {
	PutSnapshot(ctx context.Context, zoneID int, img domain.Image) (string, error)
}

// Notifier publishes zone notifications to the municipality feed.
type Notifier interface {
	Notify(ctx context.Context, notification domain.ZoneNotification) error
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithArchive stores every captured snapshot. Archive failures are logged and
// do not fail the analysis.
func WithArchive(a SnapshotArchiver) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithNotifier publishes a notification when a zone at a notifiable level is
// analyzed.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// Orchestrator runs analyses against the imagery provider, the image analyzer
// and the photo backend. It holds no per-request state.
type Orchestrator struct {
	imagery  domain.ImageryProvider
	analyzer domain.ImageAnalyzer
	photos   domain.PhotoBackend
	archive  SnapshotArchiver
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates an Orchestrator with the given collaborators and observability.
func New(imagery domain.ImageryProvider, analyzer domain.ImageAnalyzer, photos domain.PhotoBackend, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		imagery:  imagery,
		analyzer: analyzer,
		photos:   photos,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	metrics.NotificationsEnabled.Set(0)
	if o.notifier != nil {
		metrics.NotificationsEnabled.Set(1)
	}
	return o
}

// CaptureAndAnalyze captures a satellite snapshot of the zone and asks the
// analyzer how many residences it shows. A count reported by the analyzer
// wins over the one extracted from its description; a reported confidence
// outside [0,1] is replaced by the heuristic. A failure in either call ends
// the attempt without a partial result.
func (o *Orchestrator) CaptureAndAnalyze(ctx context.Context, zone domain.Zone) (domain.AnalysisResult, error) {
	start := time.Now()

	img, err := o.imagery.Snapshot(ctx, zone.Coordinates)
	if err != nil {
		o.recordFailure(domain.SourceSatellite, zone.ID, "capture imagery", err)
		return domain.AnalysisResult{}, fmt.Errorf("capture imagery: %w", err)
	}

	imageRef := o.archiveSnapshot(ctx, zone.ID, img)

	resp, err := o.analyzer.AnalyzeImage(ctx, domain.ImageAnalysisRequest{
		ZoneID:      zone.ID,
		Coordinates: zone.Coordinates,
		ImageBase64: base64.StdEncoding.EncodeToString(img.Data),
	})
	if err != nil {
		o.recordFailure(domain.SourceSatellite, zone.ID, "analyze imagery", err)
		return domain.AnalysisResult{}, fmt.Errorf("analyze imagery: %w", err)
	}

	count := domain.ExtractResidenceCount(resp.Description)
	if resp.ResidenceCount != nil && *resp.ResidenceCount >= 0 {
		count = *resp.ResidenceCount
	}
	confidence := domain.ConfidenceFor(count)
	if c := resp.Confidence; c != nil && *c >= 0 && *c <= 1 {
		confidence = *c
	} else if c != nil {
		o.logger.Warn("analyzer confidence out of range, using heuristic",
			"zone_id", zone.ID,
			"reported", *c,
		)
	}

	result := domain.AnalysisResult{
		ZoneID:         zone.ID,
		Source:         domain.SourceSatellite,
		ResidenceCount: count,
		Description:    resp.Description,
		Confidence:     confidence,
		ImageRef:       imageRef,
		AnalyzedAt:     domain.Now().UTC(),
	}

	o.recordSuccess(domain.SourceSatellite, start, count)
	o.logger.Info("satellite analysis complete",
		"zone_id", zone.ID,
		"residence_count", count,
		"confidence", confidence,
		"duration", time.Since(start),
	)
	return result, nil
}

// AnalyzePhotos opens a prevention process for the zone, uploads the photos
// and sums the residences extracted from each photo description.
func (o *Orchestrator) AnalyzePhotos(ctx context.Context, zoneID int, photos []domain.Photo) (domain.PhotoBatchResult, error) {
	if len(photos) == 0 {
		return domain.PhotoBatchResult{}, ErrNoPhotos
	}
	start := time.Now()

	processID, err := o.photos.CreateProcess(ctx, zoneID, map[string]any{
		"analysisType": "residence_count",
		"timestamp":    domain.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		o.recordFailure(domain.SourcePhotos, zoneID, "create process", err)
		return domain.PhotoBatchResult{}, fmt.Errorf("create process: %w", err)
	}

	descs, err := o.photos.UploadPhotos(ctx, processID, photos)
	if err != nil {
		o.recordFailure(domain.SourcePhotos, zoneID, "upload photos", err)
		return domain.PhotoBatchResult{}, fmt.Errorf("upload photos: %w", err)
	}

	batch := domain.AggregatePhotos(processID, domain.AnalyzePhotoDescriptions(descs))

	o.recordSuccess(domain.SourcePhotos, start, batch.TotalResidences)
	o.logger.Info("photo analysis complete",
		"zone_id", zoneID,
		"process_id", processID,
		"photos", len(batch.Photos),
		"total_residences", batch.TotalResidences,
		"confidence", batch.Confidence,
	)
	return batch, nil
}

// Notify computes the zone's estimate for the given residence count and
// publishes it when the zone's level is notifiable. Publish failures are
// logged and counted, never returned.
func (o *Orchestrator) Notify(ctx context.Context, zone domain.Zone, residences int) {
	if o.notifier == nil || !domain.Notifiable(zone.Level) {
		return
	}
	n := domain.NewZoneNotification(zone, domain.ComputeEstimate(residences, zone.Score))
	if err := o.notifier.Notify(ctx, n); err != nil {
		o.metrics.NotificationErrors.Inc()
		o.logger.Warn("zone notification failed", "zone_id", zone.ID, "error", err)
		return
	}
	o.metrics.NotificationsPublished.Inc()
}

func (o *Orchestrator) archiveSnapshot(ctx context.Context, zoneID int, img domain.Image) string {
	if o.archive == nil {
		return ""
	}
	ref, err := o.archive.PutSnapshot(ctx, zoneID, img)
	if err != nil {
		o.logger.Warn("snapshot archive failed, continuing", "zone_id", zoneID, "error", err)
		return ""
	}
	return ref
}

func (o *Orchestrator) recordFailure(source string, zoneID int, stage string, err error) {
	o.metrics.AnalysisRequests.WithLabelValues(source, "error").Inc()
	o.logger.Error("zone analysis failed",
		"source", source,
		"zone_id", zoneID,
		"stage", stage,
		"error", err,
	)
}

func (o *Orchestrator) recordSuccess(source string, start time.Time, residences int) {
	o.metrics.AnalysisRequests.WithLabelValues(source, "success").Inc()
	o.metrics.AnalysisDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	o.metrics.ExtractedResidence.Observe(float64(residences))
}

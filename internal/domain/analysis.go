package domain

import (
	"context"
	"time"
)

// Analysis sources.
const (
	SourceSatellite = "satellite"
	SourcePhotos    = "photos"
)

// AnalysisResult is the outcome of one image analysis attempt for a zone.
type AnalysisResult struct {
	ZoneID         int       `json:"zone_id"`
	Source         string    `json:"source"`
	ResidenceCount int       `json:"residence_count"`
	Description    string    `json:"description"`
	Confidence     float64   `json:"confidence"` // 0.0–1.0, heuristic
	ImageRef       string    `json:"image_ref,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// PhotoAnalysis is the per-photo outcome of a photo batch.
type PhotoAnalysis struct {
	PhotoID        int     `json:"photo_id"`
	FilePath       string  `json:"file_path"`
	Description    string  `json:"description"`
	ResidenceCount int     `json:"residence_count"`
	Confidence     float64 `json:"confidence"`
}

// PhotoBatchResult aggregates the photos uploaded for one prevention process.
type PhotoBatchResult struct {
	ProcessID       int             `json:"process_id"`
	TotalResidences int             `json:"total_residences"`
	Photos          []PhotoAnalysis `json:"photos"`
	Confidence      float64         `json:"confidence"`
}

// Photo is an image file submitted for analysis.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Image is a raster snapshot returned by an imagery provider.
type Image struct {
	Data        []byte
	ContentType string
}

// ImageAnalysisRequest is the payload submitted to an image analyzer.
type ImageAnalysisRequest struct {
	ZoneID      int
	Coordinates Coordinates
	ImageBase64 string
}

// ImageAnalysisResponse is what an analyzer reports back. ResidenceCount and
// Confidence are optional.
type ImageAnalysisResponse struct {
	Description    string
	ResidenceCount *int
	Confidence     *float64
}

// PhotoDescription is the analyzer's text for one uploaded photo.
type PhotoDescription struct {
	PhotoID     int
	FilePath    string
	Description string
}

// ImageryProvider fetches a raster snapshot centred on a point.
type ImageryProvider interface {
	Snapshot(ctx context.Context, at Coordinates) (Image, error)
}

// ImageAnalyzer describes the residences visible in an image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, req ImageAnalysisRequest) (ImageAnalysisResponse, error)
}

// PhotoBackend manages prevention processes and their photo uploads.
type PhotoBackend interface {
	// CreateProcess opens a prevention process for a zone and returns its ID.
	CreateProcess(ctx context.Context, zoneID int, processContext map[string]any) (int, error)

	// UploadPhotos attaches photos to a process and returns one description per photo.
	UploadPhotos(ctx context.Context, processID int, photos []Photo) ([]PhotoDescription, error)
}

// AnalyzePhotoDescriptions extracts a residence count from each description.
func AnalyzePhotoDescriptions(descs []PhotoDescription) []PhotoAnalysis {
	out := make([]PhotoAnalysis, 0, len(descs))
	for _, d := range descs {
		count := ExtractResidenceCount(d.Description)
		out = append(out, PhotoAnalysis{
			PhotoID:        d.PhotoID,
			FilePath:       d.FilePath,
			Description:    d.Description,
			ResidenceCount: count,
			Confidence:     ConfidenceFor(count),
		})
	}
	return out
}

// AggregatePhotos sums per-photo counts and averages their confidence.
func AggregatePhotos(processID int, photos []PhotoAnalysis) PhotoBatchResult {
	total := 0
	confidenceSum := 0.0
	for _, p := range photos {
		total += p.ResidenceCount
		confidenceSum += p.Confidence
	}
	n := len(photos)
	if n == 0 {
		n = 1
	}
	return PhotoBatchResult{
		ProcessID:       processID,
		TotalResidences: total,
		Photos:          photos,
		Confidence:      confidenceSum / float64(n),
	}
}

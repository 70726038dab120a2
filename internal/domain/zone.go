package domain

import "time"

// Risk levels, as shown to users.
const (
	LevelCritical = "CRÍTICO"
	LevelHigh     = "ALTO"
	LevelModerate = "MODERADO"
	LevelLow      = "BAIXO"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Zone is a snapshot of a risk zone taken at the start of an analysis run.
type Zone struct {
	ID          int         `json:"id" yaml:"id"`
	City        string      `json:"city,omitempty" yaml:"city"`
	Score       float64     `json:"score" yaml:"score"`
	Level       string      `json:"level" yaml:"level"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`

	// Prior estimates from the municipal registry, when known.
	TotalProperties     *int `json:"total_imoveis,omitempty" yaml:"total_imoveis"`
	EstimatedPopulation *int `json:"populacao_estimada,omitempty" yaml:"populacao_estimada"`
}

// City groups zones under a municipality.
type City struct {
	Code        string      `json:"code" yaml:"code"`
	Name        string      `json:"name" yaml:"name"`
	State       string      `json:"state" yaml:"state"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
}

// ZoneNotification is the message sent to the municipality feed when a zone
// is analyzed at a notifiable level.
type ZoneNotification struct {
	ZoneID              int         `json:"zone_id"`
	Level               string      `json:"level"`
	Coordinates         Coordinates `json:"coordinates"`
	TotalProperties     int         `json:"total_imoveis"`
	EstimatedPopulation int         `json:"populacao_estimada"`
	ROIFormatted        string      `json:"roi_formatado"`
	NotifiedAt          time.Time   `json:"notified_at"`
}

// LevelForScore maps a risk score to its level label.
func LevelForScore(score float64) string {
	switch {
	case score >= 70:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 30:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Notifiable reports whether zones at this level are pushed to the
// municipality feed.
func Notifiable(level string) bool {
	return level == LevelCritical || level == LevelHigh
}

// ResolveResidences picks the residence count used for cost estimates:
// automatic analysis first, then the photo batch, then the registry count.
func ResolveResidences(zone Zone, auto *AnalysisResult, photos *PhotoBatchResult) int {
	switch {
	case auto != nil:
		return auto.ResidenceCount
	case photos != nil:
		return photos.TotalResidences
	case zone.TotalProperties != nil:
		return *zone.TotalProperties
	default:
		return 0
	}
}

// NewZoneNotification builds the feed message for an analyzed zone.
func NewZoneNotification(zone Zone, estimate FinancialEstimate) ZoneNotification {
	return ZoneNotification{
		ZoneID:              zone.ID,
		Level:               zone.Level,
		Coordinates:         zone.Coordinates,
		TotalProperties:     estimate.ResidenceCount,
		EstimatedPopulation: estimate.Population,
		ROIFormatted:        FormatROI(estimate.ROI),
		NotifiedAt:          clock.Now().UTC(),
	}
}

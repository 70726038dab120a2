package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/couchcryptid/risk-zone-service/internal/analysis"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/zones"
)

// User-facing messages. Collaborator details are logged, never returned.
const (
	msgAnalysisUnavailable = "análise indisponível, tente novamente"
	msgAnalysisSuperseded  = "análise substituída por uma solicitação mais recente"
	msgZoneNotFound        = "zona não encontrada"
)

const (
	maxUploadBytes   = 64 << 20
	maxMemoryBytes   = 32 << 20
	maxExtractBytes  = 1 << 20
	uploadFieldFiles = "files"
)

// ZoneCatalog is the read-only zone source served by the API.
type ZoneCatalog interface {
	List() []domain.Zone
	ListByCity(code string) []domain.Zone
	Get(id int) (domain.Zone, error)
	Cities() []domain.City
	CheckReadiness(ctx context.Context) error
}

// ZoneAnalyzer runs analyses against external collaborators.
type ZoneAnalyzer interface {
	CaptureAndAnalyze(ctx context.Context, zone domain.Zone) (domain.AnalysisResult, error)
	AnalyzePhotos(ctx context.Context, zoneID int, photos []domain.Photo) (domain.PhotoBatchResult, error)
	Notify(ctx context.Context, zone domain.Zone, residences int)
}

type estimateView struct {
	domain.FinancialEstimate
	Formatted formattedEstimate `json:"formatted"`
}

type formattedEstimate struct {
	TotalDisasterCost   string `json:"total_disaster_cost"`
	TotalPreventionCost string `json:"total_prevention_cost"`
	Savings             string `json:"savings"`
	ROI                 string `json:"roi"`
}

type zoneDetail struct {
	Zone       domain.Zone              `json:"zone"`
	Satellite  *domain.AnalysisResult   `json:"satellite_analysis,omitempty"`
	Photos     *domain.PhotoBatchResult `json:"photo_analysis,omitempty"`
	Residences int                      `json:"residences"`
	Estimate   estimateView             `json:"estimate"`
}

type satelliteResponse struct {
	Analysis domain.AnalysisResult `json:"analysis"`
	Estimate estimateView          `json:"estimate"`
}

type photosResponse struct {
	Analysis domain.PhotoBatchResult `json:"analysis"`
	Estimate estimateView            `json:"estimate"`
}

type extractRequest struct {
	Description string `json:"description"`
}

type extractResponse struct {
	ResidenceCount int     `json:"residence_count"`
	Confidence     float64 `json:"confidence"`
	MatchedPhrase  string  `json:"matched_phrase,omitempty"`
}

func (s *Server) handleListCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Cities())
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	if city := r.URL.Query().Get("city"); city != "" {
		writeJSON(w, http.StatusOK, nonNil(s.catalog.ListByCity(city)))
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneFromPath(w, r)
	if !ok {
		return
	}

	detail := zoneDetail{Zone: zone}
	if entry, found := s.tracker.Latest(zone.ID); found {
		detail.Satellite = entry.Satellite
		detail.Photos = entry.Photos
	}
	detail.Residences = domain.ResolveResidences(zone, detail.Satellite, detail.Photos)
	detail.Estimate = s.estimate(detail.Residences, zone.Score)

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneFromPath(w, r)
	if !ok {
		return
	}

	var residences int
	if raw := r.URL.Query().Get("residences"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "residences must be a non-negative integer")
			return
		}
		residences = n
	} else {
		var auto *domain.AnalysisResult
		var photos *domain.PhotoBatchResult
		if entry, found := s.tracker.Latest(zone.ID); found {
			auto, photos = entry.Satellite, entry.Photos
		}
		residences = domain.ResolveResidences(zone, auto, photos)
	}

	writeJSON(w, http.StatusOK, s.estimate(residences, zone.Score))
}

func (s *Server) handleSatelliteAnalysis(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneFromPath(w, r)
	if !ok {
		return
	}

	tok := s.tracker.Begin(zone.ID, domain.SourceSatellite)
	result, err := s.analyzer.CaptureAndAnalyze(r.Context(), zone)
	if err != nil {
		s.tracker.Cancel(tok)
		writeError(w, http.StatusBadGateway, msgAnalysisUnavailable)
		return
	}
	if err := s.tracker.Commit(tok, result); err != nil {
		s.writeCommitError(w, zone.ID, err)
		return
	}

	s.analyzer.Notify(r.Context(), zone, result.ResidenceCount)
	writeJSON(w, http.StatusOK, satelliteResponse{
		Analysis: result,
		Estimate: s.estimate(result.ResidenceCount, zone.Score),
	})
}

func (s *Server) handlePhotoAnalysis(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneFromPath(w, r)
	if !ok {
		return
	}

	photos, err := readPhotos(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tok := s.tracker.Begin(zone.ID, domain.SourcePhotos)
	batch, err := s.analyzer.AnalyzePhotos(r.Context(), zone.ID, photos)
	if err != nil {
		s.tracker.Cancel(tok)
		writeError(w, http.StatusBadGateway, msgAnalysisUnavailable)
		return
	}
	if err := s.tracker.CommitPhotos(tok, batch); err != nil {
		s.writeCommitError(w, zone.ID, err)
		return
	}

	// A satellite result, when present, still takes precedence.
	entry, _ := s.tracker.Latest(zone.ID)
	residences := domain.ResolveResidences(zone, entry.Satellite, entry.Photos)
	s.analyzer.Notify(r.Context(), zone, residences)

	writeJSON(w, http.StatusOK, photosResponse{
		Analysis: batch,
		Estimate: s.estimate(residences, zone.Score),
	})
}

func (s *Server) handleDiscardAnalysis(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.zoneFromPath(w, r)
	if !ok {
		return
	}
	s.tracker.Discard(zone.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxExtractBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	count := domain.ExtractResidenceCount(req.Description)
	writeJSON(w, http.StatusOK, extractResponse{
		ResidenceCount: count,
		Confidence:     domain.ConfidenceFor(count),
		MatchedPhrase:  domain.MatchedPhrase(req.Description),
	})
}

func (s *Server) zoneFromPath(w http.ResponseWriter, r *http.Request) (domain.Zone, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "zone id must be a positive integer")
		return domain.Zone{}, false
	}
	zone, err := s.catalog.Get(id)
	if errors.Is(err, zones.ErrZoneNotFound) {
		writeError(w, http.StatusNotFound, msgZoneNotFound)
		return domain.Zone{}, false
	}
	if err != nil {
		s.logger.Error("zone lookup failed", "zone_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return domain.Zone{}, false
	}
	return zone, true
}

func (s *Server) writeCommitError(w http.ResponseWriter, zoneID int, err error) {
	if errors.Is(err, analysis.ErrStaleResult) {
		s.logger.Info("stale analysis result dropped", "zone_id", zoneID)
		writeError(w, http.StatusConflict, msgAnalysisSuperseded)
		return
	}
	s.logger.Error("commit analysis failed", "zone_id", zoneID, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) estimate(residences int, score float64) estimateView {
	e := domain.ComputeEstimate(residences, score)
	s.metrics.EstimatesComputed.Inc()
	return estimateView{
		FinancialEstimate: e,
		Formatted: formattedEstimate{
			TotalDisasterCost:   domain.FormatCurrency(e.TotalDisasterCost),
			TotalPreventionCost: domain.FormatCurrency(e.TotalPreventionCost),
			Savings:             domain.FormatCurrency(e.Savings),
			ROI:                 domain.FormatROI(e.ROI),
		},
	}
}

// readPhotos reads the multipart "files" parts of an upload.
func readPhotos(w http.ResponseWriter, r *http.Request) ([]domain.Photo, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		return nil, errors.New("invalid multipart upload")
	}
	headers := r.MultipartForm.File[uploadFieldFiles]
	if len(headers) == 0 {
		return nil, errors.New(`at least one photo is required in the "files" field`)
	}

	photos := make([]domain.Photo, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, errors.New("unreadable photo " + h.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("unreadable photo " + h.Filename)
		}
		photos = append(photos, domain.Photo{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return photos, nil
}

func nonNil(zs []domain.Zone) []domain.Zone {
	if zs == nil {
		return []domain.Zone{}
	}
	return zs
}

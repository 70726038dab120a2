// Package backend is the HTTP client for the prevention-process backend. It
// creates processes, uploads zone photos and forwards satellite snapshots to
// the residence analysis endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

const (
	processPath  = "/processos/prevencao"
	analyzePath  = "/api/gemini/analyze-residence"
	maxErrorBody = 1024
	maxBody      = 4 << 20
)

// Client implements domain.PhotoBackend and domain.ImageAnalyzer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

type processResponse struct {
	ProcessID int `json:"processId"`
}

type photoResponse struct {
	ID          int    `json:"id"`
	FilePath    string `json:"filePath"`
	Description string `json:"description"`
}

type uploadResponse struct {
	Photos []photoResponse `json:"photos"`
}

type analyzeRequest struct {
	ImageBase64 string      `json:"image_base64"`
	ZoneID      int         `json:"zone_id"`
	Coordinates coordinates `json:"coordinates"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type analyzeResponse struct {
	ResidenceCount *int     `json:"residence_count"`
	Description    string   `json:"description"`
	Confidence     *float64 `json:"confidence"`
}

// CreateProcess opens a prevention process for the zone.
func (c *Client) CreateProcess(ctx context.Context, zoneID int, processContext map[string]any) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("zone_id", strconv.Itoa(zoneID)); err != nil {
		return 0, fmt.Errorf("write zone_id field: %w", err)
	}
	if processContext != nil {
		raw, err := json.Marshal(processContext)
		if err != nil {
			return 0, fmt.Errorf("marshal process context: %w", err)
		}
		if err := mw.WriteField("context", string(raw)); err != nil {
			return 0, fmt.Errorf("write context field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("close multipart: %w", err)
	}

	var resp processResponse
	if err := c.doRequest(ctx, processPath, mw.FormDataContentType(), &buf, &resp); err != nil {
		return 0, fmt.Errorf("create prevention process: %w", err)
	}

	c.logger.Debug("prevention process created", "zone_id", zoneID, "process_id", resp.ProcessID)
	return resp.ProcessID, nil
}

// UploadPhotos sends photos as repeated "files" parts and returns the
// backend's description for each one.
func (c *Client) UploadPhotos(ctx context.Context, processID int, photos []domain.Photo) ([]domain.PhotoDescription, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range photos {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, p.Filename))
		contentType := p.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create part for %s: %w", p.Filename, err)
		}
		if _, err := part.Write(p.Data); err != nil {
			return nil, fmt.Errorf("write part for %s: %w", p.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	path := fmt.Sprintf("%s/%d/fotos", processPath, processID)
	var resp uploadResponse
	if err := c.doRequest(ctx, path, mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, fmt.Errorf("upload photos: %w", err)
	}

	out := make([]domain.PhotoDescription, 0, len(resp.Photos))
	for _, p := range resp.Photos {
		out = append(out, domain.PhotoDescription{
			PhotoID:     p.ID,
			FilePath:    p.FilePath,
			Description: p.Description,
		})
	}
	return out, nil
}

// AnalyzeImage posts a base64 snapshot to the residence analysis endpoint.
func (c *Client) AnalyzeImage(ctx context.Context, req domain.ImageAnalysisRequest) (domain.ImageAnalysisResponse, error) {
	body, err := json.Marshal(analyzeRequest{
		ImageBase64: req.ImageBase64,
		ZoneID:      req.ZoneID,
		Coordinates: coordinates{Lat: req.Coordinates.Lat, Lon: req.Coordinates.Lon},
	})
	if err != nil {
		return domain.ImageAnalysisResponse{}, fmt.Errorf("marshal analyze request: %w", err)
	}

	var resp analyzeResponse
	if err := c.doRequest(ctx, analyzePath, "application/json", bytes.NewReader(body), &resp); err != nil {
		return domain.ImageAnalysisResponse{}, fmt.Errorf("analyze residence: %w", err)
	}

	return domain.ImageAnalysisResponse{
		Description:    resp.Description,
		ResidenceCount: resp.ResidenceCount,
		Confidence:     resp.Confidence,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("backend error: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package arcgis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

// maxImageBytes bounds the snapshot body read into memory.
const maxImageBytes = 16 << 20

// Client implements domain.ImageryProvider using the ArcGIS World Imagery
// MapServer export endpoint. No authentication is required.
type Client struct {
	httpClient *http.Client
	baseURL    string
	delta      float64 // degrees added around the point on each side
	size       int     // output width and height in pixels
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options configures the imagery export request.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Delta   float64
	Size    int
}

// NewClient creates an ArcGIS imagery export client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL: opts.BaseURL,
		delta:   opts.Delta,
		size:    opts.Size,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot exports a PNG of the area around the given point.
func (c *Client) Snapshot(ctx context.Context, at domain.Coordinates) (domain.Image, error) {
	bound := BoundAround(at, c.delta)
	size := strconv.Itoa(c.size)
	params := url.Values{
		"bbox":    {FormatBBox(bound)},
		"size":    {size + "," + size},
		"format":  {"png"},
		"f":       {"image"},
		"bboxSR":  {"4326"},
		"imageSR": {"3857"},
	}

	start := time.Now()
	img, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ImageryAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ImageryRequests.WithLabelValues("error").Inc()
		return domain.Image{}, err
	}
	c.metrics.ImageryRequests.WithLabelValues("success").Inc()

	c.logger.Debug("imagery snapshot captured",
		"lat", at.Lat,
		"lon", at.Lon,
		"bytes", len(img.Data),
	)
	return img, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Image{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Image{}, fmt.Errorf("imagery export request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Image{}, fmt.Errorf("imagery export error: status %d: %s", resp.StatusCode, body)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		// The export endpoint reports failures as JSON with a 200 status.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Image{}, fmt.Errorf("imagery export returned %q instead of an image: %s", contentType, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read imagery body: %w", err)
	}
	if len(data) > maxImageBytes {
		return domain.Image{}, fmt.Errorf("imagery snapshot exceeds %d bytes", maxImageBytes)
	}
	return domain.Image{Data: data, ContentType: contentType}, nil
}

// BoundAround returns the square bounding box extending delta degrees from
// the point in every direction.
func BoundAround(at domain.Coordinates, delta float64) orb.Bound {
	return orb.Point{at.Lon, at.Lat}.Bound().Pad(delta)
}

// FormatBBox renders a bound as "minLon,minLat,maxLon,maxLat".
func FormatBBox(b orb.Bound) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.Left(), b.Bottom(), b.Right(), b.Top())
}

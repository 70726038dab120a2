package arcgis

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

// CachedImagery wraps an ImageryProvider with an in-memory LRU cache keyed by
// the requested point.
type CachedImagery struct {
	inner   domain.ImageryProvider
	cache   *lru.Cache[string, domain.Image]
	metrics *observability.Metrics
}

// NewCachedImagery creates a cache decorator around an imagery provider.
func NewCachedImagery(inner domain.ImageryProvider, maxEntries int, metrics *observability.Metrics) (*CachedImagery, error) {
	cache, err := lru.New[string, domain.Image](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create imagery cache: %w", err)
	}
	return &CachedImagery{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}, nil
}

func (c *CachedImagery) Snapshot(ctx context.Context, at domain.Coordinates) (domain.Image, error) {
	key := fmt.Sprintf("%.6f,%.6f", at.Lat, at.Lon)
	if img, ok := c.cache.Get(key); ok {
		c.metrics.ImageryCache.WithLabelValues("hit").Inc()
		return img, nil
	}
	c.metrics.ImageryCache.WithLabelValues("miss").Inc()

	img, err := c.inner.Snapshot(ctx, at)
	if err != nil {
		return img, err
	}
	// Empty bodies are not cached so the next request fetches again.
	if len(img.Data) > 0 {
		c.cache.Add(key, img)
	}
	return img, nil
}

// Len reports the number of cached snapshots.
func (c *CachedImagery) Len() int {
	return c.cache.Len()
}

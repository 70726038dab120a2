// Package zones holds the in-memory catalog of monitored risk zones.
package zones

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

//go:embed zones.yaml
var seed []byte

// ErrZoneNotFound is returned by Get for unknown zone IDs.
var ErrZoneNotFound = errors.New("zone not found")

type document struct {
	Cities []domain.City `yaml:"cities"`
	Zones  []domain.Zone `yaml:"zones"`
}

// Catalog is an immutable set of zones and cities. Safe for concurrent use.
type Catalog struct {
	zones  []domain.Zone
	byID   map[int]int
	cities []domain.City
}

// Load reads the catalog from path, or the embedded seed when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(seed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	c := &Catalog{
		byID:   make(map[int]int, len(doc.Zones)),
		cities: doc.Cities,
	}
	seen := make(map[int]struct{}, len(doc.Zones))
	for _, z := range doc.Zones {
		if err := validate(z); err != nil {
			return nil, err
		}
		if _, dup := seen[z.ID]; dup {
			return nil, fmt.Errorf("zone %d: duplicate id", z.ID)
		}
		seen[z.ID] = struct{}{}
		if z.Level == "" {
			z.Level = domain.LevelForScore(z.Score)
		}
		c.zones = append(c.zones, z)
	}

	sort.Slice(c.zones, func(i, j int) bool { return c.zones[i].ID < c.zones[j].ID })
	for i, z := range c.zones {
		c.byID[z.ID] = i
	}
	return c, nil
}

func validate(z domain.Zone) error {
	switch {
	case z.ID <= 0:
		return fmt.Errorf("zone %d: id must be positive", z.ID)
	case math.IsNaN(z.Score) || z.Score < 0 || z.Score > domain.MaxRiskScore:
		return fmt.Errorf("zone %d: score %.1f out of range", z.ID, z.Score)
	case !knownLevel(z.Level):
		return fmt.Errorf("zone %d: unknown level %q", z.ID, z.Level)
	case z.Coordinates.Lat < -90 || z.Coordinates.Lat > 90:
		return fmt.Errorf("zone %d: latitude out of range", z.ID)
	case z.Coordinates.Lon < -180 || z.Coordinates.Lon > 180:
		return fmt.Errorf("zone %d: longitude out of range", z.ID)
	}
	return nil
}

func knownLevel(level string) bool {
	switch level {
	case "", domain.LevelCritical, domain.LevelHigh, domain.LevelModerate, domain.LevelLow:
		return true
	}
	return false
}

// List returns all zones ordered by ID. The slice is a copy.
func (c *Catalog) List() []domain.Zone {
	out := make([]domain.Zone, len(c.zones))
	copy(out, c.zones)
	return out
}

// ListByCity returns the zones of one city ordered by ID. The city is
// matched by IBGE code or, case-insensitively, by name.
func (c *Catalog) ListByCity(city string) []domain.Zone {
	code := city
	for _, ct := range c.cities {
		if strings.EqualFold(ct.Name, city) {
			code = ct.Code
			break
		}
	}
	var out []domain.Zone
	for _, z := range c.zones {
		if z.City == code {
			out = append(out, z)
		}
	}
	return out
}

// Get returns the zone with the given ID.
func (c *Catalog) Get(id int) (domain.Zone, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Zone{}, fmt.Errorf("zone %d: %w", id, ErrZoneNotFound)
	}
	return c.zones[i], nil
}

// Cities returns the known municipalities.
func (c *Catalog) Cities() []domain.City {
	out := make([]domain.City, len(c.cities))
	copy(out, c.cities)
	return out
}

// CheckReadiness fails when the catalog holds no zones.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if len(c.zones) == 0 {
		return errors.New("zone catalog is empty")
	}
	return nil
}

package zones

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

func TestLoad_EmbeddedSeed(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.CheckReadiness(context.Background()))

	z, err := c.Get(23)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelCritical, z.Level)
	assert.Equal(t, domain.Coordinates{Lat: -25.4284, Lon: -49.2733}, z.Coordinates)
	require.NotNil(t, z.TotalProperties)
	assert.Equal(t, 47, *z.TotalProperties)
	require.NotNil(t, z.EstimatedPopulation)
	assert.Equal(t, 152, *z.EstimatedPopulation)

	z15, err := c.Get(15)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelHigh, z15.Level)

	cities := c.Cities()
	require.Len(t, cities, 3)
	assert.Equal(t, "Curitiba", cities[0].Name)
	assert.Equal(t, "4106902", cities[0].Code)
}

func TestCatalog_ListSortedByID(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	list := c.List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}

	// Mutating the copy leaves the catalog untouched.
	list[0].Score = -1
	again := c.List()
	assert.NotEqual(t, -1.0, again[0].Score)
}

func TestCatalog_ListByCity(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	for _, z := range c.ListByCity("3550308") {
		assert.Equal(t, "3550308", z.City)
	}
	assert.Empty(t, c.ListByCity("0000000"))
}

func TestCatalog_ListByCityName(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	byName := c.ListByCity("são paulo")
	require.NotEmpty(t, byName)
	assert.Equal(t, c.ListByCity("3550308"), byName)
	assert.Empty(t, c.ListByCity("Atlantis"))
}

func TestParse_DuplicateID(t *testing.T) {
	_, err := Parse([]byte("zones: [{id: 7, score: 5}, {id: 7, score: 60}]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone 7: duplicate id")
}

func TestCatalog_GetUnknown(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	_, err = c.Get(9999)
	require.ErrorIs(t, err, ErrZoneNotFound)
}

func TestParse_DerivesLevel(t *testing.T) {
	c, err := Parse([]byte(`
zones:
  - {id: 1, score: 70, coordinates: {lat: 0, lon: 0}}
  - {id: 2, score: 50, coordinates: {lat: 0, lon: 0}}
  - {id: 3, score: 30, coordinates: {lat: 0, lon: 0}}
  - {id: 4, score: 29.9, coordinates: {lat: 0, lon: 0}}
  - {id: 5, score: 10, level: ALTO, coordinates: {lat: 0, lon: 0}}
`))
	require.NoError(t, err)

	want := map[int]string{
		1: domain.LevelCritical,
		2: domain.LevelHigh,
		3: domain.LevelModerate,
		4: domain.LevelLow,
		5: domain.LevelHigh,
	}
	for id, level := range want {
		z, err := c.Get(id)
		require.NoError(t, err)
		assert.Equal(t, level, z.Level, "zone %d", id)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "zones: [\n"},
		{"zero id", "zones: [{id: 0, score: 10}]"},
		{"score above max", "zones: [{id: 1, score: 101}]"},
		{"negative score", "zones: [{id: 1, score: -5}]"},
		{"latitude", "zones: [{id: 1, score: 5, coordinates: {lat: 91, lon: 0}}]"},
		{"longitude", "zones: [{id: 1, score: 5, coordinates: {lat: 0, lon: 181}}]"},
		{"duplicate", "zones: [{id: 1, score: 5}, {id: 1, score: 6}]"},
		{"duplicate not adjacent", "zones: [{id: 2, score: 5}, {id: 1, score: 6}, {id: 2, score: 7}]"},
		{"nan score", "zones: [{id: 1, score: .nan}]"},
		{"unknown level", "zones: [{id: 1, score: 10, level: foo}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zones: [{id: 9, score: 55, coordinates: {lat: -1, lon: -2}}]"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.List(), 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestCheckReadiness_Empty(t *testing.T) {
	c, err := Parse([]byte("zones: []"))
	require.NoError(t, err)
	require.Error(t, c.CheckReadiness(context.Background()))
}

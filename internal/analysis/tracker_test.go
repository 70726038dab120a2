package analysis_test

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-zone-service/internal/analysis"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

func satelliteResult(zoneID, count int) domain.AnalysisResult {
	return domain.AnalysisResult{ZoneID: zoneID, Source: domain.SourceSatellite, ResidenceCount: count}
}

func TestTracker_CommitCurrent(t *testing.T) {
	freezeClock(t)
	tr := analysis.NewTracker(observability.NewMetricsForTesting())

	tok := tr.Begin(23, domain.SourceSatellite)
	assert.True(t, tr.Pending(23, domain.SourceSatellite))
	require.NoError(t, tr.Commit(tok, satelliteResult(23, 12)))
	assert.False(t, tr.Pending(23, domain.SourceSatellite))

	e, ok := tr.Latest(23)
	require.True(t, ok)
	require.NotNil(t, e.Satellite)
	assert.Equal(t, 12, e.Satellite.ResidenceCount)
	assert.Nil(t, e.Photos)
	assert.Equal(t, frozen, e.UpdatedAt)
}

func TestTracker_SupersededTokenIsStale(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tr := analysis.NewTracker(metrics)

	first := tr.Begin(23, domain.SourceSatellite)
	second := tr.Begin(23, domain.SourceSatellite)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, tr.Commit(second, satelliteResult(23, 30)))
	require.ErrorIs(t, tr.Commit(first, satelliteResult(23, 5)), analysis.ErrStaleResult)

	e, _ := tr.Latest(23)
	assert.Equal(t, 30, e.Satellite.ResidenceCount, "late stale result must not overwrite")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StaleResults), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AnalysisRequests.WithLabelValues(domain.SourceSatellite, "stale")), 0)
}

func TestTracker_TokenCommitsOnce(t *testing.T) {
	tr := analysis.NewTracker(observability.NewMetricsForTesting())
	tok := tr.Begin(23, domain.SourceSatellite)
	require.NoError(t, tr.Commit(tok, satelliteResult(23, 1)))
	require.ErrorIs(t, tr.Commit(tok, satelliteResult(23, 2)), analysis.ErrStaleResult)
}

func TestTracker_DiscardInvalidatesInFlight(t *testing.T) {
	tr := analysis.NewTracker(observability.NewMetricsForTesting())

	done := tr.Begin(23, domain.SourceSatellite)
	require.NoError(t, tr.Commit(done, satelliteResult(23, 7)))

	inFlight := tr.Begin(23, domain.SourcePhotos)
	tr.Discard(23)

	_, ok := tr.Latest(23)
	assert.False(t, ok)
	require.ErrorIs(t, tr.CommitPhotos(inFlight, domain.PhotoBatchResult{TotalResidences: 4}), analysis.ErrStaleResult)
	_, ok = tr.Latest(23)
	assert.False(t, ok)
}

func TestTracker_SourcesAndZonesIndependent(t *testing.T) {
	tr := analysis.NewTracker(observability.NewMetricsForTesting())

	sat := tr.Begin(23, domain.SourceSatellite)
	photos := tr.Begin(23, domain.SourcePhotos)
	other := tr.Begin(15, domain.SourceSatellite)

	require.NoError(t, tr.Commit(sat, satelliteResult(23, 12)))
	require.NoError(t, tr.CommitPhotos(photos, domain.PhotoBatchResult{TotalResidences: 20}))
	require.NoError(t, tr.Commit(other, satelliteResult(15, 3)))

	e, ok := tr.Latest(23)
	require.True(t, ok)
	assert.Equal(t, 12, e.Satellite.ResidenceCount)
	assert.Equal(t, 20, e.Photos.TotalResidences)

	tr.Discard(23)
	e15, ok := tr.Latest(15)
	require.True(t, ok)
	assert.Equal(t, 3, e15.Satellite.ResidenceCount)
}

func TestTracker_Cancel(t *testing.T) {
	tr := analysis.NewTracker(observability.NewMetricsForTesting())

	old := tr.Begin(23, domain.SourceSatellite)
	current := tr.Begin(23, domain.SourceSatellite)
	tr.Cancel(old)
	assert.True(t, tr.Pending(23, domain.SourceSatellite), "cancelling a superseded token keeps the current one")

	tr.Cancel(current)
	assert.False(t, tr.Pending(23, domain.SourceSatellite))
}

func TestTracker_ConcurrentBeginCommit(t *testing.T) {
	tr := analysis.NewTracker(observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tok := tr.Begin(23, domain.SourceSatellite)
			if tr.Commit(tok, satelliteResult(23, n)) == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, committed, 1)
	_, ok := tr.Latest(23)
	assert.True(t, ok)
}

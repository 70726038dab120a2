package analysis

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
)

// ErrStaleResult is returned when committing with a token that a newer
// request, or a discard, has superseded.
var ErrStaleResult = errors.New("analysis result is stale")

// Token identifies one in-flight analysis of a zone for one source.
type Token struct {
	ZoneID int
	Source string
	ID     string
}

// Entry holds the latest committed results for a zone.
type Entry struct {
	Satellite *domain.AnalysisResult
	Photos    *domain.PhotoBatchResult
	UpdatedAt time.Time
}

type trackerKey struct {
	zoneID int
	source string
}

// Tracker keeps the latest analysis per zone. Each request takes a token
// with Begin; only the most recent token for a zone and source may commit.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	current map[trackerKey]string
	results map[int]Entry
	metrics *observability.Metrics
}

// NewTracker creates an empty Tracker.
func NewTracker(metrics *observability.Metrics) *Tracker {
	return &Tracker{
		current: make(map[trackerKey]string),
		results: make(map[int]Entry),
		metrics: metrics,
	}
}

// Begin issues a token for a new analysis, superseding any outstanding token
// for the same zone and source.
func (t *Tracker) Begin(zoneID int, source string) Token {
	tok := Token{ZoneID: zoneID, Source: source, ID: uuid.NewString()}
	t.mu.Lock()
	t.current[trackerKey{zoneID, source}] = tok.ID
	t.mu.Unlock()
	return tok
}

// Commit stores a satellite result if tok is still current.
func (t *Tracker) Commit(tok Token, result domain.AnalysisResult) error {
	return t.commit(tok, func(e *Entry) { e.Satellite = &result })
}

// CommitPhotos stores a photo batch result if tok is still current.
func (t *Tracker) CommitPhotos(tok Token, batch domain.PhotoBatchResult) error {
	return t.commit(tok, func(e *Entry) { e.Photos = &batch })
}

// Cancel releases tok without storing anything, e.g. after a failed attempt.
// It is a no-op when tok has already been superseded.
func (t *Tracker) Cancel(tok Token) {
	key := trackerKey{tok.ZoneID, tok.Source}
	t.mu.Lock()
	if t.current[key] == tok.ID {
		delete(t.current, key)
	}
	t.mu.Unlock()
}

func (t *Tracker) commit(tok Token, apply func(*Entry)) error {
	key := trackerKey{tok.ZoneID, tok.Source}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current[key] != tok.ID {
		t.metrics.StaleResults.Inc()
		t.metrics.AnalysisRequests.WithLabelValues(tok.Source, "stale").Inc()
		return ErrStaleResult
	}
	delete(t.current, key)

	e := t.results[tok.ZoneID]
	apply(&e)
	e.UpdatedAt = domain.Now().UTC()
	t.results[tok.ZoneID] = e
	return nil
}

// Discard forgets stored results for a zone and invalidates its outstanding
// tokens, so in-flight analyses cannot commit.
func (t *Tracker) Discard(zoneID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.results, zoneID)
	for key := range t.current {
		if key.zoneID == zoneID {
			delete(t.current, key)
		}
	}
}

// Latest returns the stored results for a zone.
func (t *Tracker) Latest(zoneID int) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.results[zoneID]
	return e, ok
}

// Pending reports whether an analysis for the zone and source is in flight.
func (t *Tracker) Pending(zoneID int, source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.current[trackerKey{zoneID, source}]
	return ok
}

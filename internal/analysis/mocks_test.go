package analysis_test

import (
	"context"
	"sync"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

// --- mocks ---

type mockImagery struct {
	img   domain.Image
	err   error
	calls int
}

func (m *mockImagery) Snapshot(_ context.Context, _ domain.Coordinates) (domain.Image, error) {
	m.calls++
	return m.img, m.err
}

type mockAnalyzer struct {
	resp domain.ImageAnalysisResponse
	err  error
	got  domain.ImageAnalysisRequest
}

func (m *mockAnalyzer) AnalyzeImage(_ context.Context, req domain.ImageAnalysisRequest) (domain.ImageAnalysisResponse, error) {
	m.got = req
	return m.resp, m.err
}

type mockBackend struct {
	processID  int
	createErr  error
	uploadErr  error
	descs      []domain.PhotoDescription
	gotContext map[string]any
	gotPhotos  []domain.Photo
}

func (m *mockBackend) CreateProcess(_ context.Context, _ int, processContext map[string]any) (int, error) {
	m.gotContext = processContext
	return m.processID, m.createErr
}

func (m *mockBackend) UploadPhotos(_ context.Context, _ int, photos []domain.Photo) ([]domain.PhotoDescription, error) {
	m.gotPhotos = photos
	return m.descs, m.uploadErr
}

type mockArchive struct {
	ref string
	err error
}

func (m *mockArchive) PutSnapshot(_ context.Context, _ int, _ domain.Image) (string, error) {
	return m.ref, m.err
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []domain.ZoneNotification
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, n domain.ZoneNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

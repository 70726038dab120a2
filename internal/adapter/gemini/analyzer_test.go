package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type fakeModel struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}},
		},
	}
}

func testAnalyzer(m generator) *Analyzer {
	return &Analyzer{model: m, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testRequest() domain.ImageAnalysisRequest {
	return domain.ImageAnalysisRequest{
		ZoneID:      23,
		Coordinates: domain.Coordinates{Lat: -25.4284, Lon: -49.2733},
		ImageBase64: base64.StdEncoding.EncodeToString(pngHeader),
	}
}

func TestAnalyzer_ParsesTotalLine(t *testing.T) {
	m := &fakeModel{resp: textResponse("TOTAL: 23 residências\nÁrea residencial de média densidade.\nVegetação esparsa.")}
	a := testAnalyzer(m)

	resp, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, resp.ResidenceCount)
	assert.Equal(t, 23, *resp.ResidenceCount)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.85, *resp.Confidence, 1e-9)
	assert.Equal(t, "Área residencial de média densidade.\nVegetação esparsa.", resp.Description)

	require.Len(t, m.parts, 2)
	blob, ok := m.parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, pngHeader, blob.Data)
}

func TestAnalyzer_FallsBackToExtractor(t *testing.T) {
	a := testAnalyzer(&fakeModel{resp: textResponse("Foram identificadas cerca de 40 moradias na encosta.")})

	resp, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 40, *resp.ResidenceCount)
}

func TestAnalyzer_NoNumber(t *testing.T) {
	a := testAnalyzer(&fakeModel{resp: textResponse("Área de mata sem construções.")})

	resp, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, *resp.ResidenceCount)
	assert.InDelta(t, 0.5, *resp.Confidence, 1e-9)
}

func TestAnalyzer_OnlyTotalLine(t *testing.T) {
	a := testAnalyzer(&fakeModel{resp: textResponse("TOTAL: 5 residências")})

	resp, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 5, *resp.ResidenceCount)
	assert.Equal(t, noDescription, resp.Description)
}

func TestAnalyzer_GenerateError(t *testing.T) {
	a := testAnalyzer(&fakeModel{err: errors.New("quota exceeded")})

	_, err := a.AnalyzeImage(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyzer_EmptyCandidates(t *testing.T) {
	a := testAnalyzer(&fakeModel{resp: &genai.GenerateContentResponse{}})

	_, err := a.AnalyzeImage(context.Background(), testRequest())
	require.Error(t, err)
}

func TestAnalyzer_InvalidBase64(t *testing.T) {
	a := testAnalyzer(&fakeModel{resp: textResponse("TOTAL: 1")})
	req := testRequest()
	req.ImageBase64 = "%%%"

	_, err := a.AnalyzeImage(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestAnalyzer_Offline(t *testing.T) {
	a, err := NewAnalyzer(context.Background(), "", "gemini-1.5-flash", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.True(t, a.Offline())
	require.NoError(t, a.Close())

	first, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)
	second, err := a.AnalyzeImage(context.Background(), testRequest())
	require.NoError(t, err)

	count := *first.ResidenceCount
	assert.GreaterOrEqual(t, count, 15)
	assert.LessOrEqual(t, count, 50)
	assert.Equal(t, count, *second.ResidenceCount, "offline estimate is deterministic per coordinate")
	assert.InDelta(t, 0.5, *first.Confidence, 1e-9)
	assert.Contains(t, first.Description, "[MODO OFFLINE]")
	assert.Contains(t, first.Description, "GEMINI_API_KEY")
	assert.Equal(t, count, domain.ExtractResidenceCount(first.Description))
}

func TestStripTotalLines(t *testing.T) {
	assert.Equal(t, "a\nb", stripTotalLines("TOTAL: 3 residências\na\nb\n"))
	assert.Equal(t, "total: 3 casas", stripTotalLines("total: 3 casas"), "only the exact prefix is stripped")
}

// Package gemini analyzes satellite snapshots in-process with the Gemini
// multimodal API, returning the same shape as the backend's
// analyze-residence endpoint.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

const residencePrompt = `Analise esta imagem de satélite e conte EXATAMENTE quantas residências/moradias estão visíveis.

INSTRUÇÕES IMPORTANTES:
- Conte APENAS estruturas que sejam claramente residências
- Seja preciso: conte cada casa/prédio individual
- Ignore estruturas comerciais, industriais ou agrícolas
- Se houver prédios, estime o número de unidades residenciais

FORMATO DA RESPOSTA:
Linha 1: "TOTAL: X residências"
Linha 2-N: Descrição breve da área (tipo de construções, densidade, estado aparente, riscos visíveis)

Exemplo:
TOTAL: 23 residências
Área residencial de média densidade com casas predominantemente térreas. Construções em bom estado, algumas próximas a encostas. Vegetação esparsa ao redor.
`

const (
	noDescription     = "Análise não disponível"
	offlineConfidence = 0.5
	offlineMin        = 15
	offlineSpan       = 36 // offlineMin..50 inclusive
)

var totalRe = regexp.MustCompile(`(?i)TOTAL:\s*(\d+)`)

// generator is satisfied by *genai.GenerativeModel.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Analyzer implements domain.ImageAnalyzer. Without an API key it runs in
// offline mode and returns a deterministic estimate per coordinate.
type Analyzer struct {
	client *genai.Client
	model  generator
	logger *slog.Logger
}

// NewAnalyzer creates a Gemini-backed analyzer. An empty apiKey yields an
// offline analyzer.
func NewAnalyzer(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Analyzer, error) {
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, residence analysis runs in offline mode")
		return &Analyzer{logger: logger}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	return &Analyzer{
		client: client,
		model:  client.GenerativeModel(modelName),
		logger: logger,
	}, nil
}

// Close releases the underlying Gemini client.
func (a *Analyzer) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Offline reports whether the analyzer has no model configured.
func (a *Analyzer) Offline() bool {
	return a.model == nil
}

// AnalyzeImage counts the residences visible in a base64-encoded snapshot.
func (a *Analyzer) AnalyzeImage(ctx context.Context, req domain.ImageAnalysisRequest) (domain.ImageAnalysisResponse, error) {
	if a.model == nil {
		return offlineEstimate(req.Coordinates), nil
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return domain.ImageAnalysisResponse{}, fmt.Errorf("decode image: %w", err)
	}

	resp, err := a.model.GenerateContent(ctx,
		genai.Text(residencePrompt),
		genai.Blob{
			MIMEType: http.DetectContentType(data),
			Data:     data,
		},
	)
	if err != nil {
		return domain.ImageAnalysisResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return domain.ImageAnalysisResponse{}, err
	}

	count := parseTotal(text)
	confidence := domain.ConfidenceFor(count)
	description := stripTotalLines(text)
	if description == "" {
		description = noDescription
	}

	a.logger.Info("gemini residence analysis",
		"zone_id", req.ZoneID,
		"lat", req.Coordinates.Lat,
		"lon", req.Coordinates.Lon,
		"residence_count", count,
	)

	return domain.ImageAnalysisResponse{
		Description:    description,
		ResidenceCount: &count,
		Confidence:     &confidence,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no content returned from AI")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text content returned from AI")
	}
	return sb.String(), nil
}

// parseTotal prefers the "TOTAL: N" line requested by the prompt and falls
// back to the general extractor.
func parseTotal(text string) int {
	if m := totalRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return domain.ExtractResidenceCount(text)
}

func stripTotalLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "TOTAL:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func offlineEstimate(at domain.Coordinates) domain.ImageAnalysisResponse {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%.6f,%.6f", at.Lat, at.Lon)
	count := offlineMin + int(h.Sum32()%offlineSpan)
	confidence := offlineConfidence
	return domain.ImageAnalysisResponse{
		Description: fmt.Sprintf("[MODO OFFLINE] Estimativa automática: %d residências na área. "+
			"Configure GEMINI_API_KEY para análise real.", count),
		ResidenceCount: &count,
		Confidence:     &confidence,
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/risk-zone-service/internal/adapter/arcgis"
	"github.com/couchcryptid/risk-zone-service/internal/adapter/backend"
	"github.com/couchcryptid/risk-zone-service/internal/adapter/gemini"
	"github.com/couchcryptid/risk-zone-service/internal/analysis"
	"github.com/couchcryptid/risk-zone-service/internal/config"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
	"github.com/couchcryptid/risk-zone-service/internal/observability"
	"github.com/couchcryptid/risk-zone-service/internal/zones"
)

type analyzeOutput struct {
	Analysis domain.AnalysisResult    `json:"analysis" yaml:"analysis"`
	Estimate domain.FinancialEstimate `json:"estimate" yaml:"estimate"`
}

func newAnalyzeCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze ZONE_ID",
		Short: "Capture satellite imagery of a zone and count its residences",
		Long: `Capture a satellite snapshot around the zone and send it to the configured
analyzer. Endpoints and the analyzer are read from the same environment
variables as the server (IMAGERY_BASE_URL, BACKEND_URL, ANALYZER, ...).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zoneID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid zone id %q", args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := zones.Load(cfg.ZonesFile)
			if err != nil {
				return err
			}
			zone, err := catalog.Get(zoneID)
			if err != nil {
				return err
			}

			// Keep stdout clean for json/yaml output.
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			metrics := observability.NewMetrics()

			imagery := arcgis.NewClient(arcgis.Options{
				BaseURL: cfg.ImageryBaseURL,
				Timeout: cfg.ImageryTimeout,
				Delta:   cfg.ImageryDelta,
				Size:    cfg.ImagerySize,
			}, metrics, logger)
			photoBackend := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)

			var analyzer domain.ImageAnalyzer = photoBackend
			if cfg.Analyzer == config.AnalyzerGemini {
				g, err := gemini.NewAnalyzer(cmd.Context(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
				if err != nil {
					return err
				}
				defer g.Close()
				analyzer = g
			}

			orchestrator := analysis.New(imagery, analyzer, photoBackend, logger, metrics)

			s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.Suffix = fmt.Sprintf(" Analisando zona %d...", zone.ID)
			s.Start()
			result, err := orchestrator.CaptureAndAnalyze(cmd.Context(), zone)
			s.Stop()
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			out := analyzeOutput{
				Analysis: result,
				Estimate: domain.ComputeEstimate(result.ResidenceCount, zone.Score),
			}
			return render(cmd.OutOrStdout(), *format, out, func(w io.Writer) {
				printAnalysis(w, out.Analysis)
				fmt.Fprintln(w)
				printEstimate(w, out.Estimate)
			})
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatHuman, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want human, json or yaml)", format)
	}
}

// render writes v as JSON or YAML, or calls human for the colorized view.
func render(w io.Writer, format string, v any, human func(io.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		human(w)
		return nil
	}
}

func levelColor(level string) *color.Color {
	switch level {
	case domain.LevelCritical:
		return color.New(color.FgRed, color.Bold)
	case domain.LevelHigh:
		return color.New(color.FgHiRed)
	case domain.LevelModerate:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printEstimate(w io.Writer, e domain.FinancialEstimate) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen, color.Bold)

	cyan.Fprintln(w, "💰 Estimativa financeira")
	fmt.Fprintf(w, "   Residências: %d   População: %d   Score: %.0f\n\n", e.ResidenceCount, e.Population, e.RiskScore)

	red.Fprintln(w, "   Custo do desastre")
	fmt.Fprintf(w, "      Reconstrução:     %s\n", domain.FormatCurrency(e.ReconstructionCost))
	fmt.Fprintf(w, "      Custo humano:     %s\n", domain.FormatCurrency(e.HumanCost))
	fmt.Fprintf(w, "      Infraestrutura:   %s\n", domain.FormatCurrency(e.InfrastructureCost))
	fmt.Fprintf(w, "      Perdas indiretas: %s\n", domain.FormatCurrency(e.IndirectLosses))
	fmt.Fprintf(w, "      Total:            %s\n\n", domain.FormatCurrency(e.TotalDisasterCost))

	green.Fprintln(w, "   Custo da prevenção")
	fmt.Fprintf(w, "      Drenagem:         %s\n", domain.FormatCurrency(e.DrainageCost))
	fmt.Fprintf(w, "      Contenção:        %s\n", domain.FormatCurrency(e.ContainmentCost))
	fmt.Fprintf(w, "      Áreas verdes:     %s\n", domain.FormatCurrency(e.GreenCost))
	fmt.Fprintf(w, "      Monitoramento:    %s\n", domain.FormatCurrency(e.MonitoringCost))
	fmt.Fprintf(w, "      Total:            %s\n\n", domain.FormatCurrency(e.TotalPreventionCost))

	fmt.Fprintf(w, "   Economia: %s   ROI: %s   Razão: %.1fx\n",
		domain.FormatCurrency(e.Savings), domain.FormatROI(e.ROI), e.InvestmentRatio)
}

func printZones(w io.Writer, zs []domain.Zone) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintln(w, "🗺️  Zonas de risco")
	for _, z := range zs {
		fmt.Fprintf(w, "   #%-4d %-10s score %3.0f  (%.4f, %.4f)\n",
			z.ID, levelColor(z.Level).Sprint(z.Level), z.Score, z.Coordinates.Lat, z.Coordinates.Lon)
	}
}

func printAnalysis(w io.Writer, r domain.AnalysisResult) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "🛰️  Zona %d: %d residências (confiança %.0f%%)\n", r.ZoneID, r.ResidenceCount, r.Confidence*100)
	if r.Description != "" {
		fmt.Fprintf(w, "   %s\n", r.Description)
	}
	if r.ImageRef != "" {
		fmt.Fprintf(w, "   Imagem: %s\n", color.HiBlackString(r.ImageRef))
	}
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

type extractOutput struct {
	ResidenceCount int     `json:"residence_count" yaml:"residence_count"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	MatchedPhrase  string  `json:"matched_phrase,omitempty" yaml:"matched_phrase,omitempty"`
}

func newExtractCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:     "extract TEXT",
		Short:   "Extract a residence count from an analysis description",
		Example: `  riskctl extract "Foram identificadas 23 residências na encosta"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			count := domain.ExtractResidenceCount(text)
			out := extractOutput{
				ResidenceCount: count,
				Confidence:     domain.ConfidenceFor(count),
				MatchedPhrase:  domain.MatchedPhrase(text),
			}
			return render(cmd.OutOrStdout(), *format, out, func(w io.Writer) {
				if count == 0 {
					color.New(color.FgYellow).Fprintln(w, "⚠️  Nenhuma contagem encontrada")
					return
				}
				color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ %d residências", count)
				fmt.Fprintf(w, " (regra: %s, confiança %.2f)\n", out.MatchedPhrase, out.Confidence)
			})
		},
	}
}

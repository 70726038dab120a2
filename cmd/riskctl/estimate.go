package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

func newEstimateCmd(format *string) *cobra.Command {
	var (
		residences int
		score      float64
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Compute disaster and prevention costs for a zone",
		Long: `Compute the projected disaster cost and the cost of prevention works for a
zone with the given number of residences and risk score.

Examples:
  riskctl estimate --residences 10 --score 80
  riskctl estimate -n 47 -s 85 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if residences < 0 {
				return errors.New("--residences must be non-negative")
			}
			if score < 0 || score > domain.MaxRiskScore {
				return errors.New("--score must be between 0 and 100")
			}
			e := domain.ComputeEstimate(residences, score)
			return render(cmd.OutOrStdout(), *format, e, func(w io.Writer) { printEstimate(w, e) })
		},
	}

	cmd.Flags().IntVarP(&residences, "residences", "n", 0, "Number of residences in the zone")
	cmd.Flags().Float64VarP(&score, "score", "s", 0, "Risk score (0-100)")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

// Command riskctl runs zone risk estimates and analyses from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Overwritten at build time

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var format string

	rootCmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Risk zone residence counts and financial estimates",
		Long: `riskctl estimates disaster and prevention costs for municipal risk zones,
extracts residence counts from analysis descriptions, and runs satellite
analyses against the configured imagery and analysis services.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", formatHuman, "Output format (human, json, yaml)")

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newEstimateCmd(&format),
		newExtractCmd(&format),
		newZonesCmd(&format),
		newAnalyzeCmd(&format),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "riskctl version %s\n", version)
		},
	}
}

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/risk-zone-service/internal/zones"
)

func newZonesCmd(format *string) *cobra.Command {
	var (
		file string
		city string
	)

	cmd := &cobra.Command{
		Use:   "zones",
		Short: "List the risk zone catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := zones.Load(file)
			if err != nil {
				return err
			}
			list := catalog.List()
			if city != "" {
				list = catalog.ListByCity(city)
			}
			return render(cmd.OutOrStdout(), *format, list, func(w io.Writer) { printZones(w, list) })
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Zones YAML file (defaults to the built-in catalog)")
	cmd.Flags().StringVar(&city, "city", "", "Only zones of this IBGE city code")

	return cmd
}

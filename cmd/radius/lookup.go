package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/delivery-radius-service/internal/reference"
)

var searchLimit int

var lookupCmd = &cobra.Command{
	Use:   "lookup <zip>...",
	Short: "Show reference data for zip codes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := reference.LoadFile(cfg.ReferenceDataPath, logger)
		if err != nil {
			return err
		}
		for _, code := range args {
			p, ok := refs.Lookup(code)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s - not found\n", code)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f,%.4f\n", reference.FormatFull(p), p.Lat, p.Lng)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <city>",
	Short: "Find zip codes by city name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := reference.LoadFile(cfg.ReferenceDataPath, logger)
		if err != nil {
			return err
		}
		for _, p := range refs.SearchByCity(args[0], searchLimit) {
			fmt.Fprintln(cmd.OutOrStdout(), reference.FormatFull(p))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(searchCmd)
}

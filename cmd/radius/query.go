package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/delivery-radius-service/internal/adapter/rediscache"
	"github.com/couchcryptid/delivery-radius-service/internal/app"
	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
)

var queryFlags struct {
	source    string
	radius    float64
	threshold float64
	all       bool
	overrides []string
	format    string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a radius query and export the results",
	Long:  "Runs one query against the reference data and writes the export as CSV (or JSON) to stdout. A summary is printed to stderr.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var deps app.Deps
		if cfg.RedisEnabled() {
			client, err := rediscache.Open(cfg.RedisURL)
			if err != nil {
				return err
			}
			shared := rediscache.NewCache(client, cfg.DriveTimeSharedTTL)
			defer shared.Close()
			deps.Shared = shared
		}

		a, err := app.New(cfg, deps, logger, observability.NewUnregisteredMetrics())
		if err != nil {
			return err
		}

		params := a.Session.Params()
		params.SourceCode = queryFlags.source
		if queryFlags.radius > 0 {
			params.RadiusMiles = queryFlags.radius
		}
		if queryFlags.threshold > 0 {
			params.DriveTimeThresholdMinutes = queryFlags.threshold
		}

		out, err := a.Session.RunQuery(ctx, params, nil)
		if err != nil {
			return err
		}
		if out.InvalidSource {
			return fmt.Errorf("unknown source zip code %q", params.SourceCode)
		}
		for _, code := range queryFlags.overrides {
			if _, ok := a.Session.ToggleOverride(code); !ok {
				logger.Warn("override ignored: no result for zip code", "code", code)
			}
		}

		rows := a.Session.Export(queryFlags.all)
		switch queryFlags.format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rows); err != nil {
				return fmt.Errorf("write json export: %w", err)
			}
		case "csv":
			if err := domain.WriteCSV(cmd.OutOrStdout(), rows); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q: use csv or json", queryFlags.format)
		}

		s := a.Session.Summary()
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d candidates, %d included, %d excluded, %d overridden\n",
			params.SourceCode, s.Total, s.Included, s.Excluded, s.Overridden)
		for _, e := range out.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e)
		}
		return nil
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryFlags.source, "source", "", "source zip code")
	f.Float64Var(&queryFlags.radius, "radius", 0, "distance radius in miles (default DEFAULT_RADIUS_MILES)")
	f.Float64Var(&queryFlags.threshold, "threshold", 0, "drive time threshold in minutes (default DEFAULT_DRIVE_TIME_MINUTES)")
	f.BoolVar(&queryFlags.all, "all", false, "export excluded results too")
	f.StringSliceVar(&queryFlags.overrides, "override", nil, "zip codes to toggle before export")
	f.StringVar(&queryFlags.format, "format", "csv", "output format: csv or json")
	_ = queryCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(queryCmd)
}

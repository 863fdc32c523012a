package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/susu3304/tweetguessr/internal/calibrate"
	"github.com/susu3304/tweetguessr/internal/mapproj"
	"github.com/susu3304/tweetguessr/internal/maps"
	"gopkg.in/yaml.v3"
)

func newCalibrateCmd(loadMaps func() (*maps.Registry, error)) *cobra.Command {
	var (
		mapID        string
		fixturesFile string
		fit          string
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Compare a map's projection against reference points",
		Long: "calibrate unprojects every reference pixel and reports the latitude\n" +
			"and longitude error. With --fit it also fits regional scales from the\n" +
			"points and prints them as a regional_scales YAML value.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapFor(loadMaps, mapID)
			if err != nil {
				return err
			}
			fixtures := calibrate.DefaultFixtures()
			if fixturesFile != "" {
				if fixtures, err = calibrate.LoadFixtures(fixturesFile); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			cfg := m.Projection()
			fmt.Fprintf(out, "map %s, %d reference points\n\n", m.ID, len(fixtures))
			if err := calibrate.Evaluate(cfg, fixtures).Print(out); err != nil {
				return err
			}

			var fitted mapproj.RegionalScales
			switch fit {
			case "":
				return nil
			case "buckets":
				fitted = calibrate.FitBucketScales(cfg, fixtures, mapproj.DefaultBucketBounds)
			case "bands":
				fitted = calibrate.FitNamedBands(cfg, fixtures, mapproj.DefaultBandBounds)
			default:
				return fmt.Errorf("--fit must be buckets or bands, got %q", fit)
			}

			cfg.RegionalScales = fitted
			fmt.Fprintf(out, "\nfitted %s:\n\n", fit)
			if err := calibrate.Evaluate(cfg, fixtures).Print(out); err != nil {
				return err
			}
			data, err := yaml.Marshal(map[string]maps.ScaleTable{"regional_scales": {RegionalScales: fitted}})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s", data)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapID, "map", maps.DefaultMapID, "map id")
	cmd.Flags().StringVar(&fixturesFile, "fixtures", "", "reference points YAML file (default: builtin Argentina points)")
	cmd.Flags().StringVar(&fit, "fit", "", "fit regional scales: buckets or bands")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/susu3304/tweetguessr/internal/mapproj"
	"github.com/susu3304/tweetguessr/internal/maps"
)

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func newProjectCmd(loadMaps func() (*maps.Registry, error)) *cobra.Command {
	var mapID string
	cmd := &cobra.Command{
		Use:   "project LAT LON",
		Short: "Print the image pixel of a latitude/longitude",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			m, err := mapFor(loadMaps, mapID)
			if err != nil {
				return err
			}
			p := mapproj.Project(v[0], v[1], m.Projection())
			fmt.Fprintf(cmd.OutOrStdout(), "x=%.2f y=%.2f rho=%.2f azimuth=%.4f\n", p.X, p.Y, p.Rho, p.Azimuth)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapID, "map", maps.DefaultMapID, "map id")
	return cmd
}

func newUnprojectCmd(loadMaps func() (*maps.Registry, error)) *cobra.Command {
	var mapID string
	cmd := &cobra.Command{
		Use:   "unproject X Y",
		Short: "Print the latitude/longitude of an image pixel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			m, err := mapFor(loadMaps, mapID)
			if err != nil {
				return err
			}
			g := mapproj.Unproject(v[0], v[1], m.Projection())
			fmt.Fprintf(cmd.OutOrStdout(), "lat=%.4f lon=%.4f rho=%.2f azimuth=%.4f\n", g.Latitude, g.Longitude, g.Rho, g.Azimuth)
			return nil
		},
	}
	cmd.Flags().StringVar(&mapID, "map", maps.DefaultMapID, "map id")
	return cmd
}

func mapFor(loadMaps func() (*maps.Registry, error), id string) (maps.Map, error) {
	r, err := loadMaps()
	if err != nil {
		return maps.Map{}, err
	}
	return r.Get(id)
}

// Package calibrate measures how well a projection config reproduces
// reference points on a map image and fits regional scales from them.
package calibrate

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/susu3304/tweetguessr/internal/mapproj"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Row is the residual of a single fixture.
type Row struct {
	Fixture   Fixture
	Latitude  float64
	Longitude float64
	LatDiff   float64
	LonDiff   float64
	Rho       float64
	Azimuth   float64
	// ExpectedDist is the fixture's angular distance from the pole in degrees.
	ExpectedDist float64
	// ImpliedScale is the scale that would put the fixture exactly at its
	// expected latitude. Zero for the pole.
	ImpliedScale float64
}

// Report aggregates the residuals of a fixture set.
type Report struct {
	Rows        []Row
	MeanLatDiff float64
	MeanLonDiff float64
	MaxLatDiff  float64
	MaxLonDiff  float64
}

// Evaluate unprojects every fixture pixel and compares it with the
// fixture's known coordinates.
func Evaluate(cfg mapproj.Config, fixtures []Fixture) Report {
	var r Report
	if len(fixtures) == 0 {
		return r
	}

	latDiffs := make([]float64, 0, len(fixtures))
	lonDiffs := make([]float64, 0, len(fixtures))
	for _, f := range fixtures {
		g := mapproj.Unproject(f.PixelX, f.PixelY, cfg)
		row := Row{
			Fixture:      f,
			Latitude:     g.Latitude,
			Longitude:    g.Longitude,
			LatDiff:      math.Abs(g.Latitude - f.Latitude),
			LonDiff:      math.Abs(g.Longitude - f.Longitude),
			Rho:          g.Rho,
			Azimuth:      g.Azimuth,
			ExpectedDist: math.Abs(f.Latitude + 90),
			ImpliedScale: ImpliedScale(g.Rho, math.Abs(f.Latitude+90)),
		}
		r.Rows = append(r.Rows, row)
		latDiffs = append(latDiffs, row.LatDiff)
		lonDiffs = append(lonDiffs, row.LonDiff)
	}

	r.MeanLatDiff = stat.Mean(latDiffs, nil)
	r.MeanLonDiff = stat.Mean(lonDiffs, nil)
	r.MaxLatDiff = floats.Max(latDiffs)
	r.MaxLonDiff = floats.Max(lonDiffs)
	return r
}

// ImpliedScale returns the scale under which rho pixels correspond to
// angularDist degrees from the pole, or 0 when angularDist is 0.
func ImpliedScale(rho, angularDist float64) float64 {
	half := math.Sin(angularDist * math.Pi / 180 / 2)
	if half == 0 {
		return 0
	}
	return rho / (2 * half)
}

// FitBucketScales returns the mean implied scale of the fixtures in each
// bucket of bounds. Buckets without fixtures stay zero so the selector falls
// back to the flat scale. Only the center pixel of cfg is used.
func FitBucketScales(cfg mapproj.Config, fixtures []Fixture, bounds [7]float64) mapproj.BucketScales {
	out := mapproj.BucketScales{Bounds: bounds}
	groups := make([][]float64, len(out.Scales))
	for _, f := range fixtures {
		scale, dist, ok := implied(cfg, f)
		if !ok {
			continue
		}
		i := out.Index(dist)
		groups[i] = append(groups[i], scale)
	}
	for i, g := range groups {
		out.Scales[i] = roundedMean(g)
	}
	return out
}

// FitNamedBands is FitBucketScales for the 4-band form.
func FitNamedBands(cfg mapproj.Config, fixtures []Fixture, bounds [3]float64) mapproj.NamedBands {
	out := mapproj.NamedBands{Bounds: bounds}
	var groups [4][]float64
	for _, f := range fixtures {
		scale, dist, ok := implied(cfg, f)
		if !ok {
			continue
		}
		i := out.Band(dist)
		groups[i] = append(groups[i], scale)
	}
	out.Near = roundedMean(groups[0])
	out.Mid = roundedMean(groups[1])
	out.Far = roundedMean(groups[2])
	out.VFar = roundedMean(groups[3])
	return out
}

func implied(cfg mapproj.Config, f Fixture) (scale, dist float64, ok bool) {
	dist = math.Abs(f.Latitude + 90)
	if dist == 0 {
		return 0, 0, false
	}
	rho := math.Hypot(f.PixelX-cfg.CenterPixelX, f.PixelY-cfg.CenterPixelY)
	return ImpliedScale(rho, dist), dist, true
}

func roundedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Round(stat.Mean(values, nil))
}

// Print writes the report as an aligned table.
func (r Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "pixel\texpected\tgot\tdlat\tdlon\trho\tazimuth\timplied scale")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "(%.0f, %.0f)\t%.2f, %.2f\t%.2f, %.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f\n",
			row.Fixture.PixelX, row.Fixture.PixelY,
			row.Fixture.Latitude, row.Fixture.Longitude,
			row.Latitude, row.Longitude,
			row.LatDiff, row.LonDiff, row.Rho, row.Azimuth, row.ImpliedScale)
	}
	fmt.Fprintf(tw, "\nmean dlat %.3f°, mean dlon %.3f°, max dlat %.3f°, max dlon %.3f°\n",
		r.MeanLatDiff, r.MeanLonDiff, r.MaxLatDiff, r.MaxLonDiff)
	return tw.Flush()
}

// Package mapproj converts between geographic coordinates and pixels of a
// south-pole centered Lambert Azimuthal Equal-Area map image.
//
// The map asset is not a pure LAEA render, so the transform carries two
// empirical corrections fit against reference points: a longitude correction
// factor between azimuth and longitude, and regional scales keyed by angular
// distance from the pole. All functions are pure and safe for concurrent use.
package mapproj

import (
	"math"
)

const (
	// DefaultLongitudeCorrectionFactor is used when Config leaves the factor zero.
	DefaultLongitudeCorrectionFactor = 1.43

	// PoleRadius is the pixel distance from the center under which a click
	// is treated as the pole.
	PoleRadius = 0.1
)

// Config describes how one map image is projected. It is read-only.
type Config struct {
	// Pixel location of the south pole in actual image pixels.
	CenterPixelX float64
	CenterPixelY float64
	// Meridian pointing straight down from the pole at azimuth 0, in degrees.
	CenterLongitude float64
	// Default pixels per unit of projection radius.
	Scale float64
	// Multiplier between azimuth and longitude displacement. Zero means
	// DefaultLongitudeCorrectionFactor.
	LongitudeCorrectionFactor float64
	// Rotation in degrees aligning north with the image's up. Zero is no rotation.
	Orientation float64
	// Optional per-distance overrides of Scale.
	RegionalScales RegionalScales
}

// CorrectionFactor returns the longitude correction factor in effect.
func (c Config) CorrectionFactor() float64 {
	if c.LongitudeCorrectionFactor == 0 {
		return DefaultLongitudeCorrectionFactor
	}
	return c.LongitudeCorrectionFactor
}

// PixelResult is the outcome of Project.
type PixelResult struct {
	X float64
	Y float64
	// Rho is the radial distance from the pole in pixels.
	Rho float64
	// Azimuth is the bearing clockwise from north in [0, 360).
	Azimuth float64
	// Pole is set when the input was the pole itself; Rho and Azimuth are
	// meaningless then.
	Pole bool
}

// GeoResult is the outcome of Unproject.
type GeoResult struct {
	Longitude float64
	Latitude  float64
	Rho       float64
	Azimuth   float64
	// Pole is set when the pixel fell within PoleRadius of the center;
	// Azimuth is meaningless then.
	Pole bool
}

// Project maps a latitude/longitude in degrees to actual image pixels.
func Project(lat, lon float64, cfg Config) PixelResult {
	if lat == -90 {
		return PixelResult{X: cfg.CenterPixelX, Y: cfg.CenterPixelY, Pole: true}
	}

	angularDist := math.Abs(lat + 90)
	scale := SelectScale(cfg, angularDist)
	rho := scale * 2 * math.Sin(radians(angularDist)/2)

	lonDiff := normalizeLonDiff(lon - cfg.CenterLongitude)
	component := math.Abs(lonDiff) / cfg.CorrectionFactor()

	// Linear azimuth/longitude relation; Unproject relies on this exact form.
	var azimuth float64
	if lonDiff > 0 {
		azimuth = component
	} else {
		azimuth = 360 - component
	}
	azimuth = normalizeAzimuth(azimuth - cfg.Orientation)

	az := radians(azimuth)
	return PixelResult{
		X:       cfg.CenterPixelX + rho*math.Sin(az),
		Y:       cfg.CenterPixelY - rho*math.Cos(az),
		Rho:     rho,
		Azimuth: azimuth,
	}
}

// Unproject maps actual image pixels to a latitude/longitude in degrees.
//
// The regional scale depends on the angular distance, which is itself the
// output; a provisional distance computed with the flat scale picks the
// regional scale first (see ResolveScale). Points very close to a bucket
// bound can land in the neighbouring bucket.
func Unproject(px, py float64, cfg Config) GeoResult {
	dx := px - cfg.CenterPixelX
	dy := py - cfg.CenterPixelY
	rho := math.Hypot(dx, dy)

	if rho < PoleRadius {
		return GeoResult{Longitude: cfg.CenterLongitude, Latitude: -90, Rho: rho, Pole: true}
	}

	scale := ResolveScale(cfg, rho)
	azimuth := normalizeAzimuth(degrees(math.Atan2(dx, -dy)) + cfg.Orientation)
	lat := ComputeLatitude(rho, scale)

	var west, east float64
	if azimuth > 180 {
		west = 360 - azimuth
	} else {
		east = azimuth
	}
	factor := cfg.CorrectionFactor()
	lon := normalizeLongitude(cfg.CenterLongitude - west*factor + east*factor)

	return GeoResult{Longitude: lon, Latitude: lat, Rho: rho, Azimuth: azimuth}
}

// EstimateColatitude returns the angular distance from the pole, in degrees,
// that rho corresponds to under scale. Out-of-range ratios saturate at 180.
func EstimateColatitude(rho, scale float64) float64 {
	return degrees(2 * math.Asin(clamp(rho/(2*scale), -1, 1)))
}

// ResolveScale picks the regional scale for a pixel distance rho using a
// provisional colatitude estimated with the flat cfg.Scale.
func ResolveScale(cfg Config, rho float64) float64 {
	if cfg.RegionalScales == nil {
		return cfg.Scale
	}
	return SelectScale(cfg, EstimateColatitude(rho, cfg.Scale))
}

// ComputeLatitude inverts the LAEA radial law for a resolved scale.
func ComputeLatitude(rho, scale float64) float64 {
	return EstimateColatitude(rho, scale) - 90
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// normalizeLonDiff maps d into (-180, 180].
func normalizeLonDiff(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// normalizeLongitude maps lon into [-180, 180].
func normalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return lon
}

// normalizeAzimuth maps a into [0, 360).
func normalizeAzimuth(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

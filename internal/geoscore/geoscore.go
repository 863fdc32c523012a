package geoscore

import (
	"fmt"
	"math"
)

const (
	// MinFiveKRadius is the minimum threshold for 5000-point radius in meters
	// This prevents extremely small radii on tight maps
	MinFiveKRadius = 25.0

	// EarthRadiusKm is the sphere radius used for reported distances.
	EarthRadiusKm = 6371.0

	// MaxScore is a perfect guess.
	MaxScore = 5000
)

func haversine(lat1, lng1, lat2, lng2, radius float64) float64 {
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	dφ := (lat2 - lat1) * math.Pi / 180.0
	dλ := (lng2 - lng1) * math.Pi / 180.0

	sinDφ := math.Sin(dφ / 2)
	sinDλ := math.Sin(dλ / 2)

	a := sinDφ*sinDφ + math.Cos(φ1)*math.Cos(φ2)*sinDλ*sinDλ
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

// DistanceKm is the great-circle distance in kilometers on a 6371 km sphere.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return haversine(lat1, lng1, lat2, lng2, EarthRadiusKm)
}

// Haversine distance (meters) between two WGS84 lat/lng points (degrees).
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371008.8 // mean Earth radius (m)
	return haversine(lat1, lng1, lat2, lng2, R)
}

// FiveKRadiusMeters returns the "5k radius" threshold in meters.
// Derived from: score=5000*exp(-10*d/maxErrorDistance) and rounding to 5000 at >=4999.5,
// and applying the common minimum threshold of 25m.
func FiveKRadiusMeters(maxErrorDistanceMeters float64) float64 {
	if maxErrorDistanceMeters <= 0 {
		return 0
	}
	r := math.Log(MaxScore/(MaxScore-0.5)) * maxErrorDistanceMeters / 10.0
	if r < MinFiveKRadius {
		r = MinFiveKRadius
	}
	return r
}

// GeoGuessrScore returns an integer score in [0, 5000].
// - trueLat/trueLng: correct location
// - guessLat/guessLng: player's guess
// - maxErrorDistanceMeters: map scale parameter (per-map)
func GeoGuessrScore(trueLat, trueLng, guessLat, guessLng, maxErrorDistanceMeters float64) int {
	return ScoreForDistance(DistanceMeters(trueLat, trueLng, guessLat, guessLng), maxErrorDistanceMeters)
}

// ScoreForDistance scores a guess d meters away from the answer.
func ScoreForDistance(d, maxErrorDistanceMeters float64) int {
	if maxErrorDistanceMeters <= 0 || math.IsNaN(d) {
		return 0
	}
	if d <= FiveKRadiusMeters(maxErrorDistanceMeters) {
		return MaxScore
	}

	score := int(math.Round(MaxScore * math.Exp(-10.0*d/maxErrorDistanceMeters)))
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// MaxErrorDistanceFromBounds computes a map-scale parameter from a bounding box diagonal (meters).
func MaxErrorDistanceFromBounds(swLat, swLng, neLat, neLng float64) float64 {
	return DistanceMeters(swLat, swLng, neLat, neLng)
}

// FormatDistance formats distance in a human-readable way.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.2fkm", meters/1000.0)
}

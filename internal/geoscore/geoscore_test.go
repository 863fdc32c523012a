package geoscore

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
	}{
		{"same point", -34.6, -58.4, -34.6, -58.4},
		{"buenos aires to ushuaia", -34.6037, -58.3816, -54.8019, -68.3030},
		{"across the map", -22.8140442, -67.1805016, -52.3952103, -68.4269718},
		{"antipodal-ish", 0, 0, 0, 179.9},
		{"pole", -90, 0, -50, -60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := s2.LatLngFromDegrees(tt.lat1, tt.lng1)
			b := s2.LatLngFromDegrees(tt.lat2, tt.lng2)
			want := a.Distance(b).Radians() * EarthRadiusKm

			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-want) > 1e-3 {
				t.Errorf("DistanceKm() = %v, want %v", got, want)
			}
			if rev := DistanceKm(tt.lat2, tt.lng2, tt.lat1, tt.lng1); math.Abs(rev-got) > 1e-9 {
				t.Errorf("DistanceKm() not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestDistanceMetersMatchesKm(t *testing.T) {
	km := DistanceKm(-30, -60, -50, -60)
	m := DistanceMeters(-30, -60, -50, -60)
	// 20° of meridian.
	if math.Abs(km-2223.9) > 0.1 {
		t.Errorf("DistanceKm() = %v, want ~2223.9", km)
	}
	if math.Abs(m/1000-km) > 0.01 {
		t.Errorf("DistanceMeters() = %v, want ~%v km", m, km)
	}
}

func TestGeoGuessrScore(t *testing.T) {
	const maxErr = 4000e3

	if got := GeoGuessrScore(-34, -58, -34, -58, maxErr); got != MaxScore {
		t.Errorf("exact guess = %d, want %d", got, MaxScore)
	}
	if got := GeoGuessrScore(-34, -58, -34, -58, 0); got != 0 {
		t.Errorf("zero max error = %d, want 0", got)
	}

	near := GeoGuessrScore(-34, -58, -35, -58, maxErr)
	far := GeoGuessrScore(-34, -58, -50, -70, maxErr)
	if !(near > far && far > 0 && near < MaxScore) {
		t.Errorf("scores not monotonic: near=%d far=%d", near, far)
	}
}

func TestScoreForDistance(t *testing.T) {
	tests := []struct {
		d, maxErr float64
		want      int
	}{
		{0, 1000e3, 5000},
		{MinFiveKRadius, 10, 5000},
		{100e3, 1000e3, 1839},
		{1000e3, 1000e3, 0},
		{math.NaN(), 1000e3, 0},
	}
	for _, tt := range tests {
		if got := ScoreForDistance(tt.d, tt.maxErr); got != tt.want {
			t.Errorf("ScoreForDistance(%v, %v) = %d, want %d", tt.d, tt.maxErr, got, tt.want)
		}
	}
}

func TestFiveKRadiusMeters(t *testing.T) {
	if got := FiveKRadiusMeters(0); got != 0 {
		t.Errorf("FiveKRadiusMeters(0) = %v, want 0", got)
	}
	if got := FiveKRadiusMeters(100); got != MinFiveKRadius {
		t.Errorf("FiveKRadiusMeters(100) = %v, want %v", got, MinFiveKRadius)
	}
	got := FiveKRadiusMeters(20015086.796)
	if math.Abs(got-200.161) > 0.01 {
		t.Errorf("FiveKRadiusMeters(world) = %v, want ~200.16", got)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0m"},
		{850.4, "850m"},
		{999.4, "999m"},
		{1000, "1.00km"},
		{12346, "12.35km"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}

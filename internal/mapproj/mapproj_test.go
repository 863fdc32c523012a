package mapproj

import (
	"math"
	"sync"
	"testing"
)

const epsilon = 1e-9

// argentinaBuckets is the 8-bucket calibration of the Argentina map.
func argentinaBuckets() Config {
	return Config{
		CenterPixelX:              366,
		CenterPixelY:              2615,
		CenterLongitude:           -60,
		Scale:                     2400,
		LongitudeCorrectionFactor: 1.43,
		RegionalScales:            NewBucketScales([8]float64{2498, 2475, 2450, 2535, 2505, 2440, 2385, 2340}),
	}
}

// argentinaBands is the older 4-band calibration of the same map.
func argentinaBands() Config {
	cfg := argentinaBuckets()
	cfg.RegionalScales = NamedBands{Near: 2498, Mid: 2402, Far: 2351, VFar: 2333}
	return cfg
}

func flat() Config {
	cfg := argentinaBuckets()
	cfg.RegionalScales = nil
	return cfg
}

func TestUnprojectPoleFixedPoint(t *testing.T) {
	for name, cfg := range map[string]Config{"buckets": argentinaBuckets(), "bands": argentinaBands(), "flat": flat()} {
		got := Unproject(cfg.CenterPixelX, cfg.CenterPixelY, cfg)
		if got.Latitude != -90 || got.Longitude != cfg.CenterLongitude || !got.Pole {
			t.Errorf("%s: Unproject(center) = %+v, want (-90, %v) at pole", name, got, cfg.CenterLongitude)
		}
	}
}

func TestUnprojectNearPole(t *testing.T) {
	cfg := argentinaBuckets()
	got := Unproject(cfg.CenterPixelX+0.05, cfg.CenterPixelY-0.05, cfg)
	if !got.Pole || got.Latitude != -90 || got.Longitude != -60 {
		t.Errorf("Unproject within pole radius = %+v, want pole", got)
	}
	got = Unproject(cfg.CenterPixelX+0.2, cfg.CenterPixelY, cfg)
	if got.Pole {
		t.Errorf("Unproject 0.2px from center should not be the pole")
	}
}

func TestProjectPole(t *testing.T) {
	cfg := argentinaBuckets()
	got := Project(-90, 123, cfg)
	if !got.Pole || got.X != 366 || got.Y != 2615 {
		t.Errorf("Project(-90) = %+v, want center pixel", got)
	}
}

func TestCalibrationScenario(t *testing.T) {
	// Reference point of the calibration harness: 50°S 60°W sits at (365, 906).
	got := Unproject(365, 906, argentinaBuckets())
	if math.Abs(got.Latitude-(-50)) > 0.5 {
		t.Errorf("latitude = %f, want about -50", got.Latitude)
	}
	if math.Abs(got.Longitude-(-60)) > 0.5 {
		t.Errorf("longitude = %f, want about -60", got.Longitude)
	}
	if math.Abs(got.Latitude-(-50.110015)) > 1e-5 {
		t.Errorf("latitude = %f, want -50.110015", got.Latitude)
	}
	if math.Abs(got.Longitude-(-60.047942)) > 1e-5 {
		t.Errorf("longitude = %f, want -60.047942", got.Longitude)
	}

	// The 4-band calibration picks mid (2402) and lands further north.
	got = Unproject(365, 906, argentinaBands())
	if math.Abs(got.Latitude-(-48.321745)) > 1e-5 {
		t.Errorf("bands latitude = %f, want -48.321745", got.Latitude)
	}

	pole := Unproject(366, 2615, argentinaBands())
	if pole.Latitude != -90 || pole.Longitude != -60 {
		t.Errorf("Unproject(366, 2615) = (%f, %f), want (-90, -60)", pole.Latitude, pole.Longitude)
	}
}

func TestProjectKnownPixels(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		lat, lon float64
		wantX    float64
		wantY    float64
		wantAz   float64
	}{
		// 60° from the pole is past the last bound: bucket 8, scale 2340, rho = 2340.
		{"buckets on center meridian", argentinaBuckets(), -30, -60, 366, 275, 0},
		// Flat: rho = 4800*sin(20°).
		{"flat on center meridian", flat(), -50, -60, 366, 2615 - 4800*math.Sin(20*math.Pi/180), 0},
		// 14.3° east of center is azimuth 10°.
		{"flat east", flat(), -30, -45.7, 366 + 2400*math.Sin(10*math.Pi/180), 2615 - 2400*math.Cos(10*math.Pi/180), 10},
		// 14.3° west of center is azimuth 350°.
		{"flat west", flat(), -30, -74.3, 366 - 2400*math.Sin(10*math.Pi/180), 2615 - 2400*math.Cos(10*math.Pi/180), 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.lat, tt.lon, tt.cfg)
			if math.Abs(got.X-tt.wantX) > 1e-6 || math.Abs(got.Y-tt.wantY) > 1e-6 {
				t.Errorf("Project = (%f, %f), want (%f, %f)", got.X, got.Y, tt.wantX, tt.wantY)
			}
			if math.Abs(got.Azimuth-tt.wantAz) > 1e-6 {
				t.Errorf("Azimuth = %f, want %f", got.Azimuth, tt.wantAz)
			}
		})
	}
}

func TestRoundTripFlatIsExact(t *testing.T) {
	for _, orientation := range []float64{0, 15, -30} {
		cfg := flat()
		cfg.Orientation = orientation
		for _, lat := range []float64{-23.43, -30, -40, -50, -89.9} {
			for _, d := range []float64{0, 10, -10, 20, -20} {
				lon := cfg.CenterLongitude + d
				p := Project(lat, lon, cfg)
				g := Unproject(p.X, p.Y, cfg)
				if math.Abs(g.Latitude-lat) > 1e-6 || math.Abs(g.Longitude-lon) > 1e-6 {
					t.Errorf("orientation %v: (%v, %v) -> (%f, %f) -> (%f, %f)",
						orientation, lat, lon, p.X, p.Y, g.Latitude, g.Longitude)
				}
			}
		}
	}
}

func TestRoundTripRegional(t *testing.T) {
	// Smoothly varying scales: the provisional colatitude may pick a
	// neighbouring bucket, but the error stays well under a degree.
	configs := map[string]Config{
		"buckets": func() Config {
			c := flat()
			c.RegionalScales = NewBucketScales([8]float64{2430, 2425, 2420, 2415, 2410, 2405, 2400, 2395})
			return c
		}(),
		"bands": func() Config {
			c := flat()
			c.RegionalScales = NamedBands{Near: 2420, Mid: 2410, Far: 2400, VFar: 2390}
			return c
		}(),
	}
	for name, cfg := range configs {
		for _, lat := range []float64{-23.43, -30, -40, -50, -90} {
			for _, d := range []float64{0, 10, -10, 20, -20} {
				lon := cfg.CenterLongitude + d
				p := Project(lat, lon, cfg)
				g := Unproject(p.X, p.Y, cfg)
				if math.Abs(g.Latitude-lat) > 1 {
					t.Errorf("%s: lat %v round-tripped to %f", name, lat, g.Latitude)
				}
				if lat != -90 && math.Abs(g.Longitude-lon) > 1e-6 {
					t.Errorf("%s: lon %v round-tripped to %f", name, lon, g.Longitude)
				}
			}
		}
	}
}

func TestAzimuthDomain(t *testing.T) {
	for _, orientation := range []float64{0, 90, -90, 359.999, 720, -1e-12} {
		cfg := argentinaBuckets()
		cfg.Orientation = orientation
		for lat := -89.5; lat <= 90; lat += 7.25 {
			for lon := -540.0; lon <= 540; lon += 13.7 {
				p := Project(lat, lon, cfg)
				if p.Azimuth < 0 || p.Azimuth >= 360 {
					t.Fatalf("Project(%v, %v) azimuth %v out of [0, 360)", lat, lon, p.Azimuth)
				}
				g := Unproject(p.X, p.Y, cfg)
				if g.Azimuth < 0 || g.Azimuth >= 360 {
					t.Fatalf("Unproject azimuth %v out of [0, 360)", g.Azimuth)
				}
			}
		}
	}
}

func TestLongitudeDomain(t *testing.T) {
	cfg := argentinaBuckets()
	cfg.LongitudeCorrectionFactor = 3
	cfg.CenterLongitude = 170
	for x := -5000.0; x <= 5000; x += 250 {
		for y := -5000.0; y <= 8000; y += 250 {
			g := Unproject(x, y, cfg)
			if g.Longitude < -180 || g.Longitude > 180 {
				t.Fatalf("Unproject(%v, %v) longitude %v out of [-180, 180]", x, y, g.Longitude)
			}
		}
	}
}

func TestClampSafety(t *testing.T) {
	cfg := argentinaBuckets()
	far := 10 * 2535 * 2.0
	for _, p := range [][2]float64{{366 + far, 2615}, {366, 2615 - far}, {366 - far, 2615 + far}} {
		g := Unproject(p[0], p[1], cfg)
		if math.IsNaN(g.Latitude) || math.IsInf(g.Latitude, 0) {
			t.Fatalf("Unproject(%v) latitude is not finite", p)
		}
		if math.Abs(g.Latitude-90) > epsilon {
			t.Errorf("Unproject(%v) latitude = %v, want saturation at 90", p, g.Latitude)
		}
	}
}

func TestTwoPassSteps(t *testing.T) {
	cfg := argentinaBuckets()
	rho := 1709.0

	provisional := EstimateColatitude(rho, cfg.Scale)
	if math.Abs(provisional-41.7146) > 1e-3 {
		t.Errorf("EstimateColatitude = %f, want about 41.7146", provisional)
	}
	if got := ResolveScale(cfg, rho); got != 2505 {
		t.Errorf("ResolveScale = %v, want 2505 (bucket 41-45)", got)
	}
	if got := ResolveScale(flat(), rho); got != 2400 {
		t.Errorf("ResolveScale without regional scales = %v, want 2400", got)
	}
	if got := ComputeLatitude(rho, 2505); math.Abs(got-(-50.11)) > 1e-2 {
		t.Errorf("ComputeLatitude = %f, want about -50.11", got)
	}
	if got := EstimateColatitude(1e9, cfg.Scale); math.Abs(got-180) > epsilon {
		t.Errorf("EstimateColatitude saturates at %v, want 180", got)
	}
}

func TestCorrectionFactorDefault(t *testing.T) {
	cfg := flat()
	cfg.LongitudeCorrectionFactor = 0
	if cfg.CorrectionFactor() != DefaultLongitudeCorrectionFactor {
		t.Errorf("CorrectionFactor = %v, want default", cfg.CorrectionFactor())
	}
	withDefault := Project(-30, -45.7, cfg)
	explicit := Project(-30, -45.7, flat())
	if withDefault != explicit {
		t.Errorf("zero factor %+v differs from explicit 1.43 %+v", withDefault, explicit)
	}
}

func TestNaNDoesNotHang(t *testing.T) {
	cfg := argentinaBuckets()
	p := Project(-40, math.NaN(), cfg)
	if !math.IsNaN(p.X) {
		t.Errorf("Project with NaN longitude = %+v, want NaN pixel", p)
	}
	g := Unproject(math.Inf(1), 0, cfg)
	if !math.IsNaN(g.Longitude) && (g.Longitude < -180 || g.Longitude > 180) {
		t.Errorf("Unproject(+Inf) longitude = %v", g.Longitude)
	}
}

func TestConcurrentUse(t *testing.T) {
	cfg := argentinaBuckets()
	want := Unproject(365, 906, cfg)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Unproject(365, 906, cfg); got != want {
					t.Errorf("concurrent Unproject = %+v, want %+v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

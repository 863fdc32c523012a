package calibrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is a reference point read off the map image: where a known
// latitude/longitude actually sits in image pixels.
type Fixture struct {
	Label     string  `yaml:"label,omitempty"`
	PixelX    float64 `yaml:"pixel_x"`
	PixelY    float64 `yaml:"pixel_y"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lon"`
}

type fixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// LoadFixtures reads fixtures from a YAML file with a top-level
// `fixtures` list.
func LoadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	if len(f.Fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures in %s", path)
	}
	return f.Fixtures, nil
}

// DefaultFixtures returns the reference points measured on the Argentina map.
// Longitudes are signed, west negative.
func DefaultFixtures() []Fixture {
	return []Fixture{
		// 20-30
		{PixelX: 150, PixelY: 43, Latitude: -22.8140442, Longitude: -67.1805016},
		{PixelX: 236, PixelY: 41, Latitude: -22.8682513, Longitude: -64.3173752},
		{PixelX: 365, PixelY: 54, Latitude: -23.43, Longitude: -60},
		{PixelX: 67, PixelY: 70, Latitude: -23.43, Longitude: -70},
		{PixelX: 524, PixelY: 128, Latitude: -25.5924115, Longitude: -54.5929786},
		{PixelX: 315, PixelY: 126, Latitude: -25.6546517, Longitude: -61.7100661},
		{PixelX: 244, PixelY: 251, Latitude: -29.4958206, Longitude: -64.3404028},
		// 30-40
		{PixelX: 365, PixelY: 264, Latitude: -30, Longitude: -60},
		{PixelX: 85, PixelY: 280, Latitude: -30, Longitude: -70},
		{PixelX: 275, PixelY: 407, Latitude: -34.3832745, Longitude: -63.3850129},
		{PixelX: 276, PixelY: 426, Latitude: -35.000061, Longitude: -63.3855941},
		{PixelX: 149, PixelY: 466, Latitude: -35.9995233, Longitude: -68.2960968},
		{PixelX: 165, PixelY: 562, Latitude: -38.9866808, Longitude: -68.0042446},
		// 40-50
		{PixelX: 365, PixelY: 585, Latitude: -40, Longitude: -60},
		{PixelX: 118, PixelY: 599, Latitude: -40, Longitude: -70},
		{PixelX: 263, PixelY: 684, Latitude: -42.9581164, Longitude: -64.2978424},
		{PixelX: 194, PixelY: 786, Latitude: -45.9989444, Longitude: -67.5889419},
		{PixelX: 104, PixelY: 796, Latitude: -45.9995282, Longitude: -71.6465389},
		{PixelX: 185, PixelY: 910, Latitude: -49.7863612, Longitude: -68.6268418},
		// 50-60
		{PixelX: 365, PixelY: 906, Latitude: -50, Longitude: -60},
		{PixelX: 158, PixelY: 919, Latitude: -50, Longitude: -70},
		{PixelX: 411, PixelY: 961, Latitude: -51.6286841, Longitude: -57.7425847},
		{PixelX: 200, PixelY: 991, Latitude: -52.3952103, Longitude: -68.4269718},
		// pole
		{Label: "south pole", PixelX: 366, PixelY: 2615, Latitude: -90, Longitude: -60},
	}
}

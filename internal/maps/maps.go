// Package maps holds the registry of playable map images and their
// projection calibration.
package maps

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/susu3304/tweetguessr/internal/geoscore"
	"github.com/susu3304/tweetguessr/internal/mapproj"
	"gopkg.in/yaml.v3"
)

// DefaultMapID is the id of the builtin map.
const DefaultMapID = "argentina"

var (
	ErrMapNotFound = errors.New("map not found")
	ErrDuplicateID = errors.New("duplicate map id")
)

// Map is one entry of maps.yaml.
type Map struct {
	ID   string `yaml:"id" json:"id" validate:"required,max=64,excludesall=/?#"`
	Name string `yaml:"name" json:"name"`
	// Image is the image store key of the map. Empty means each round shows
	// its tweet's image, which is drawn on this map.
	Image  string `yaml:"image,omitempty" json:"image,omitempty"`
	Width  int    `yaml:"width" json:"width" validate:"gt=0"`
	Height int    `yaml:"height" json:"height" validate:"gt=0"`

	CenterPixelX              float64    `yaml:"center_pixel_x" json:"center_pixel_x"`
	CenterPixelY              float64    `yaml:"center_pixel_y" json:"center_pixel_y"`
	CenterLongitude           float64    `yaml:"center_longitude" json:"center_longitude" validate:"gte=-180,lte=180"`
	Scale                     float64    `yaml:"scale" json:"scale" validate:"gt=0"`
	LongitudeCorrectionFactor float64    `yaml:"longitude_correction_factor,omitempty" json:"longitude_correction_factor,omitempty" validate:"gte=0"`
	Orientation               float64    `yaml:"orientation,omitempty" json:"orientation,omitempty"`
	RegionalScales            ScaleTable `yaml:"regional_scales,omitempty" json:"-"`

	MaxErrorKm float64 `yaml:"max_error_km,omitempty" json:"max_error_km,omitempty" validate:"gte=0"`
}

// Projection returns the projection config of the map.
func (m Map) Projection() mapproj.Config {
	return mapproj.Config{
		CenterPixelX:              m.CenterPixelX,
		CenterPixelY:              m.CenterPixelY,
		CenterLongitude:           m.CenterLongitude,
		Scale:                     m.Scale,
		LongitudeCorrectionFactor: m.LongitudeCorrectionFactor,
		Orientation:               m.Orientation,
		RegionalScales:            m.RegionalScales.RegionalScales,
	}
}

// MaxErrorMeters is the scoring scale of the map. Without an explicit
// max_error_km it is the diagonal of the bounding box of the image corners.
func (m Map) MaxErrorMeters() float64 {
	if m.MaxErrorKm > 0 {
		return m.MaxErrorKm * 1000
	}

	cfg := m.Projection()
	w, h := float64(m.Width), float64(m.Height)
	minLat, minLng := math.Inf(1), math.Inf(1)
	maxLat, maxLng := math.Inf(-1), math.Inf(-1)
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		g := mapproj.Unproject(c[0], c[1], cfg)
		minLat, maxLat = math.Min(minLat, g.Latitude), math.Max(maxLat, g.Latitude)
		minLng, maxLng = math.Min(minLng, g.Longitude), math.Max(maxLng, g.Longitude)
	}
	return geoscore.MaxErrorDistanceFromBounds(minLat, minLng, maxLat, maxLng)
}

// Registry is a read-only set of maps keyed by id.
type Registry struct {
	maps map[string]Map
}

type mapsFile struct {
	Maps []Map `yaml:"maps"`
}

// Load reads a registry from a YAML file with a top-level `maps` list.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read maps file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a maps document.
func Parse(data []byte) (*Registry, error) {
	var f mapsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse maps: %w", err)
	}
	return New(f.Maps...)
}

var validate = validator.New()

// New validates maps and builds a registry from them.
func New(maps ...Map) (*Registry, error) {
	if len(maps) == 0 {
		return nil, errors.New("no maps defined")
	}
	r := &Registry{maps: make(map[string]Map, len(maps))}
	for _, m := range maps {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("invalid map %q: %s", m.ID, validationMessage(err))
		}
		if _, ok := r.maps[m.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		r.maps[m.ID] = m
	}
	return r, nil
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Builtin returns the registry holding only the calibrated Argentina map.
func Builtin() *Registry {
	r, err := New(Argentina())
	if err != nil {
		panic(err)
	}
	return r
}

// Argentina is the south-pole LAEA map of Argentina the tweets are drawn on,
// with 8-bucket scales fit against surveyed reference points.
func Argentina() Map {
	return Map{
		ID:                        DefaultMapID,
		Name:                      "Argentina",
		Width:                     732,
		Height:                    1100,
		CenterPixelX:              366,
		CenterPixelY:              2615,
		CenterLongitude:           -60,
		Scale:                     2400,
		LongitudeCorrectionFactor: mapproj.DefaultLongitudeCorrectionFactor,
		RegionalScales: ScaleTable{mapproj.NewBucketScales(
			[8]float64{2498, 2475, 2450, 2535, 2505, 2440, 2385, 2340},
		)},
	}
}

// Get returns the map with the given id.
func (r *Registry) Get(id string) (Map, error) {
	m, ok := r.maps[id]
	if !ok {
		return Map{}, fmt.Errorf("%w: %s", ErrMapNotFound, id)
	}
	return m, nil
}

// List returns all maps sorted by id.
func (r *Registry) List() []Map {
	out := make([]Map, 0, len(r.maps))
	for _, m := range r.maps {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

package maps

import (
	"errors"
	"fmt"

	"github.com/susu3304/tweetguessr/internal/mapproj"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRegionalScales = errors.New("invalid regional_scales")

// ScaleTable is the YAML form of mapproj.RegionalScales. It decodes from
// either a sequence of up to 8 bucket scales or a near/mid/far/vfar mapping.
type ScaleTable struct {
	mapproj.RegionalScales
}

type bandsYAML struct {
	Near   float64   `yaml:"near,omitempty"`
	Mid    float64   `yaml:"mid,omitempty"`
	Far    float64   `yaml:"far,omitempty"`
	VFar   float64   `yaml:"vfar,omitempty"`
	Bounds []float64 `yaml:"bounds,omitempty"`
}

type bucketsYAML struct {
	Scales []float64 `yaml:"scales"`
	Bounds []float64 `yaml:"bounds,omitempty"`
}

func (t *ScaleTable) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			t.RegionalScales = nil
			return nil
		}
	case yaml.SequenceNode:
		var scales []float64
		if err := node.Decode(&scales); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRegionalScales, err)
		}
		b, err := bucketScales(scales, nil)
		if err != nil {
			return err
		}
		t.RegionalScales = b
		return nil
	case yaml.MappingNode:
		return t.decodeMapping(node)
	}
	return fmt.Errorf("%w: line %d: want a sequence or a mapping", ErrInvalidRegionalScales, node.Line)
}

func (t *ScaleTable) decodeMapping(node *yaml.Node) error {
	keys := make(map[string]bool, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i].Value
		switch k {
		case "near", "mid", "far", "vfar", "bounds", "scales":
		default:
			return fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidRegionalScales, node.Content[i].Line, k)
		}
		keys[k] = true
	}

	if keys["scales"] {
		if keys["near"] || keys["mid"] || keys["far"] || keys["vfar"] {
			return fmt.Errorf("%w: scales cannot be mixed with named bands", ErrInvalidRegionalScales)
		}
		var raw bucketsYAML
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRegionalScales, err)
		}
		b, err := bucketScales(raw.Scales, raw.Bounds)
		if err != nil {
			return err
		}
		t.RegionalScales = b
		return nil
	}

	var raw bandsYAML
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegionalScales, err)
	}
	n := mapproj.NamedBands{Near: raw.Near, Mid: raw.Mid, Far: raw.Far, VFar: raw.VFar}
	bands := n.Scales()
	if err := nonNegative(bands[:]); err != nil {
		return err
	}
	if len(raw.Bounds) > 0 {
		if len(raw.Bounds) != len(n.Bounds) {
			return fmt.Errorf("%w: named bands need %d bounds, got %d", ErrInvalidRegionalScales, len(n.Bounds), len(raw.Bounds))
		}
		if err := ascending(raw.Bounds); err != nil {
			return err
		}
		copy(n.Bounds[:], raw.Bounds)
	}
	t.RegionalScales = n
	return nil
}

func bucketScales(scales, bounds []float64) (mapproj.BucketScales, error) {
	var b mapproj.BucketScales
	if len(scales) > len(b.Scales) {
		return b, fmt.Errorf("%w: at most %d bucket scales, got %d", ErrInvalidRegionalScales, len(b.Scales), len(scales))
	}
	if err := nonNegative(scales); err != nil {
		return b, err
	}
	copy(b.Scales[:], scales)

	b.Bounds = mapproj.DefaultBucketBounds
	if len(bounds) > 0 {
		if len(bounds) != len(b.Bounds) {
			return b, fmt.Errorf("%w: buckets need %d bounds, got %d", ErrInvalidRegionalScales, len(b.Bounds), len(bounds))
		}
		if err := ascending(bounds); err != nil {
			return b, err
		}
		copy(b.Bounds[:], bounds)
	}
	return b, nil
}

func nonNegative(scales []float64) error {
	for _, s := range scales {
		if s < 0 {
			return fmt.Errorf("%w: negative scale %v", ErrInvalidRegionalScales, s)
		}
	}
	return nil
}

func ascending(bounds []float64) error {
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return fmt.Errorf("%w: bounds must be strictly ascending", ErrInvalidRegionalScales)
		}
	}
	return nil
}

// MarshalYAML writes buckets with default bounds as a plain sequence.
func (t ScaleTable) MarshalYAML() (interface{}, error) {
	switch rs := t.RegionalScales.(type) {
	case nil:
		return nil, nil
	case mapproj.BucketScales:
		if rs.Bounds == ([7]float64{}) || rs.Bounds == mapproj.DefaultBucketBounds {
			return rs.Scales[:], nil
		}
		return bucketsYAML{Scales: rs.Scales[:], Bounds: rs.Bounds[:]}, nil
	case mapproj.NamedBands:
		out := bandsYAML{Near: rs.Near, Mid: rs.Mid, Far: rs.Far, VFar: rs.VFar}
		if rs.Bounds != ([3]float64{}) && rs.Bounds != mapproj.DefaultBandBounds {
			out.Bounds = rs.Bounds[:]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported regional scales %T", rs)
	}
}

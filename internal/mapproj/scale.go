package mapproj

// DefaultBucketBounds are the upper angular-distance bounds (degrees from the
// south pole) of the first seven buckets of BucketScales. The eighth bucket
// catches everything beyond the last bound.
var DefaultBucketBounds = [7]float64{25, 30, 35, 40, 45, 50, 55}

// DefaultBandBounds are the upper bounds of the near, mid and far bands of
// NamedBands. Anything beyond the last bound is vfar.
var DefaultBandBounds = [3]float64{40, 50, 60}

// RegionalScales overrides the flat scale by angular distance from the pole.
// It is either BucketScales or NamedBands.
type RegionalScales interface {
	// scaleFor returns the regional scale for the distance, or 0 when the
	// selected entry is unset.
	scaleFor(angularDist float64) float64
}

// BucketScales is the 8-bucket form, ordered from the pole outward.
type BucketScales struct {
	Scales [8]float64
	// Bounds defaults to DefaultBucketBounds when left zero.
	Bounds [7]float64
}

// NewBucketScales returns BucketScales with the default bounds.
func NewBucketScales(scales [8]float64) BucketScales {
	return BucketScales{Scales: scales, Bounds: DefaultBucketBounds}
}

func (b BucketScales) bounds() [7]float64 {
	if b.Bounds == ([7]float64{}) {
		return DefaultBucketBounds
	}
	return b.Bounds
}

// Index returns the bucket, 0 through 7, that angularDist falls in.
func (b BucketScales) Index(angularDist float64) int {
	for i, bound := range b.bounds() {
		if angularDist <= bound {
			return i
		}
	}
	return len(b.Scales) - 1
}

func (b BucketScales) scaleFor(angularDist float64) float64 {
	return b.Scales[b.Index(angularDist)]
}

// NamedBands is the legacy 4-band form.
type NamedBands struct {
	Near float64
	Mid  float64
	Far  float64
	VFar float64
	// Bounds defaults to DefaultBandBounds when left zero.
	Bounds [3]float64
}

func (n NamedBands) bounds() [3]float64 {
	if n.Bounds == ([3]float64{}) {
		return DefaultBandBounds
	}
	return n.Bounds
}

// Band returns 0 (near), 1 (mid), 2 (far) or 3 (vfar) for angularDist.
func (n NamedBands) Band(angularDist float64) int {
	for i, bound := range n.bounds() {
		if angularDist <= bound {
			return i
		}
	}
	return 3
}

func (n NamedBands) scaleFor(angularDist float64) float64 {
	return n.Scales()[n.Band(angularDist)]
}

// Scales returns near, mid, far and vfar in band order.
func (n NamedBands) Scales() [4]float64 {
	return [4]float64{n.Near, n.Mid, n.Far, n.VFar}
}

// SelectScale returns the pixels-per-unit scale for a point angularDist
// degrees away from the south pole. Unset (zero) regional entries fall back
// to cfg.Scale.
func SelectScale(cfg Config, angularDist float64) float64 {
	if cfg.RegionalScales == nil {
		return cfg.Scale
	}
	if s := cfg.RegionalScales.scaleFor(angularDist); s > 0 {
		return s
	}
	return cfg.Scale
}

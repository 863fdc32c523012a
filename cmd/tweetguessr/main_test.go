package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectUnproject(t *testing.T) {
	out, err := run(t, "unproject", "365", "906")
	require.NoError(t, err)
	assert.Contains(t, out, "lat=-50.11")
	assert.Contains(t, out, "lon=-60.0479")

	out, err = run(t, "project", "--", "-90", "-60")
	require.NoError(t, err)
	assert.Contains(t, out, "x=366.00 y=2615.00")

	_, err = run(t, "project", "abc", "1")
	assert.ErrorContains(t, err, `invalid number "abc"`)

	_, err = run(t, "unproject", "--map", "atlantis", "1", "1")
	assert.ErrorContains(t, err, "map not found")
}

func TestMapsFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
maps:
  - id: flat
    width: 732
    height: 1100
    center_pixel_x: 366
    center_pixel_y: 2615
    center_longitude: -60
    scale: 2400
`), 0o644))

	out, err := run(t, "--maps", path, "unproject", "--map", "flat", "366", "2615")
	require.NoError(t, err)
	assert.Contains(t, out, "lat=-90.0000")

	_, err = run(t, "--maps", path, "unproject", "1", "1")
	assert.ErrorContains(t, err, "map not found")
}

func TestCalibrate(t *testing.T) {
	out, err := run(t, "calibrate")
	require.NoError(t, err)
	assert.Contains(t, out, "map argentina, 24 reference points")
	assert.Contains(t, out, "mean dlat")
	assert.NotContains(t, out, "regional_scales")

	out, err = run(t, "calibrate", "--fit", "buckets")
	require.NoError(t, err)
	assert.Contains(t, out, "fitted buckets:")

	i := bytes.Index([]byte(out), []byte("regional_scales:"))
	require.GreaterOrEqual(t, i, 0, out)
	var doc struct {
		RegionalScales []float64 `yaml:"regional_scales"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out[i:]), &doc))
	assert.Equal(t, []float64{0, 0, 0, 2512, 2466, 2409, 2382, 2343}, doc.RegionalScales)

	_, err = run(t, "calibrate", "--fit", "rings")
	assert.ErrorContains(t, err, "--fit must be buckets or bands")
}

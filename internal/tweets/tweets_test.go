package tweets

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {
    "text": "¿Dónde queda esto? ñandú at 40°",
    "ciudad": "Neuquén",
    "departamento": "Confluencia",
    "provincia": "Neuquén",
    "lat": -38.9516,
    "lon": -68.0591,
    "imgSrc": "https://pbs.twimg.com/media/GkX1a2b?format=jpg&name=small"
  },
  {
    "text": "second",
    "ciudad": "Ushuaia",
    "departamento": "Ushuaia",
    "provincia": "Tierra del Fuego",
    "lat": -54.8019,
    "lon": -68.303,
    "imgSrc": "https://pbs.twimg.com/media/Hz9?name=large",
    "newSrc": "/img/tweets/Hz9.jpg",
    "imgId": "Hz9"
  }
]`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweets.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func TestImageID(t *testing.T) {
	tests := []struct {
		src     string
		want    string
		wantErr bool
	}{
		{"https://pbs.twimg.com/media/GkX1a2b?format=jpg&name=small", "GkX1a2b", false},
		{"https://pbs.twimg.com/media/GkX1a2b", "GkX1a2b", false},
		{"https://pbs.twimg.com/media/?format=jpg", "", true},
		{"https://example.com/photo.jpg", "", true},
		{"https://pbs.twimg.com/media/a/b?x", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ImageID(tt.src)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNoImageID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNormalizes(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	first, err := c.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "GkX1a2b", first.ImgID)
	assert.Equal(t, "/img/tweets/GkX1a2b.jpg", first.NewSrc)
	assert.Equal(t, [3]string{"Neuquén", "Confluencia", "Neuquén"}, first.Clues())

	_, err = c.Get(2)
	assert.True(t, errors.Is(err, ErrTweetNotFound))
	_, err = c.Get(-1)
	assert.True(t, errors.Is(err, ErrTweetNotFound))
}

func TestSaveKeepsText(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, c.Save(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "¿Dónde queda esto? ñandú")
	assert.Contains(t, s, "&name=small", "html characters are not escaped")
	assert.True(t, strings.HasPrefix(s, "[\n    {\n        \"text\""), "four space indent:\n%s", s)

	back, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, c.All(), back.All())
}

func TestRandom(t *testing.T) {
	c, err := Load(writeSample(t))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		idx, tw, err := c.Random(rng)
		require.NoError(t, err)
		want, _ := c.Get(idx)
		assert.Equal(t, want, tw)
		seen[idx] = true
	}
	assert.Len(t, seen, 2)

	_, _, err = NewCatalog(nil).Random(rng)
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"text": "not a list"}`), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

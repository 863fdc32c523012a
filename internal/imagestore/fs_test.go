package imagestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSPutGet(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFS(root)
	require.NoError(t, err)

	key := TweetKey("GkX1a2b")
	assert.Equal(t, "tweets/GkX1a2b.jpg", key)

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, strings.NewReader("jpeg bytes"), 10, "image/jpeg"))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(root, "tweets", "GkX1a2b.jpg"))

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(body))
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	entries, err := os.ReadDir(filepath.Join(root, "tweets"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestFSGetMissing(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Get(context.Background(), "tweets/missing.jpg")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(context.Background(), "tweets/a.jpg", strings.NewReader("x"), 1, ""))
	_, _, err = s.Get(context.Background(), "tweets")
	assert.True(t, errors.Is(err, ErrNotFound), "directories are not images")
}

func TestCleanKey(t *testing.T) {
	for _, key := range []string{"", "/", "../etc/passwd", "tweets/../../x", "a//b", `a\b`, "./a"} {
		_, err := CleanKey(key)
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}

	got, err := CleanKey("/tweets/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "tweets/a.jpg", got)
}

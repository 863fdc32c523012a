package tweets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/tweetguessr/internal/imagestore"
)

func TestDownloaderRun(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/media/ok":
			w.Header().Set("Content-Type", "image/jpeg")
			io.WriteString(w, "ok-bytes")
		case "/media/cached":
			t.Errorf("cached image fetched again")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := imagestore.NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, imagestore.TweetKey("cached"), strings.NewReader("old"), 3, "image/jpeg"))

	c := NewCatalog([]Tweet{
		{Text: "a", ImgSrc: srv.URL + "/media/ok?format=jpg"},
		{Text: "b", ImgSrc: srv.URL + "/media/cached?format=jpg"},
		{Text: "c", ImgSrc: srv.URL + "/media/gone?format=jpg"},
		{Text: "d", ImgSrc: "not-a-twimg-url"},
	})

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	d := NewDownloader(store, logger)

	stats, err := d.Run(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, DownloadStats{Downloaded: 1, Skipped: 1, Failed: 2}, stats)
	assert.Equal(t, int32(2), requests.Load())

	rc, _, err := store.Get(ctx, imagestore.TweetKey("ok"))
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "ok-bytes", string(body))

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestDownloaderCancelled(t *testing.T) {
	store, err := imagestore.NewFS(t.TempDir())
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDownloader(store, logger).Run(ctx, NewCatalog([]Tweet{{ImgSrc: "https://pbs.twimg.com/media/x"}}))
	assert.ErrorIs(t, err, context.Canceled)
}

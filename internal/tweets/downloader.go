package tweets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/imagestore"
)

// Downloader mirrors tweet images into an image store.
type Downloader struct {
	Store  imagestore.Store
	Client *http.Client
	Log    logrus.FieldLogger
}

// DownloadStats counts the outcome of a Run.
type DownloadStats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

func NewDownloader(store imagestore.Store, log logrus.FieldLogger) *Downloader {
	return &Downloader{
		Store:  store,
		Client: &http.Client{Timeout: 30 * time.Second},
		Log:    log,
	}
}

// Run fetches the image of every tweet not yet in the store. Failures are
// logged and counted; only context cancellation stops the run early.
func (d *Downloader) Run(ctx context.Context, c *Catalog) (DownloadStats, error) {
	var stats DownloadStats
	for _, t := range c.tweets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := d.Log.WithField("img_src", t.ImgSrc)
		if t.ImgID == "" {
			log.Warn("Skipping tweet without image id")
			stats.Failed++
			continue
		}

		key := imagestore.TweetKey(t.ImgID)
		log = log.WithField("key", key)
		exists, err := d.Store.Exists(ctx, key)
		if err != nil {
			log.WithError(err).Error("Failed to check image")
			stats.Failed++
			continue
		}
		if exists {
			log.Debug("Image already exists")
			stats.Skipped++
			continue
		}

		if err := d.fetch(ctx, t.ImgSrc, key); err != nil {
			log.WithError(err).Warn("Failed to download image")
			stats.Failed++
			continue
		}
		log.Info("Downloaded image")
		stats.Downloaded++
	}
	return stats, nil
}

func (d *Downloader) fetch(ctx context.Context, src, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return d.Store.Put(ctx, key, resp.Body, resp.ContentLength, contentType)
}

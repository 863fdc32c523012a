// Package tweets loads the catalog of geotagged tweets that rounds are
// drawn from.
package tweets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

var (
	ErrEmptyCatalog  = errors.New("tweet catalog is empty")
	ErrTweetNotFound = errors.New("tweet not found")
	ErrNoImageID     = errors.New("image url has no media id")
)

// Tweet is one record of tweets.json. Field names follow the scraped file.
type Tweet struct {
	Text       string  `json:"text"`
	City       string  `json:"ciudad"`
	Department string  `json:"departamento"`
	Province   string  `json:"provincia"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ImgSrc     string  `json:"imgSrc"`
	NewSrc     string  `json:"newSrc,omitempty"`
	ImgID      string  `json:"imgId,omitempty"`
}

// Clues returns the hints in reveal order, most specific first.
func (t Tweet) Clues() [3]string {
	return [3]string{t.City, t.Department, t.Province}
}

// Normalize fills ImgID and NewSrc from ImgSrc.
func (t *Tweet) Normalize() error {
	id, err := ImageID(t.ImgSrc)
	if err != nil {
		return err
	}
	t.ImgID = id
	t.NewSrc = LocalSrc(id)
	return nil
}

// ImageID extracts the media id from a twimg URL such as
// https://pbs.twimg.com/media/GkX1a2b?format=jpg&name=small.
func ImageID(imgSrc string) (string, error) {
	_, rest, ok := strings.Cut(imgSrc, "media/")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoImageID, imgSrc)
	}
	id, _, _ := strings.Cut(rest, "?")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrNoImageID, imgSrc)
	}
	return id, nil
}

// LocalSrc is the path the web UI loads a downloaded image from.
func LocalSrc(imageID string) string {
	return "/img/tweets/" + imageID + ".jpg"
}

// Catalog is an immutable list of tweets.
type Catalog struct {
	tweets []Tweet
}

// NewCatalog wraps tweets. Records without a usable image id keep their
// original fields.
func NewCatalog(tweets []Tweet) *Catalog {
	c := &Catalog{tweets: make([]Tweet, len(tweets))}
	copy(c.tweets, tweets)
	for i := range c.tweets {
		if c.tweets[i].ImgID == "" {
			_ = c.tweets[i].Normalize()
		}
	}
	return c
}

// Load reads a JSON array of tweets.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tweets: %w", err)
	}
	var list []Tweet
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse tweets %s: %w", path, err)
	}
	return NewCatalog(list), nil
}

func (c *Catalog) Len() int { return len(c.tweets) }

func (c *Catalog) Get(i int) (Tweet, error) {
	if i < 0 || i >= len(c.tweets) {
		return Tweet{}, fmt.Errorf("%w: index %d", ErrTweetNotFound, i)
	}
	return c.tweets[i], nil
}

// All returns a copy of the tweets.
func (c *Catalog) All() []Tweet {
	out := make([]Tweet, len(c.tweets))
	copy(out, c.tweets)
	return out
}

// Random picks a tweet uniformly. rng must not be shared between goroutines.
func (c *Catalog) Random(rng *rand.Rand) (int, Tweet, error) {
	if len(c.tweets) == 0 {
		return 0, Tweet{}, ErrEmptyCatalog
	}
	i := rng.Intn(len(c.tweets))
	return i, c.tweets[i], nil
}

// Save writes the catalog back as indented JSON, keeping non-ASCII text as is.
func (c *Catalog) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c.tweets); err != nil {
		return fmt.Errorf("failed to encode tweets: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write tweets: %w", err)
	}
	return nil
}

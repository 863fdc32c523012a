// Package imagestore stores map and tweet images by key.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound   = errors.New("image not found")
	ErrInvalidKey = errors.New("invalid image key")
)

// Info describes a stored image.
type Info struct {
	Size        int64
	ContentType string
}

// Store is a flat key/value store of images. Keys are slash separated
// relative paths such as "tweets/abc.jpg".
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns ErrNotFound for missing keys. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Info, error)
}

// TweetKey is the key of a tweet image.
func TweetKey(imageID string) string {
	return "tweets/" + imageID + ".jpg"
}

// CleanKey rejects keys that could escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return key, nil
}

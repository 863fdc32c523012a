// Package geourl extracts coordinates from Google Maps links.
package geourl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidURL      = errors.New("not a maps url")
	ErrNoCoordinates   = errors.New("coordinates not found")
	ErrOutOfRange      = errors.New("coordinates out of range")
	errTooManyRedirect = errors.New("too many redirects")
)

var (
	reAt     = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	re3d4d   = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	reSearch = regexp.MustCompile(`/maps/search/(-?\d+(?:\.\d+)?),\s*\+?\s*(-?\d+(?:\.\d+)?)`)
	reQ      = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)
)

// NewClient returns the client Resolve uses to follow short links.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errTooManyRedirect
			}
			return nil
		},
	}
}

// Resolve returns the coordinates of a Google Maps link. Links without
// coordinates in them (maps.app.goo.gl short links) are expanded by
// following redirects. A bare "lat,lng" is accepted as is.
func Resolve(ctx context.Context, client *http.Client, input string) (lat, lng float64, finalURL string, err error) {
	input = strings.TrimSpace(input)
	if m := reQ.FindStringSubmatch(input); len(m) == 3 {
		lat, lng, ok := parse2(m[1], m[2])
		if !ok {
			return 0, 0, input, ErrNoCoordinates
		}
		return checked(lat, lng, input)
	}

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidURL, input)
	}
	if lat, lng, ok := extractFromURL(input); ok {
		return checked(lat, lng, input)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", input, nil)
	if err != nil {
		return 0, 0, "", err
	}
	// Some endpoints behave better with a UA.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GeoTools/1.0)")
	req.Header.Set("Accept-Language", "es,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, "", err
	}
	defer resp.Body.Close()

	// After redirects, this is the final URL.
	if resp.Request == nil || resp.Request.URL == nil {
		return 0, 0, "", errors.New("failed to determine final URL")
	}
	finalURL = resp.Request.URL.String()

	lat, lng, ok := extractFromURL(finalURL)
	if !ok {
		return 0, 0, finalURL, fmt.Errorf("%w in final URL: %s", ErrNoCoordinates, finalURL)
	}
	return checked(lat, lng, finalURL)
}

func checked(lat, lng float64, finalURL string) (float64, float64, string, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, finalURL, fmt.Errorf("%w: %v,%v", ErrOutOfRange, lat, lng)
	}
	return lat, lng, finalURL, nil
}

func extractFromURL(s string) (lat, lng float64, ok bool) {
	// Pattern A: .../@lat,lng,zoom...
	if m := reAt.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// Pattern B: ...!3dlat!4dlng...
	if m := re3d4d.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// Pattern C: /maps/search/lat,lng or lat,+lng
	if m := reSearch.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}

	// Pattern D: query params like ?q=lat,lng or ?query=lat,lng
	u, err := url.Parse(s)
	if err == nil {
		for _, key := range []string{"q", "query"} {
			if v := u.Query().Get(key); v != "" {
				if mm := reQ.FindStringSubmatch(v); len(mm) == 3 {
					return parse2(mm[1], mm[2])
				}
			}
		}
	}

	return 0, 0, false
}

func parse2(a, b string) (lat, lng float64, ok bool) {
	la, err1 := strconv.ParseFloat(a, 64)
	lo, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return la, lo, true
}

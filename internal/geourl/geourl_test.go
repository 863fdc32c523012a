package geourl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantLat float64
		wantLng float64
		wantOk  bool
	}{
		{
			name:    "Pattern A: @lat,lng format",
			url:     "https://www.google.com/maps/@-41.1335,-71.3103,15z",
			wantLat: -41.1335,
			wantLng: -71.3103,
			wantOk:  true,
		},
		{
			name:    "Pattern B: !3dlat!4dlng format",
			url:     "https://www.google.com/maps/place/Ushuaia!3d-54.8019!4d-68.303",
			wantLat: -54.8019,
			wantLng: -68.303,
			wantOk:  true,
		},
		{
			name:    "Pattern A wins over B",
			url:     "https://www.google.com/maps/place/Salta/@-24.7821,-65.4232,13z/data=!3d-24.79!4d-65.41",
			wantLat: -24.7821,
			wantLng: -65.4232,
			wantOk:  true,
		},
		{
			name:    "Pattern C: /maps/search/lat,lng format with plus",
			url:     "https://www.google.com/maps/search/-31.4201,+-64.1888?coh=277533&entry=tts",
			wantLat: -31.4201,
			wantLng: -64.1888,
			wantOk:  true,
		},
		{
			name:    "Pattern C: /maps/search/lat,lng format without plus",
			url:     "https://www.google.com/maps/search/-31.4201,-64.1888",
			wantLat: -31.4201,
			wantLng: -64.1888,
			wantOk:  true,
		},
		{
			name:    "Pattern C: /maps/search/lat,lng with space separator",
			url:     "https://www.google.com/maps/search/-31.4201, -64.1888",
			wantLat: -31.4201,
			wantLng: -64.1888,
			wantOk:  true,
		},
		{
			name:    "Pattern D: query param ?q=lat,lng",
			url:     "https://www.google.com/maps?q=-34.6037,-58.3816",
			wantLat: -34.6037,
			wantLng: -58.3816,
			wantOk:  true,
		},
		{
			name:    "Pattern D: query param ?query=lat,lng",
			url:     "https://www.google.com/maps?query=-34.6037, -58.3816",
			wantLat: -34.6037,
			wantLng: -58.3816,
			wantOk:  true,
		},
		{
			name:    "Integer coordinates",
			url:     "https://www.google.com/maps/search/-38,+-68",
			wantLat: -38,
			wantLng: -68,
			wantOk:  true,
		},
		{
			name:   "No coordinates",
			url:    "https://www.google.com/maps/place/Mendoza",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLat, gotLng, gotOk := extractFromURL(tt.url)
			if gotOk != tt.wantOk {
				t.Errorf("extractFromURL() gotOk = %v, want %v", gotOk, tt.wantOk)
				return
			}
			if !tt.wantOk {
				return
			}
			if gotLat != tt.wantLat {
				t.Errorf("extractFromURL() gotLat = %v, want %v", gotLat, tt.wantLat)
			}
			if gotLng != tt.wantLng {
				t.Errorf("extractFromURL() gotLng = %v, want %v", gotLng, tt.wantLng)
			}
		})
	}
}

func TestResolveFollowsShortLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/place/Neuquen/@-38.9516,-68.0591,14z", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/maps/", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	lat, lng, final, err := Resolve(context.Background(), NewClient(), srv.URL+"/short")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if lat != -38.9516 || lng != -68.0591 {
		t.Errorf("Resolve() = %v,%v, want -38.9516,-68.0591", lat, lng)
	}
	if final != srv.URL+"/maps/place/Neuquen/@-38.9516,-68.0591,14z" {
		t.Errorf("Resolve() final URL = %q", final)
	}

	if _, _, _, err := Resolve(context.Background(), NewClient(), srv.URL+"/maps/place/Neuquen"); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("Resolve() without coordinates error = %v, want ErrNoCoordinates", err)
	}
	if _, _, _, err := Resolve(context.Background(), NewClient(), srv.URL+"/loop"); !errors.Is(err, errTooManyRedirect) {
		t.Errorf("Resolve() redirect loop error = %v", err)
	}
}

func TestResolveWithoutRequest(t *testing.T) {
	// A nil client panics if Resolve tries to fetch.
	tests := []struct {
		input   string
		wantLat float64
		wantLng float64
		wantErr error
	}{
		{input: " -34.6037, -58.3816 ", wantLat: -34.6037, wantLng: -58.3816},
		{input: "https://www.google.com/maps/@-41.1335,-71.3103,15z", wantLat: -41.1335, wantLng: -71.3103},
		{input: "-134.6, 10", wantErr: ErrOutOfRange},
		{input: "https://www.google.com/maps/@10,200,15z", wantErr: ErrOutOfRange},
		{input: "Neuquén", wantErr: ErrInvalidURL},
		{input: "ftp://example.com/@1,2", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lat, lng, _, err := Resolve(context.Background(), nil, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if lat != tt.wantLat || lng != tt.wantLng {
				t.Errorf("Resolve() = %v,%v, want %v,%v", lat, lng, tt.wantLat, tt.wantLng)
			}
		})
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MaxGeocodeResults caps how many candidates a search returns.
const MaxGeocodeResults = 8

var (
	// ErrPlaceNotFound means the provider returned no usable candidates.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrGeocodingFailed wraps transport errors, bad statuses and bad bodies.
	ErrGeocodingFailed = errors.New("geocoding request failed")
	// ErrSearchSuperseded is returned when a newer search started first.
	ErrSearchSuperseded = errors.New("search superseded by a newer query")
)

// GeocoderConfig holds place-search settings.
type GeocoderConfig struct {
	BaseURL      string
	UserAgent    string
	CountryCodes string
	Language     string
	Limit        int
	Timeout      time.Duration
}

// BoundingBox is the viewport a provider suggests for a place.
type BoundingBox struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LngMin float64 `json:"lngMin"`
	LngMax float64 `json:"lngMax"`
}

// Place is one geocoding candidate.
type Place struct {
	DisplayName string       `json:"displayName"`
	Lat         float64      `json:"lat"`
	Lng         float64      `json:"lng"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// GeocodingService resolves free-text place names through a
// Nominatim-compatible search API.
type GeocodingService struct {
	cfg    GeocoderConfig
	client *http.Client
}

// NewGeocodingService creates a new GeocodingService.
func NewGeocodingService(cfg GeocoderConfig) *GeocodingService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Limit <= 0 || cfg.Limit > MaxGeocodeResults {
		cfg.Limit = MaxGeocodeResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GeocodingService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type nominatimPlace struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

// Search looks up query. It makes one attempt and always returns a non-nil
// slice; on failure the slice is empty and the error is ErrPlaceNotFound or
// wraps ErrGeocodingFailed.
func (s *GeocodingService) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, ErrPlaceNotFound
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(s.cfg.Limit))
	if s.cfg.CountryCodes != "" {
		params.Set("countrycodes", s.cfg.CountryCodes)
	}
	if s.cfg.Language != "" {
		params.Set("accept-language", s.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return []Place{}, fmt.Errorf("%w: build request: %v", ErrGeocodingFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return []Place{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, ctx.Err())
		}
		log.Printf("[Geocode] request failed: %v", err)
		return []Place{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []Place{}, fmt.Errorf("%w: read body: %v", ErrGeocodingFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Geocode] unexpected status %d for %q", resp.StatusCode, query)
		return []Place{}, fmt.Errorf("%w: status %d", ErrGeocodingFailed, resp.StatusCode)
	}

	var raw []nominatimPlace
	if err := json.Unmarshal(body, &raw); err != nil {
		return []Place{}, fmt.Errorf("%w: decode: %v", ErrGeocodingFailed, err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, ok := r.place()
		if !ok {
			continue
		}
		places = append(places, p)
		if len(places) == MaxGeocodeResults {
			break
		}
	}
	if len(places) == 0 {
		return places, ErrPlaceNotFound
	}
	return places, nil
}

func (r nominatimPlace) place() (Place, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Place{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil || lng < -180 || lng > 180 {
		return Place{}, false
	}
	p := Place{DisplayName: r.DisplayName, Lat: lat, Lng: lng}
	if len(r.BoundingBox) == 4 {
		var v [4]float64
		ok := true
		for i, s := range r.BoundingBox {
			if v[i], err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				ok = false
				break
			}
		}
		if ok {
			p.BoundingBox = &BoundingBox{LatMin: v[0], LatMax: v[1], LngMin: v[2], LngMax: v[3]}
		}
	}
	return p, true
}

// Searcher is the place-search dependency of a GeocodeSession.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// GeocodeSession serialises searches typed by one editor: starting a search
// cancels the one still in flight, and results of an older search are
// discarded.
type GeocodeSession struct {
	searcher Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewGeocodeSession wraps searcher.
func NewGeocodeSession(searcher Searcher) *GeocodeSession {
	return &GeocodeSession{searcher: searcher}
}

// Search runs query, cancelling any earlier search of this session.
func (s *GeocodeSession) Search(ctx context.Context, query string) ([]Place, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	places, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		cancel()
		return []Place{}, ErrSearchSuperseded
	}
	s.cancel = nil
	cancel()
	return places, err
}

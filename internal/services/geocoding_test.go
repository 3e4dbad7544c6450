package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeocoder(t *testing.T, handler http.HandlerFunc) (*GeocodingService, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewGeocodingService(GeocoderConfig{
		BaseURL:      srv.URL + "/",
		UserAgent:    "gelato-test/1.0",
		CountryCodes: "ps,il",
		Language:     "en",
		Limit:        20,
		Timeout:      2 * time.Second,
	}), &calls
}

func TestSearchParsesCandidates(t *testing.T) {
	g, _ := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Old City", q.Get("q"))
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "8", q.Get("limit"), "limit is capped")
		assert.Equal(t, "ps,il", q.Get("countrycodes"))
		assert.Equal(t, "en", q.Get("accept-language"))
		assert.Equal(t, "gelato-test/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name": "Old City, Jerusalem", "lat": "31.7767", "lon": "35.2345", "boundingbox": ["31.77", "31.78", "35.22", "35.24"]},
			{"display_name": "Broken", "lat": "north", "lon": "35.1"},
			{"display_name": "Old City, Nablus", "lat": "32.2211", "lon": "35.2544"}
		]`))
	})

	places, err := g.Search(context.Background(), "  Old City ")
	require.NoError(t, err)
	require.Len(t, places, 2, "unparseable entries are dropped")
	assert.Equal(t, "Old City, Jerusalem", places[0].DisplayName)
	assert.InDelta(t, 31.7767, places[0].Lat, 1e-9)
	assert.InDelta(t, 35.2345, places[0].Lng, 1e-9)
	require.NotNil(t, places[0].BoundingBox)
	assert.InDelta(t, 35.24, places[0].BoundingBox.LngMax, 1e-9)
	assert.Nil(t, places[1].BoundingBox)
}

func TestSearchNotFound(t *testing.T) {
	g, calls := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	places, err := g.Search(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
	assert.NotNil(t, places)
	assert.Empty(t, places)

	_, err = g.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls), "empty query makes no request")
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"bad body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, calls := newGeocoder(t, tt.handler)
			places, err := g.Search(context.Background(), "Ramallah")
			assert.ErrorIs(t, err, ErrGeocodingFailed)
			assert.NotErrorIs(t, err, ErrPlaceNotFound)
			assert.NotNil(t, places)
			assert.Empty(t, places)
			assert.EqualValues(t, 1, atomic.LoadInt32(calls), "no retries")
		})
	}
}

func TestSearchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGeocodingService(GeocoderConfig{BaseURL: url})
	places, err := g.Search(context.Background(), "Haifa")
	assert.ErrorIs(t, err, ErrGeocodingFailed)
	assert.Empty(t, places)
}

type blockingSearcher struct {
	started chan string
}

func (b *blockingSearcher) Search(ctx context.Context, query string) ([]Place, error) {
	if query == "slow" {
		b.started <- query
		<-ctx.Done()
		return []Place{{DisplayName: "stale"}}, nil
	}
	return []Place{{DisplayName: query}}, nil
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	b := &blockingSearcher{started: make(chan string, 1)}
	session := NewGeocodeSession(b)

	type result struct {
		places []Place
		err    error
	}
	done := make(chan result, 1)
	go func() {
		places, err := session.Search(context.Background(), "slow")
		done <- result{places, err}
	}()
	<-b.started

	places, err := session.Search(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", places[0].DisplayName)

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, ErrSearchSuperseded)
		assert.Empty(t, r.places)
	case <-time.After(2 * time.Second):
		t.Fatal("earlier search was not cancelled")
	}
}

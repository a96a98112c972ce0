package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterforge/pkg/cache"
	"posterforge/pkg/db"
	"posterforge/pkg/request"
	"posterforge/pkg/tracker"
)

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "geocode_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	c := NewClient(request.New(cache.NewSQLiteCache(d), tracker.New()))
	c.APIEndpoint = endpoint
	c.MinGap = 0
	return c
}

func TestResolve(t *testing.T) {
	var calls int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Paris, France", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Ile-de-France, France"}]`))
	}))
	defer svr.Close()

	c := newTestClient(t, svr.URL)

	place, err := c.Resolve(context.Background(), "Paris", "France")
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, place.Point.Lat, 1e-9)
	assert.InDelta(t, 2.3522, place.Point.Lon, 1e-9)
	assert.Equal(t, "Paris, Ile-de-France, France", place.DisplayName)

	// Second lookup for the same place is served from the cache.
	_, err = c.Resolve(context.Background(), "Paris", "France")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolve_NotFound(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer svr.Close()

	c := newTestClient(t, svr.URL)

	_, err := c.Resolve(context.Background(), "Nowhereville", "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolve_BadCoordinates(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"not-a-number","lon":"2.0","display_name":"x"}]`))
	}))
	defer svr.Close()

	c := newTestClient(t, svr.URL)

	_, err := c.Resolve(context.Background(), "X", "Y")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

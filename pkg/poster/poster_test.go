package poster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterforge/pkg/geo"
	"posterforge/pkg/geocache"
	"posterforge/pkg/geodata"
	"posterforge/pkg/render"
	"posterforge/pkg/theme"
)

type mockFetcher struct {
	mu           sync.Mutex
	networkCalls int
	featureCalls []theme.Feature

	graphErr   error
	featureErr map[theme.Feature]error
}

func (m *mockFetcher) StreetNetwork(_ context.Context, _ geo.Point, _ int, _ string) (*geodata.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.networkCalls++
	if m.graphErr != nil {
		return nil, m.graphErr
	}
	return &geodata.Graph{
		Nodes: []orb.Point{{2.0, 48.0}, {2.1, 48.1}},
		Edges: []geodata.Edge{
			{A: orb.Point{2.0, 48.0}, B: orb.Point{2.1, 48.1}, Highway: "residential"},
		},
	}, nil
}

func (m *mockFetcher) Feature(_ context.Context, _ geo.Point, _ int, ft theme.Feature) (*geojson.FeatureCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.featureCalls = append(m.featureCalls, ft)
	if err := m.featureErr[ft]; err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{{{2.01, 48.01}, {2.02, 48.01}, {2.02, 48.02}, {2.01, 48.01}}}))
	return fc, nil
}

func testTheme(t *testing.T) theme.Spec {
	t.Helper()
	th, err := theme.Parse([]byte(`{
		"name": "Test",
		"bg": "#FFFFFF",
		"text": "#000000",
		"gradient_color": "#888888",
		"road_default": "#3A3A3A",
		"water": "#C0C0C0",
		"railway": "#A9A9A9"
	}`))
	require.NoError(t, err)
	return th
}

func newTestGenerator(t *testing.T, f Fetcher) (*Generator, string) {
	t.Helper()
	outDir := t.TempDir()
	g := NewGenerator(f, geocache.NewStore(t.TempDir()), outDir)
	g.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	return g, outDir
}

func testRequest(t *testing.T) Request {
	return Request{
		City:        "Le Havre",
		Country:     "France",
		Center:      geo.Point{Lat: 48.05, Lon: 2.05},
		Theme:       testTheme(t),
		ThemeName:   "test",
		DistMeters:  5000,
		NetworkType: "drive",
		UseCache:    true,
		// Low DPI keeps the run fast; the layout logic is unchanged.
		Render: render.Options{WidthPx: 60, HeightPx: 80, DPI: 36},
	}
}

func TestGenerate_WritesPoster(t *testing.T) {
	f := &mockFetcher{}
	g, outDir := newTestGenerator(t, f)

	out, err := g.Generate(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "le_havre_test_20260314_092653.png"), out)
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Only the enabled features were fetched.
	assert.Equal(t, 1, f.networkCalls)
	assert.ElementsMatch(t, []theme.Feature{theme.FeatureWater, theme.FeatureRailway}, f.featureCalls)

	// No temp files left behind.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestGenerate_SecondRunHitsCache(t *testing.T) {
	f := &mockFetcher{}
	g, _ := newTestGenerator(t, f)
	req := testRequest(t)

	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, f.networkCalls, "cached run must not refetch")
}

func TestGenerate_NoCacheRefetches(t *testing.T) {
	f := &mockFetcher{}
	g, _ := newTestGenerator(t, f)
	req := testRequest(t)

	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	req.UseCache = false
	_, err = g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, f.networkCalls)
}

func TestGenerate_FeatureFailureDegrades(t *testing.T) {
	f := &mockFetcher{featureErr: map[theme.Feature]error{
		theme.FeatureRailway: errors.New("overpass timeout"),
	}}
	g, _ := newTestGenerator(t, f)

	out, err := g.Generate(context.Background(), testRequest(t))
	require.NoError(t, err, "a failed optional layer must not sink the poster")
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestGenerate_NetworkFailureAborts(t *testing.T) {
	f := &mockFetcher{graphErr: errors.New("overpass down")}
	g, outDir := newTestGenerator(t, f)

	_, err := g.Generate(context.Background(), testRequest(t))
	require.Error(t, err)

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no output on failure")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Paris", "paris"},
		{"Le Havre", "le_havre"},
		{"Frankfurt am Main", "frankfurt_am_main"},
		{"  São Paulo  ", "s_o_paulo"},
		{"X--Y", "x_y"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}

// Package osmfetch pulls street networks and feature geometry from the
// Overpass API and converts them into render-ready form.
package osmfetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/serjvanilla/go-overpass"
	"github.com/sony/gobreaker"

	"posterforge/pkg/geo"
	"posterforge/pkg/geodata"
	"posterforge/pkg/theme"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Fetcher queries the Overpass API behind a circuit breaker. Feature fetches
// are spaced out to stay within the public endpoint's fair-use limits.
type Fetcher struct {
	client  overpass.Client
	circuit *gobreaker.CircuitBreaker
	minGap  time.Duration

	mu        sync.Mutex
	lastQuery time.Time
}

// Option adjusts a Fetcher.
type Option func(*Fetcher)

// WithMinGap overrides the pause enforced between consecutive queries.
func WithMinGap(d time.Duration) Option {
	return func(f *Fetcher) { f.minGap = d }
}

// New creates a Fetcher against the given Overpass endpoint.
func New(endpoint string, timeout time.Duration, opts ...Option) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := &http.Client{Timeout: timeout}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "overpass",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	f := &Fetcher{
		client:  overpass.NewWithSettings(endpoint, 1, httpClient),
		circuit: cb,
		minGap:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StreetNetwork fetches the drivable (or walkable, etc.) street graph for a
// square extent around center. An empty or failed fetch is an error; without
// a network there is nothing to render.
func (f *Fetcher) StreetNetwork(ctx context.Context, center geo.Point, distMeters int, networkType string) (*geodata.Graph, error) {
	query := buildNetworkQuery(center, distMeters, networkType)
	result, err := f.run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("street network fetch failed: %w", err)
	}

	graph := convertGraph(result)
	slog.Info("Fetched street network",
		"center", center.String(),
		"dist_m", distMeters,
		"network_type", networkType,
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges))
	return graph, nil
}

// Feature fetches the geometry collection for one feature. Callers are
// expected to tolerate errors here; a missing optional layer should never
// sink the whole poster.
func (f *Fetcher) Feature(ctx context.Context, center geo.Point, distMeters int, ft theme.Feature) (*geojson.FeatureCollection, error) {
	query := buildFeatureQuery(center, distMeters, ft)
	if query == "" {
		return nil, fmt.Errorf("unknown feature %q", ft)
	}

	result, err := f.run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("feature %s fetch failed: %w", ft, err)
	}

	fc := convertFeature(result)
	slog.Debug("Fetched feature geometry", "feature", ft, "count", len(fc.Features))
	return fc, nil
}

// run executes a query through the throttle and circuit breaker.
func (f *Fetcher) run(ctx context.Context, query string) (*overpass.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.throttle()

	out, err := f.circuit.Execute(func() (interface{}, error) {
		result, err := f.client.Query(query)
		if err != nil {
			return nil, err
		}
		return &result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*overpass.Result), nil
}

func (f *Fetcher) throttle() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastQuery.IsZero() {
		if wait := f.minGap - time.Since(f.lastQuery); wait > 0 {
			time.Sleep(wait)
		}
	}
	f.lastQuery = time.Now()
}

// Package geocode resolves city names to coordinates via the Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"posterforge/pkg/geo"
	"posterforge/pkg/request"
)

// ErrNotFound is returned when Nominatim has no match for the place.
var ErrNotFound = errors.New("geocode: place not found")

const defaultEndpoint = "https://nominatim.openstreetmap.org/search"

// Client handles Nominatim API interactions.
type Client struct {
	request     *request.Client
	APIEndpoint string // Optional override for testing

	// MinGap spaces out lookups. Nominatim's usage policy asks for at
	// most one request per second.
	MinGap time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new geocoding client.
func NewClient(r *request.Client) *Client {
	return &Client{request: r, MinGap: time.Second}
}

// Place is a resolved location.
type Place struct {
	Point       geo.Point
	DisplayName string
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks up the coordinates for a city/country pair. Responses are
// cached, so repeated runs for the same place skip the network entirely.
func (c *Client) Resolve(ctx context.Context, city, country string) (Place, error) {
	query := fmt.Sprintf("%s, %s", city, country)

	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return Place{}, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Add("q", query)
	q.Add("format", "json")
	q.Add("limit", "1")
	u.RawQuery = q.Encode()

	cacheKey := "nominatim:" + strings.ToLower(query)

	c.throttle()

	body, err := c.request.Get(ctx, u.String(), cacheKey)
	if err != nil {
		return Place{}, fmt.Errorf("geocode request failed: %w", err)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Place{}, fmt.Errorf("failed to decode json: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %s", ErrNotFound, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	place := Place{
		Point:       geo.Point{Lat: lat, Lon: lon},
		DisplayName: results[0].DisplayName,
	}
	slog.Info("Geocoded place", "query", query, "point", place.Point.String())
	return place, nil
}

// throttle enforces the minimum gap between outgoing lookups.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		if wait := c.MinGap - time.Since(c.lastRequest); wait > 0 {
			time.Sleep(wait)
		}
	}
	c.lastRequest = time.Now()
}

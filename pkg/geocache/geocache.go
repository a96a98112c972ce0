// Package geocache persists fetched map data on disk, keyed by a fingerprint
// of every input that affects fetched content. Entries are gzip-compressed
// JSON envelopes, one file per key.
package geocache

import (
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"posterforge/pkg/geo"
	"posterforge/pkg/geodata"
	"posterforge/pkg/theme"
)

// Key is the content fingerprint of one fetch request.
type Key string

// Short returns a truncated key for log lines.
func (k Key) Short() string {
	if len(k) <= 8 {
		return string(k)
	}
	return string(k[:8]) + "..."
}

// ComputeKey fingerprints (location, radius, network type, enabled feature
// set). Coordinates are rounded to 6 decimal places; enabled feature names
// are sorted and joined so the digest is stable across runs. Cosmetic theme
// changes that do not alter the feature set produce the same key.
func ComputeKey(point geo.Point, distMeters int, networkType string, features theme.FeatureSet) Key {
	seed := fmt.Sprintf("%.6f_%.6f_%d_%s_%s",
		point.Lat, point.Lon, distMeters, networkType,
		strings.Join(features.Enabled(), "_"))
	sum := md5.Sum([]byte(seed))
	return Key(hex.EncodeToString(sum[:]))
}

// Store is a file-per-key dataset cache. It grows unboundedly; eviction is
// left to external tooling.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, string(key)+".json.gz")
}

// envelope is the on-disk shape of a cached dataset.
type envelope struct {
	Version  int                                   `json:"version"`
	Graph    envelopeGraph                         `json:"graph"`
	Features map[string]*geojson.FeatureCollection `json:"features,omitempty"`
}

const envelopeVersion = 1

type envelopeGraph struct {
	Nodes []orb.Point    `json:"nodes"`
	Edges []envelopeEdge `json:"edges"`
}

type envelopeEdge struct {
	A       orb.Point `json:"a"`
	B       orb.Point `json:"b"`
	Highway string    `json:"highway,omitempty"`
}

// Load reads the dataset for key. Any failure (absent file, bad gzip, bad
// JSON, wrong version) is a miss, never an error: corruption falls back to a
// fresh fetch.
func (s *Store) Load(key Key) (*geodata.Dataset, bool) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		slog.Warn("Cache entry corrupted, will re-download", "key", key.Short(), "error", err)
		return nil, false
	}
	defer zr.Close()

	var env envelope
	if err := json.NewDecoder(zr).Decode(&env); err != nil {
		slog.Warn("Cache entry corrupted, will re-download", "key", key.Short(), "error", err)
		return nil, false
	}
	if env.Version != envelopeVersion {
		slog.Warn("Cache entry has unknown version, will re-download", "key", key.Short(), "version", env.Version)
		return nil, false
	}

	ds := &geodata.Dataset{
		Graph:    &geodata.Graph{Nodes: env.Graph.Nodes},
		Features: make(map[theme.Feature]*geojson.FeatureCollection),
	}
	for _, e := range env.Graph.Edges {
		ds.Graph.Edges = append(ds.Graph.Edges, geodata.Edge{A: e.A, B: e.B, Highway: e.Highway})
	}
	for name, fc := range env.Features {
		ds.Features[theme.Feature(name)] = fc
	}

	slog.Info("Loaded map data from cache", "key", key.Short())
	return ds, true
}

// Save persists the dataset under key. Persistence is best effort: failures
// are logged as warnings and never fail the render.
func (s *Store) Save(key Key, ds *geodata.Dataset) {
	if ds == nil || ds.Graph == nil {
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("Could not create cache directory", "dir", s.dir, "error", err)
		return
	}

	env := envelope{
		Version: envelopeVersion,
		Graph:   envelopeGraph{Nodes: ds.Graph.Nodes},
	}
	for _, e := range ds.Graph.Edges {
		env.Graph.Edges = append(env.Graph.Edges, envelopeEdge{A: e.A, B: e.B, Highway: e.Highway})
	}
	if len(ds.Features) > 0 {
		env.Features = make(map[string]*geojson.FeatureCollection)
		for name, fc := range ds.Features {
			if fc == nil || len(fc.Features) == 0 {
				continue
			}
			env.Features[string(name)] = fc
		}
	}

	tmp := s.path(key) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		slog.Warn("Could not save cache entry", "key", key.Short(), "error", err)
		return
	}

	zw := gzip.NewWriter(f)
	err = json.NewEncoder(zw).Encode(env)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, s.path(key))
	}
	if err != nil {
		_ = os.Remove(tmp)
		slog.Warn("Could not save cache entry", "key", key.Short(), "error", err)
		return
	}

	slog.Info("Saved map data to cache", "key", key.Short())
}

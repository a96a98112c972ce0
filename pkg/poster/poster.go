// Package poster orchestrates a full poster run: resolve the geodata for an
// extent (from cache or the network), composite the layers, and write the
// final PNG.
package poster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"posterforge/pkg/geo"
	"posterforge/pkg/geocache"
	"posterforge/pkg/geodata"
	"posterforge/pkg/render"
	"posterforge/pkg/theme"
)

// Fetcher pulls geodata over the network. *osmfetch.Fetcher is the real one;
// tests substitute their own.
type Fetcher interface {
	StreetNetwork(ctx context.Context, center geo.Point, distMeters int, networkType string) (*geodata.Graph, error)
	Feature(ctx context.Context, center geo.Point, distMeters int, ft theme.Feature) (*geojson.FeatureCollection, error)
}

// Request describes one poster to generate.
type Request struct {
	City        string
	Country     string
	Center      geo.Point
	Theme       theme.Spec
	ThemeName   string
	DistMeters  int
	NetworkType string
	UseCache    bool
	Render      render.Options
}

// Generator runs poster requests.
type Generator struct {
	fetcher Fetcher
	store   *geocache.Store
	outDir  string

	now func() time.Time
}

// NewGenerator creates a Generator writing output files into outDir.
func NewGenerator(f Fetcher, store *geocache.Store, outDir string) *Generator {
	return &Generator{
		fetcher: f,
		store:   store,
		outDir:  outDir,
		now:     time.Now,
	}
}

// Generate produces one poster and returns the path of the written PNG.
// A failed street network fetch aborts the run; failed optional feature
// layers degrade to empty layers.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	features := theme.DetectEnabled(req.Theme)
	key := geocache.ComputeKey(req.Center, req.DistMeters, req.NetworkType, features)

	var ds *geodata.Dataset
	if req.UseCache {
		if cached, ok := g.store.Load(key); ok {
			slog.Info("Using cached geodata", "key", key.Short())
			ds = cached
		}
	}

	if ds == nil {
		fetched, err := g.fetch(ctx, req, features)
		if err != nil {
			return "", err
		}
		ds = fetched
		// Persist even when the caller skipped the cache lookup; the
		// fresh fetch replaces whatever was stored before.
		g.store.Save(key, ds)
	}

	img, err := render.Compose(ds, req.Theme, render.TextInfo{
		City:    req.City,
		Country: req.Country,
		Point:   req.Center,
	}, req.Render)
	if err != nil {
		return "", fmt.Errorf("compose failed: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.png", Slug(req.City), req.ThemeName, g.now().Format("20060102_150405"))
	out := filepath.Join(g.outDir, name)
	if err := g.writePNG(out, img); err != nil {
		return "", err
	}

	slog.Info("Poster written", "path", out)
	return out, nil
}

func (g *Generator) fetch(ctx context.Context, req Request, features theme.FeatureSet) (*geodata.Dataset, error) {
	graph, err := g.fetcher.StreetNetwork(ctx, req.Center, req.DistMeters, req.NetworkType)
	if err != nil {
		return nil, err
	}

	ds := &geodata.Dataset{
		Graph:    graph,
		Features: make(map[theme.Feature]*geojson.FeatureCollection),
	}

	for _, ft := range theme.AllFeatures() {
		if !features[ft] {
			continue
		}
		fc, err := g.fetcher.Feature(ctx, req.Center, req.DistMeters, ft)
		if err != nil {
			slog.Warn("Feature fetch failed, layer will be empty", "feature", ft, "error", err)
			continue
		}
		ds.Features[ft] = fc
	}

	return ds, nil
}

// writePNG encodes to a temporary file and renames it into place, so a
// crashed run never leaves a truncated poster behind.
func (g *Generator) writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("png encode failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Slug normalizes a city name into a filename-safe token.
func Slug(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

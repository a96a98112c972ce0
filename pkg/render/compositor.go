package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"posterforge/pkg/geo"
	"posterforge/pkg/geodata"
	"posterforge/pkg/theme"
)

// ErrEmptyNetwork indicates a street network with no nodes, which leaves the
// render without a usable extent.
var ErrEmptyNetwork = errors.New("street network has no nodes")

// Options controls the output raster.
type Options struct {
	WidthPx  int
	HeightPx int
	DPI      float64
	Fonts    *Fonts
}

// TextInfo is what the typography layer prints.
type TextInfo struct {
	City    string
	Country string
	Point   geo.Point
}

// Layer stacking order, back to front. Area fills happen after geometry
// filtering; an empty or fully filtered-out collection is a no-op layer.
//
//	coastline strokes
//	forest, beach, water fills
//	parks, airport (0.6), education (0.5) fills
//	stadium and worship centroid markers
//	railway strokes
//	road edges
//	vignette fades
//	text overlay
func Compose(ds *geodata.Dataset, th theme.Spec, info TextInfo, opts Options) (*image.RGBA, error) {
	if ds == nil || ds.Graph == nil {
		return nil, ErrEmptyNetwork
	}
	bounds, ok := ds.Graph.Bounds()
	if !ok {
		return nil, ErrEmptyNetwork
	}

	cp := &compositor{
		resolver: NewResolver(bounds),
		theme:    th,
		ds:       ds,
		opts:     opts,
		ptPx:     opts.DPI / 72,
	}

	bg := cp.solidAt(th.ColorOr("bg", "#FFFFFF"), bounds.Center())
	cp.canvas = NewCanvas(opts.WidthPx, opts.HeightPx, bounds, bg)

	cp.paintCoastline()

	cp.paintArea(theme.FeatureForest, "#228B22", 1.0)
	cp.paintArea(theme.FeatureBeach, "#F4A460", 1.0)
	cp.paintArea(theme.FeatureWater, "#C0C0C0", 1.0)

	cp.paintArea(theme.FeatureParks, "#F0F0F0", 1.0)
	cp.paintArea(theme.FeatureAirport, "#D3D3D3", 0.6)
	cp.paintArea(theme.FeatureEducation, "#FFD700", 0.5)

	cp.paintMarkers(theme.FeatureStadiums, "stadiums", "#E8D5B7", 5.0)
	cp.paintMarkers(theme.FeatureWorship, "worship", "#8B4513", 3.0)

	cp.paintRailway()
	cp.paintRoads()
	cp.paintVignettes()

	if err := cp.paintText(info); err != nil {
		return nil, fmt.Errorf("text overlay: %w", err)
	}

	return cp.canvas.Image(), nil
}

type compositor struct {
	canvas   *Canvas
	resolver *Resolver
	theme    theme.Spec
	ds       *geodata.Dataset
	opts     Options
	ptPx     float64 // pixels per point
}

// solidAt resolves a config to one concrete color. Gradients sample at the
// given position so stroke and marker layers degrade sensibly when a theme
// configures a ramp for them.
func (cp *compositor) solidAt(cfg theme.ColorConfig, at orb.Point) Color {
	return cp.resolver.SampleAt(cfg, at)
}

func (cp *compositor) paintCoastline() {
	fc := cp.ds.Collection(theme.FeatureCoastline)
	lines := geodata.Lines(fc)
	if len(lines) == 0 {
		return
	}
	cfg := cp.theme.ColorOr(string(theme.FeatureCoastline), "#1E90FF")
	width := 1.25 * cp.ptPx
	for _, ls := range lines {
		col := cp.solidAt(cfg, ls.Bound().Center())
		cp.canvas.StrokeLine(ls, col, width)
	}
}

// paintArea draws one polygonal feature layer. Filtering to polygons happens
// before any color resolution, so a collection of stray points never reaches
// the gradient path.
func (cp *compositor) paintArea(f theme.Feature, fallbackHex string, alpha float64) {
	fc := geodata.FilterPolygons(cp.ds.Collection(f))
	mp := geodata.Polygons(fc)
	if len(mp) == 0 {
		return
	}

	cfg := cp.theme.ColorOr(string(f), fallbackHex)
	if cfg.Kind == theme.Gradient {
		w, h := cp.canvas.Size()
		src := cp.resolver.GradientImage(cfg, w, h, alpha)
		cp.canvas.FillPolygonsWithImage(mp, src)
		return
	}

	col, err := cp.resolver.Uniform(cfg)
	if err != nil {
		col = Neutral
	}
	cp.canvas.FillPolygons(mp, col.WithAlpha(alpha))
}

func (cp *compositor) paintMarkers(f theme.Feature, themeKey, fallbackHex string, radiusPt float64) {
	pts := geodata.Centroids(cp.ds.Collection(f))
	if len(pts) == 0 {
		return
	}
	cfg := cp.theme.ColorOr(themeKey, fallbackHex)
	radius := radiusPt * cp.ptPx
	for _, pt := range pts {
		cp.canvas.FillCircle(pt, radius, cp.solidAt(cfg, pt))
	}
}

func (cp *compositor) paintRailway() {
	lines := geodata.Lines(cp.ds.Collection(theme.FeatureRailway))
	if len(lines) == 0 {
		return
	}
	cfg := cp.theme.ColorOr(string(theme.FeatureRailway), "#A9A9A9")
	width := 0.8 * cp.ptPx
	for _, ls := range lines {
		cp.canvas.StrokeLine(ls, cp.solidAt(cfg, ls.Bound().Center()), width)
	}
}

func (cp *compositor) paintRoads() {
	edges := cp.ds.Graph.Edges
	slog.Debug("Applying road hierarchy colors", "edges", len(edges))
	for _, e := range edges {
		class := Classify(e.Highway)
		col := RoadColor(cp.resolver, cp.theme, class, e.Midpoint())
		cp.canvas.StrokeSegment(e.A, e.B, col, class.Width()*cp.ptPx)
	}
}

// paintVignettes draws the top and bottom fade bands: 25% of the vertical
// extent each, fully opaque at the canvas edge and transparent toward the
// center.
func (cp *compositor) paintVignettes() {
	cfg := cp.theme.ColorOr("gradient_color", "#FFFFFF")
	col := cp.solidAt(cfg, cp.canvas.Bounds().Center())

	w, h := cp.canvas.Size()
	bandH := h / 4
	if bandH < 1 {
		return
	}

	cp.canvas.Overlay(fadeBand(col, w, bandH, true), image.Point{X: 0, Y: 0})
	cp.canvas.Overlay(fadeBand(col, w, bandH, false), image.Point{X: 0, Y: h - bandH})
}

// fadeBand builds a w×h band whose alpha ramps linearly from full at the
// outer edge to zero at the inner edge.
func fadeBand(col Color, w, h int, topEdge bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		frac := 0.0
		if h > 1 {
			frac = float64(y) / float64(h-1)
		}
		alpha := frac
		if topEdge {
			alpha = 1 - frac
		}
		row := col.WithAlpha(alpha).NRGBA()
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, row)
		}
	}
	return img
}

// Figure-fraction anchors for the typography block, measured from the
// bottom edge.
const (
	cityAnchor    = 0.14
	countryAnchor = 0.10
	coordsAnchor  = 0.07
	ruleAnchor    = 0.125
)

func (cp *compositor) paintText(info TextInfo) error {
	fonts := cp.opts.Fonts
	if fonts == nil {
		fonts = LoadFonts("")
	}

	cityFace, err := newFace(fonts.Bold, 60, cp.opts.DPI)
	if err != nil {
		return err
	}
	defer cityFace.Close()
	countryFace, err := newFace(fonts.Light, 22, cp.opts.DPI)
	if err != nil {
		return err
	}
	defer countryFace.Close()
	coordsFace, err := newFace(fonts.Regular, 14, cp.opts.DPI)
	if err != nil {
		return err
	}
	defer coordsFace.Close()
	coordsBoldFace, err := newFace(fonts.Bold, 14, cp.opts.DPI)
	if err != nil {
		return err
	}
	defer coordsBoldFace.Close()

	textCol := cp.solidAt(cp.theme.ColorOr("text", "#000000"), cp.canvas.Bounds().Center())

	w, h := cp.canvas.Size()
	cx := float64(w) / 2
	baseline := func(frac float64) float64 { return float64(h) * (1 - frac) }

	dst := cp.canvas.Image()
	drawSegments(dst, []textSegment{{text: spacedLetters(info.City), face: cityFace}},
		cx, baseline(cityAnchor), textCol)
	drawSegments(dst, []textSegment{{text: strings.ToUpper(info.Country), face: countryFace}},
		cx, baseline(countryAnchor), textCol)
	drawSegments(dst, coordinateSegments(info.Point.Lat, info.Point.Lon, coordsFace, coordsBoldFace),
		cx, baseline(coordsAnchor), textCol.WithAlpha(0.7))

	cp.canvas.StrokePixelLine(
		0.4*float64(w), baseline(ruleAnchor),
		0.6*float64(w), baseline(ruleAnchor),
		textCol, math.Max(0.5*cp.ptPx, 1),
	)
	return nil
}

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"posterforge/pkg/theme"
)

// Color is a straight-alpha RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// Neutral is the fallback color used whenever a position or stop color
// cannot be resolved. Matches the original renderer's black fallback.
var Neutral = Color{0, 0, 0, 1}

// ParseHex parses #RGB, #RRGGBB and #RRGGBBAA color strings.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b, a uint64
	var err error
	a = 0xFF

	switch len(h) {
	case 3:
		if r, err = strconv.ParseUint(strings.Repeat(h[0:1], 2), 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		if g, err = strconv.ParseUint(strings.Repeat(h[1:2], 2), 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		if b, err = strconv.ParseUint(strings.Repeat(h[2:3], 2), 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
	case 8:
		if a, err = strconv.ParseUint(h[6:8], 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		fallthrough
	case 6:
		if r, err = strconv.ParseUint(h[0:2], 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		if g, err = strconv.ParseUint(h[2:4], 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		if b, err = strconv.ParseUint(h[4:6], 16, 8); err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
	default:
		return Color{}, fmt.Errorf("invalid color %q", s)
	}

	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

// WithAlpha returns the color with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// NRGBA converts to 8-bit straight alpha.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(clamp01(c.R) * 255)),
		G: uint8(math.Round(clamp01(c.G) * 255)),
		B: uint8(math.Round(clamp01(c.B) * 255)),
		A: uint8(math.Round(clamp01(c.A) * 255)),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Colormap is a continuous color ramp built by linear interpolation across
// ordered stop colors.
type Colormap struct {
	stops []Color
}

// NewColormap builds a ramp from parsed stops. At least one stop is
// required; a single stop yields a constant ramp.
func NewColormap(stops []Color) *Colormap {
	return &Colormap{stops: stops}
}

// At samples the ramp at t, clamped to [0,1]. t=0 is exactly the first stop,
// t=1 exactly the last.
func (m *Colormap) At(t float64) Color {
	n := len(m.stops)
	if n == 0 {
		return Neutral
	}
	if n == 1 {
		return m.stops[0]
	}

	t = clamp01(t)
	scaled := t * float64(n-1)
	i := int(math.Floor(scaled))
	if i >= n-1 {
		return m.stops[n-1]
	}
	frac := scaled - float64(i)
	a, b := m.stops[i], m.stops[i+1]
	return Color{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: lerp(a.A, b.A, frac),
	}
}

// Palette memoizes colormaps per distinct stop sequence. Sampling thousands
// of road edges from the same gradient is the expected workload, so ramps
// are built once and reused.
type Palette struct {
	mu   sync.Mutex
	maps map[string]*Colormap
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{maps: make(map[string]*Colormap)}
}

// Colormap returns the memoized ramp for the stop sequence, building it on
// first use. Unparseable stops become the neutral fallback color.
func (p *Palette) Colormap(stops []string) *Colormap {
	key := strings.Join(stops, "|")

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.maps[key]; ok {
		return m
	}

	parsed := make([]Color, len(stops))
	for i, s := range stops {
		c, err := ParseHex(s)
		if err != nil {
			c = Neutral
		}
		parsed[i] = c
	}
	m := NewColormap(parsed)
	p.maps[key] = m
	return m
}

// Size reports the number of cached ramps.
func (p *Palette) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.maps)
}

// Resolver turns theme color configurations into concrete colors, either
// uniformly or sampled per spatial position against the render bounds.
type Resolver struct {
	palette *Palette
	bounds  orb.Bound
}

// NewResolver creates a resolver sampling against the given bounds.
func NewResolver(bounds orb.Bound) *Resolver {
	return &Resolver{palette: NewPalette(), bounds: bounds}
}

// Palette exposes the memoized colormap cache.
func (r *Resolver) Palette() *Palette {
	return r.palette
}

// Uniform resolves a Solid config to its color. Gradients have no single
// uniform color; callers with spatial extent must use SampleAt or a
// gradient fill instead.
func (r *Resolver) Uniform(cfg theme.ColorConfig) (Color, error) {
	if cfg.Kind != theme.Solid {
		return Color{}, fmt.Errorf("gradient config has no uniform color")
	}
	c, err := ParseHex(cfg.Color)
	if err != nil {
		return Color{}, err
	}
	return c, nil
}

// SampleAt resolves a config at a spatial position. Solids ignore the
// position; gradients normalize it into [0,1] along the configured axis
// using the render bounds and sample the memoized ramp. Any failure falls
// back to the neutral color rather than aborting the layer.
func (r *Resolver) SampleAt(cfg theme.ColorConfig, pos orb.Point) Color {
	if cfg.Kind == theme.Solid {
		c, err := ParseHex(cfg.Color)
		if err != nil {
			return Neutral
		}
		return c
	}

	t, ok := r.normalize(cfg.Direction, pos)
	if !ok {
		return Neutral
	}
	return r.palette.Colormap(cfg.Stops).At(t)
}

// normalize projects pos onto [0,1] along the gradient axis.
func (r *Resolver) normalize(dir theme.Direction, pos orb.Point) (float64, bool) {
	width := r.bounds.Max[0] - r.bounds.Min[0]
	height := r.bounds.Max[1] - r.bounds.Min[1]
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}

	var t float64
	switch dir {
	case theme.Horizontal:
		t = (pos[0] - r.bounds.Min[0]) / width
	default:
		t = (pos[1] - r.bounds.Min[1]) / height
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	return clamp01(t), true
}

// GradientImage rasterizes a gradient config across the full w×h render
// extent at the given opacity. The field is continuous across the extent:
// every geometry clipped against it samples the same ramp. Vertical ramps
// run bottom-to-top to match the data axis (north up).
func (r *Resolver) GradientImage(cfg theme.ColorConfig, w, h int, alpha float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cm := r.palette.Colormap(cfg.Stops)

	if cfg.Direction == theme.Horizontal {
		for x := 0; x < w; x++ {
			t := 0.0
			if w > 1 {
				t = float64(x) / float64(w-1)
			}
			col := cm.At(t).WithAlpha(alpha).NRGBA()
			for y := 0; y < h; y++ {
				img.SetNRGBA(x, y, col)
			}
		}
		return img
	}

	for y := 0; y < h; y++ {
		t := 1.0
		if h > 1 {
			// Pixel row 0 is the top of the canvas, which is the data maximum.
			t = 1 - float64(y)/float64(h-1)
		}
		col := cm.At(t).WithAlpha(alpha).NRGBA()
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, col)
		}
	}
	return img
}

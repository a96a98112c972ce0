package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMalformedTheme indicates a theme document that is not a valid mapping
// or is missing required keys.
var ErrMalformedTheme = errors.New("malformed theme")

// Required keys every usable theme must define.
var requiredKeys = []string{"bg", "text", "gradient_color", "road_default"}

// Direction of a gradient ramp.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// Kind discriminates the two shapes a theme color value can take.
type Kind int

const (
	Solid Kind = iota
	Gradient
)

// ColorConfig is a color value from a theme, resolved into a tagged union at
// parse time so render code never re-inspects raw document shapes.
type ColorConfig struct {
	Kind      Kind
	Color     string    // hex color, valid when Kind == Solid
	Stops     []string  // ordered stop colors, valid when Kind == Gradient
	Direction Direction // valid when Kind == Gradient
}

// SolidColor builds a Solid config.
func SolidColor(hex string) ColorConfig {
	return ColorConfig{Kind: Solid, Color: hex}
}

// GradientColor builds a Gradient config.
func GradientColor(stops []string, dir Direction) ColorConfig {
	if dir != Horizontal {
		dir = Vertical
	}
	return ColorConfig{Kind: Gradient, Stops: stops, Direction: dir}
}

// Spec is a parsed, immutable theme: a mapping from feature keys to color
// configurations plus display metadata.
type Spec struct {
	Name        string
	Description string

	colors map[string]ColorConfig
}

// Has reports whether the theme defines the given key.
func (s Spec) Has(key string) bool {
	_, ok := s.colors[key]
	return ok
}

// Color returns the configuration for key.
func (s Spec) Color(key string) (ColorConfig, bool) {
	c, ok := s.colors[key]
	return c, ok
}

// ColorOr returns the configuration for key, or a solid fallback when the
// theme does not define it.
func (s Spec) ColorOr(key, fallbackHex string) ColorConfig {
	if c, ok := s.colors[key]; ok {
		return c
	}
	return SolidColor(fallbackHex)
}

// Keys returns the defined color keys in sorted order.
func (s Spec) Keys() []string {
	out := make([]string, 0, len(s.colors))
	for k := range s.colors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Parse decodes a theme document. The document must be a JSON mapping; each
// value is either a color string, a bare list of colors (promoted to a
// vertical gradient), or a gradient object with a "type" tag.
func Parse(raw []byte) (Spec, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrMalformedTheme, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]any) (Spec, error) {
	s := Spec{colors: make(map[string]ColorConfig)}

	for k, v := range doc {
		switch k {
		case "name":
			if str, ok := v.(string); ok {
				s.Name = str
			}
			continue
		case "description":
			if str, ok := v.(string); ok {
				s.Description = str
			}
			continue
		}

		cfg, err := resolveColorConfig(v)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: key %q: %v", ErrMalformedTheme, k, err)
		}
		s.colors[k] = cfg
	}

	for _, req := range requiredKeys {
		if !s.Has(req) {
			return Spec{}, fmt.Errorf("%w: missing required key %q", ErrMalformedTheme, req)
		}
	}

	return s, nil
}

// resolveColorConfig turns one raw theme value into a ColorConfig.
// A bare list of two or more colors is backward-compatible shorthand for a
// vertical gradient.
func resolveColorConfig(v any) (ColorConfig, error) {
	switch val := v.(type) {
	case string:
		return SolidColor(val), nil

	case []any:
		stops, err := stringSlice(val)
		if err != nil {
			return ColorConfig{}, err
		}
		switch len(stops) {
		case 0:
			return ColorConfig{}, errors.New("empty color list")
		case 1:
			// A single entry carries no ramp; treat it as solid.
			return SolidColor(stops[0]), nil
		default:
			return GradientColor(stops, Vertical), nil
		}

	case map[string]any:
		typ, _ := val["type"].(string)
		if typ != "gradient" {
			return ColorConfig{}, fmt.Errorf("unsupported object type %q", typ)
		}
		rawColors, ok := val["colors"].([]any)
		if !ok {
			return ColorConfig{}, errors.New("gradient without colors list")
		}
		stops, err := stringSlice(rawColors)
		if err != nil {
			return ColorConfig{}, err
		}
		if len(stops) < 2 {
			return ColorConfig{}, errors.New("gradient needs at least 2 stops")
		}
		dir := Vertical
		if d, _ := val["direction"].(string); d == string(Horizontal) {
			dir = Horizontal
		}
		return GradientColor(stops, dir), nil

	default:
		return ColorConfig{}, fmt.Errorf("unsupported value %T", v)
	}
}

func stringSlice(vals []any) ([]string, error) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("non-string color entry %T", v)
		}
		out = append(out, s)
	}
	return out, nil
}

// Default returns the embedded feature_based fallback theme, used when a
// requested theme file cannot be read.
func Default() Spec {
	s, err := fromDocument(map[string]any{
		"name":             "Feature-Based Shading",
		"bg":               "#FFFFFF",
		"text":             "#000000",
		"gradient_color":   "#FFFFFF",
		"water":            "#C0C0C0",
		"parks":            "#F0F0F0",
		"road_motorway":    "#0A0A0A",
		"road_primary":     "#1A1A1A",
		"road_secondary":   "#2A2A2A",
		"road_tertiary":    "#3A3A3A",
		"road_residential": "#4A4A4A",
		"road_default":     "#3A3A3A",
	})
	if err != nil {
		// The embedded document is static; a failure here is a programming error.
		panic(err)
	}
	return s
}

// LoadFile reads and parses a theme document from disk.
func LoadFile(path string) (Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read theme %s: %w", path, err)
	}
	return Parse(raw)
}

// Load resolves a theme by name inside dir. A missing file falls back to the
// embedded default; a present but malformed file is an error.
func Load(dir, name string) (Spec, error) {
	path := filepath.Join(dir, name+".json")
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// Descriptor identifies an available theme on disk.
type Descriptor struct {
	Name        string // file stem, used on the command line
	DisplayName string
	Description string
}

// List scans dir for theme documents and returns their descriptors sorted by
// name. Unreadable or malformed files are listed by file stem only.
func List(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read themes dir: %w", err)
	}

	var out []Descriptor
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		d := Descriptor{Name: name, DisplayName: name}
		if spec, err := LoadFile(filepath.Join(dir, e.Name())); err == nil {
			if spec.Name != "" {
				d.DisplayName = spec.Name
			}
			d.Description = spec.Description
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

package render

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Fonts holds the three weights the text overlay uses.
type Fonts struct {
	Bold    *sfnt.Font
	Regular *sfnt.Font
	Light   *sfnt.Font
}

// LoadFonts loads Roboto weights from dir, falling back per weight to the
// embedded Go fonts when a file is missing or unreadable. It always returns
// a usable set.
func LoadFonts(dir string) *Fonts {
	bold := loadFontFile(filepath.Join(dir, "Roboto-Bold.ttf"), gobold.TTF)
	regular := loadFontFile(filepath.Join(dir, "Roboto-Regular.ttf"), goregular.TTF)
	light := loadFontFile(filepath.Join(dir, "Roboto-Light.ttf"), goregular.TTF)
	return &Fonts{Bold: bold, Regular: regular, Light: light}
}

func loadFontFile(path string, fallback []byte) *sfnt.Font {
	if raw, err := os.ReadFile(path); err == nil {
		if f, err := opentype.Parse(raw); err == nil {
			return f
		}
		slog.Warn("Font file unreadable, using embedded fallback", "path", path)
	}
	f, err := opentype.Parse(fallback)
	if err != nil {
		// The embedded fonts are known-good; this cannot happen at runtime.
		panic(err)
	}
	return f
}

func newFace(f *sfnt.Font, sizePt, dpi float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// spacedLetters renders a name the poster way: uppercase with two spaces
// between letters.
func spacedLetters(s string) string {
	runes := []rune(strings.ToUpper(s))
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, "  ")
}

// textSegment is a run of text in one face; the coordinate line mixes
// regular digits with bold cardinal letters.
type textSegment struct {
	text string
	face font.Face
}

func segmentsWidth(segs []textSegment) fixed.Int26_6 {
	var w fixed.Int26_6
	for _, s := range segs {
		w += font.MeasureString(s.face, s.text)
	}
	return w
}

// drawSegments draws the segments left to right, horizontally centered on
// cx with the baseline at baseY.
func drawSegments(dst draw.Image, segs []textSegment, cx, baseY float64, col Color) {
	total := segmentsWidth(segs)
	x := fixed.Int26_6(cx*64) - total/2
	y := fixed.Int26_6(baseY * 64)

	for _, s := range segs {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(col.NRGBA()),
			Face: s.face,
			Dot:  fixed.Point26_6{X: x, Y: y},
		}
		d.DrawString(s.text)
		x += font.MeasureString(s.face, s.text)
	}
}

// coordinateSegments formats the coordinate line with bold cardinal
// directions: "48.8566° N  /  2.3522° E".
func coordinateSegments(lat, lon float64, regular, bold font.Face) []textSegment {
	latDir := "N"
	if lat < 0 {
		latDir = "S"
	}
	lonDir := "E"
	if lon < 0 {
		lonDir = "W"
	}
	return []textSegment{
		{text: fmt.Sprintf("%.4f° ", math.Abs(lat)), face: regular},
		{text: latDir, face: bold},
		{text: "  /  ", face: regular},
		{text: fmt.Sprintf("%.4f° ", math.Abs(lon)), face: regular},
		{text: lonDir, face: bold},
	}
}

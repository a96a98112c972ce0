package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/paulmach/orb"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Canvas is a raster drawing surface mapping a geographic extent onto
// pixels. All layers of a poster share one canvas and one extent, so
// gradient fields and figure-fraction anchors stay consistent.
type Canvas struct {
	img    *image.RGBA
	w, h   int
	bounds orb.Bound

	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	dasher  *rasterx.Dasher
}

// NewCanvas creates a w×h canvas over the given data bounds, cleared to the
// background color.
func NewCanvas(w, h int, bounds orb.Bound, bg Color) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg.NRGBA()), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	// Even-odd winding so interior rings subtract from fills.
	filler.SetWinding(false)
	dasher := rasterx.NewDasher(w, h, scanner)

	return &Canvas{
		img:     img,
		w:       w,
		h:       h,
		bounds:  bounds,
		scanner: scanner,
		filler:  filler,
		dasher:  dasher,
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Size returns the pixel dimensions.
func (c *Canvas) Size() (w, h int) {
	return c.w, c.h
}

// Bounds returns the geographic extent the canvas maps.
func (c *Canvas) Bounds() orb.Bound {
	return c.bounds
}

// pixel projects a data point into pixel space. The y axis flips: data
// maximum (north) is pixel row zero.
func (c *Canvas) pixel(p orb.Point) (x, y float64) {
	width := c.bounds.Max[0] - c.bounds.Min[0]
	height := c.bounds.Max[1] - c.bounds.Min[1]
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	x = (p[0] - c.bounds.Min[0]) / width * float64(c.w)
	y = (1 - (p[1]-c.bounds.Min[1])/height) * float64(c.h)
	return x, y
}

func toFixed(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// addRing appends one closed polygon ring to the adder.
func (c *Canvas) addRing(ring orb.Ring, p rasterx.Adder) {
	if len(ring) < 3 {
		return
	}
	x, y := c.pixel(ring[0])
	p.Start(toFixed(x, y))
	for _, pt := range ring[1:] {
		x, y = c.pixel(pt)
		p.Line(toFixed(x, y))
	}
	p.Stop(true)
}

// FillPolygons fills all polygons with a single color. Holes subtract via
// the even-odd rule.
func (c *Canvas) FillPolygons(mp orb.MultiPolygon, col Color) {
	if len(mp) == 0 || col.A <= 0 {
		return
	}
	c.filler.Clear()
	c.filler.SetColor(col.NRGBA())
	for _, poly := range mp {
		for _, ring := range poly {
			c.addRing(ring, c.filler)
		}
	}
	c.filler.Draw()
	c.filler.Clear()
}

// FillPolygonsWithImage composites src onto the canvas clipped to the union
// of the polygon outlines. The polygons are rasterized into an alpha mask
// (even-odd, so holes stay empty) and src is blended through it.
func (c *Canvas) FillPolygonsWithImage(mp orb.MultiPolygon, src image.Image) {
	if len(mp) == 0 {
		return
	}

	mask := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	scanner := rasterx.NewScannerGV(c.w, c.h, mask, mask.Bounds())
	filler := rasterx.NewFiller(c.w, c.h, scanner)
	filler.SetWinding(false)
	filler.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	for _, poly := range mp {
		for _, ring := range poly {
			c.addRing(ring, filler)
		}
	}
	filler.Draw()

	draw.DrawMask(c.img, c.img.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
}

// StrokeLine strokes a polyline with the given color and pixel width.
func (c *Canvas) StrokeLine(ls orb.LineString, col Color, widthPx float64) {
	if len(ls) < 2 || col.A <= 0 || widthPx <= 0 {
		return
	}
	c.dasher.Clear()
	c.dasher.SetColor(col.NRGBA())
	c.dasher.SetStroke(
		fixed.Int26_6(widthPx*64), fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap,
		rasterx.Round, nil, 0,
	)

	x, y := c.pixel(ls[0])
	c.dasher.Start(toFixed(x, y))
	for _, pt := range ls[1:] {
		x, y = c.pixel(pt)
		c.dasher.Line(toFixed(x, y))
	}
	c.dasher.Stop(false)
	c.dasher.Draw()
	c.dasher.Clear()
}

// StrokeSegment strokes one straight segment.
func (c *Canvas) StrokeSegment(a, b orb.Point, col Color, widthPx float64) {
	c.StrokeLine(orb.LineString{a, b}, col, widthPx)
}

// FillCircle draws a filled disc marker centered on a data point.
func (c *Canvas) FillCircle(center orb.Point, radiusPx float64, col Color) {
	if radiusPx <= 0 || col.A <= 0 {
		return
	}
	x, y := c.pixel(center)
	c.filler.Clear()
	c.filler.SetColor(col.NRGBA())
	rasterx.AddCircle(x, y, radiusPx, c.filler)
	c.filler.Draw()
	c.filler.Clear()
}

// StrokePixelLine strokes a straight line given directly in pixel
// coordinates. Used by the text layer, which anchors by figure fraction
// rather than data position.
func (c *Canvas) StrokePixelLine(x0, y0, x1, y1 float64, col Color, widthPx float64) {
	if col.A <= 0 || widthPx <= 0 {
		return
	}
	c.dasher.Clear()
	c.dasher.SetColor(col.NRGBA())
	c.dasher.SetStroke(
		fixed.Int26_6(widthPx*64), fixed.Int26_6(4*64),
		rasterx.ButtCap, rasterx.ButtCap, rasterx.RoundGap,
		rasterx.Round, nil, 0,
	)
	c.dasher.Start(toFixed(x0, y0))
	c.dasher.Line(toFixed(x1, y1))
	c.dasher.Stop(false)
	c.dasher.Draw()
	c.dasher.Clear()
}

// Overlay composites src over the whole canvas at the given offset.
func (c *Canvas) Overlay(src image.Image, at image.Point) {
	r := src.Bounds().Add(at.Sub(src.Bounds().Min))
	draw.Draw(c.img, r, src, src.Bounds().Min, draw.Over)
}

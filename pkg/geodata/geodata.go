// Package geodata holds the raw geometric inputs of a render: the street
// network graph and the optional per-feature geometry collections.
package geodata

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"posterforge/pkg/theme"
)

// Edge is one street segment between two adjacent network nodes, carrying
// the raw highway tag it was fetched with.
type Edge struct {
	A       orb.Point
	B       orb.Point
	Highway string
}

// Midpoint returns the segment midpoint, the position gradients sample at.
func (e Edge) Midpoint() orb.Point {
	return orb.Point{(e.A[0] + e.B[0]) / 2, (e.A[1] + e.B[1]) / 2}
}

// Graph is the street network as flat node and edge lists.
type Graph struct {
	Nodes []orb.Point
	Edges []Edge
}

// Bounds returns the axis-aligned bounding box of the network nodes.
// ok is false when the graph has no nodes.
func (g *Graph) Bounds() (orb.Bound, bool) {
	if g == nil || len(g.Nodes) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: g.Nodes[0], Max: g.Nodes[0]}
	for _, n := range g.Nodes[1:] {
		b = b.Extend(n)
	}
	return b, true
}

// Dataset bundles everything the compositor draws: the mandatory street
// network plus up to one geometry collection per enabled feature.
// Absent or failed features hold a nil entry.
type Dataset struct {
	Graph    *Graph
	Features map[theme.Feature]*geojson.FeatureCollection
}

// Collection returns the feature's geometry collection, or nil when the
// feature was disabled, absent, or its fetch failed.
func (d *Dataset) Collection(f theme.Feature) *geojson.FeatureCollection {
	if d == nil || d.Features == nil {
		return nil
	}
	return d.Features[f]
}

// FilterPolygons returns a new collection retaining only Polygon and
// MultiPolygon geometries. Stray Point and LineString members in area
// collections would otherwise render as dot artifacts.
func FilterPolygons(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil {
		return nil
	}
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			out.Append(f)
		}
	}
	return out
}

// Polygons flattens a (pre-filtered) collection into a single MultiPolygon.
func Polygons(fc *geojson.FeatureCollection) orb.MultiPolygon {
	if fc == nil {
		return nil
	}
	var mp orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	return mp
}

// Centroids returns one representative point per feature, regardless of the
// original footprint geometry. Used for marker layers.
func Centroids(fc *geojson.FeatureCollection) []orb.Point {
	if fc == nil {
		return nil
	}
	var pts []orb.Point
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		c, _ := planar.CentroidArea(f.Geometry)
		pts = append(pts, c)
	}
	return pts
}

// Lines flattens a collection into stroke-able line strings. Polygon rings
// are included as closed outlines so coastline ways mapped as areas still
// draw.
func Lines(fc *geojson.FeatureCollection) []orb.LineString {
	if fc == nil {
		return nil
	}
	var out []orb.LineString
	for _, f := range fc.Features {
		out = append(out, geometryLines(f.Geometry)...)
	}
	return out
}

func geometryLines(g orb.Geometry) []orb.LineString {
	switch geom := g.(type) {
	case orb.LineString:
		return []orb.LineString{geom}
	case orb.MultiLineString:
		out := make([]orb.LineString, 0, len(geom))
		for _, ls := range geom {
			out = append(out, ls)
		}
		return out
	case orb.Polygon:
		out := make([]orb.LineString, 0, len(geom))
		for _, ring := range geom {
			out = append(out, orb.LineString(ring))
		}
		return out
	case orb.MultiPolygon:
		var out []orb.LineString
		for _, p := range geom {
			out = append(out, geometryLines(p)...)
		}
		return out
	}
	return nil
}

package geodata

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}}
}

func TestGraphBounds(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []orb.Point
		wantOK bool
		want   orb.Bound
	}{
		{"Empty", nil, false, orb.Bound{}},
		{"Single", []orb.Point{{2, 3}}, true, orb.Bound{Min: orb.Point{2, 3}, Max: orb.Point{2, 3}}},
		{
			"Several",
			[]orb.Point{{2, 3}, {-1, 7}, {5, 0}},
			true,
			orb.Bound{Min: orb.Point{-1, 0}, Max: orb.Point{5, 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{Nodes: tt.nodes}
			b, ok := g.Bounds()
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, b)
			}
		})
	}
}

func TestEdgeMidpoint(t *testing.T) {
	e := Edge{A: orb.Point{0, 0}, B: orb.Point{4, 2}}
	assert.Equal(t, orb.Point{2, 1}, e.Midpoint())
}

func TestFilterPolygons(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square(0, 0, 1)))
	fc.Append(geojson.NewFeature(orb.Point{5, 5}))
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))
	fc.Append(geojson.NewFeature(orb.MultiPolygon{square(2, 2, 1)}))

	got := FilterPolygons(fc)
	require.Len(t, got.Features, 2)
	for _, f := range got.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			t.Errorf("unexpected geometry type %T after filtering", f.Geometry)
		}
	}
}

func TestFilterPolygonsNil(t *testing.T) {
	assert.Nil(t, FilterPolygons(nil))
}

func TestPolygonsFlattens(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square(0, 0, 1)))
	fc.Append(geojson.NewFeature(orb.MultiPolygon{square(2, 2, 1), square(4, 4, 1)}))

	mp := Polygons(fc)
	assert.Len(t, mp, 3)
}

func TestCentroids(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square(0, 0, 2)))
	fc.Append(geojson.NewFeature(orb.Point{7, 9}))

	pts := Centroids(fc)
	require.Len(t, pts, 2)
	assert.InDelta(t, 1.0, pts[0][0], 1e-9)
	assert.InDelta(t, 1.0, pts[0][1], 1e-9)
	assert.Equal(t, orb.Point{7, 9}, pts[1])
}

func TestLines(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 0}}))
	fc.Append(geojson.NewFeature(square(0, 0, 1)))

	lines := Lines(fc)
	// One line string plus one polygon ring.
	require.Len(t, lines, 2)
	assert.Len(t, lines[1], 5)
}

func TestDatasetCollectionNilSafe(t *testing.T) {
	var d *Dataset
	assert.Nil(t, d.Collection("water"))

	d = &Dataset{}
	assert.Nil(t, d.Collection("water"))
}

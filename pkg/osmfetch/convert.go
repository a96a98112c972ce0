package osmfetch

import (
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/serjvanilla/go-overpass"

	"posterforge/pkg/geodata"
)

// wayPoints converts a way's node chain into lon/lat points, dropping nil
// nodes that "out skel" responses occasionally leave unresolved.
func wayPoints(w *overpass.Way) []orb.Point {
	pts := make([]orb.Point, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		if n == nil {
			continue
		}
		pts = append(pts, orb.Point{n.Lon, n.Lat})
	}
	return pts
}

func isClosed(pts []orb.Point) bool {
	return len(pts) >= 4 && pts[0] == pts[len(pts)-1]
}

// convertGraph flattens highway ways into the street network graph. Each
// consecutive node pair becomes one edge tagged with the way's highway value.
func convertGraph(result *overpass.Result) *geodata.Graph {
	g := &geodata.Graph{}
	seen := make(map[orb.Point]bool)

	// Map iteration order is random; sort by ID so repeated fetches of the
	// same extent produce the same graph.
	ids := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		w := result.Ways[id]
		highway := w.Tags["highway"]
		if highway == "" {
			continue
		}
		pts := wayPoints(w)
		for i := 0; i+1 < len(pts); i++ {
			g.Edges = append(g.Edges, geodata.Edge{A: pts[i], B: pts[i+1], Highway: highway})
		}
		for _, p := range pts {
			if !seen[p] {
				seen[p] = true
				g.Nodes = append(g.Nodes, p)
			}
		}
	}
	return g
}

// convertFeature turns an Overpass response into a GeoJSON collection.
// Closed ways become polygons, open ways line strings, and multipolygon
// relations are assembled from their outer/inner members.
func convertFeature(result *overpass.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	// Ways referenced by a relation are geometry parts, not standalone
	// features; emitting them twice would double-paint their area.
	partOfRelation := make(map[int64]bool)
	for _, rel := range result.Relations {
		for _, m := range rel.Members {
			if m.Type == overpass.ElementTypeWay && m.Way != nil {
				partOfRelation[m.Way.ID] = true
			}
		}
	}

	ids := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		w := result.Ways[id]
		if partOfRelation[id] || len(w.Tags) == 0 {
			continue
		}
		pts := wayPoints(w)
		if len(pts) < 2 {
			continue
		}
		var f *geojson.Feature
		if isClosed(pts) {
			f = geojson.NewFeature(orb.Polygon{orb.Ring(pts)})
		} else {
			f = geojson.NewFeature(orb.LineString(pts))
		}
		f.Properties = tagProperties(w.Tags)
		fc.Append(f)
	}

	relIDs := make([]int64, 0, len(result.Relations))
	for id := range result.Relations {
		relIDs = append(relIDs, id)
	}
	sort.Slice(relIDs, func(i, j int) bool { return relIDs[i] < relIDs[j] })

	for _, id := range relIDs {
		rel := result.Relations[id]
		mp := assembleMultiPolygon(rel)
		if len(mp) == 0 {
			continue
		}
		f := geojson.NewFeature(mp)
		f.Properties = tagProperties(rel.Tags)
		fc.Append(f)
	}

	return fc
}

func tagProperties(tags map[string]string) geojson.Properties {
	props := make(geojson.Properties, len(tags))
	for k, v := range tags {
		props[k] = v
	}
	return props
}

// assembleMultiPolygon builds polygons from a relation's outer and inner way
// members. Members that do not form a closed ring are skipped; partially
// mapped relations still contribute the rings they have.
func assembleMultiPolygon(rel *overpass.Relation) orb.MultiPolygon {
	var outers, inners []orb.Ring
	for _, m := range rel.Members {
		if m.Type != overpass.ElementTypeWay || m.Way == nil {
			continue
		}
		pts := wayPoints(m.Way)
		if !isClosed(pts) {
			slog.Debug("Skipping unclosed relation member", "relation", rel.ID, "way", m.Way.ID)
			continue
		}
		ring := orb.Ring(pts)
		switch m.Role {
		case "inner":
			inners = append(inners, ring)
		default: // "outer" and untagged members
			outers = append(outers, ring)
		}
	}

	var mp orb.MultiPolygon
	for _, outer := range outers {
		mp = append(mp, orb.Polygon{outer})
	}

	// Attach each inner ring to the outer that contains it.
	for _, inner := range inners {
		if len(inner) == 0 {
			continue
		}
		for i, outer := range outers {
			if planar.RingContains(outer, inner[0]) {
				mp[i] = append(mp[i], inner)
				break
			}
		}
	}
	return mp
}

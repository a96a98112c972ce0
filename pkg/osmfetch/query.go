package osmfetch

import (
	"fmt"
	"strings"

	"posterforge/pkg/geo"
	"posterforge/pkg/theme"
)

// selector is one Overpass tag filter contributing to a feature's geometry.
// lineOnly selectors fetch ways but skip relations, for features that are
// drawn as strokes rather than filled areas.
type selector struct {
	filter   string
	lineOnly bool
}

var featureSelectors = map[theme.Feature][]selector{
	theme.FeatureWater: {
		{filter: `["natural"="water"]`},
		{filter: `["waterway"="riverbank"]`},
	},
	theme.FeatureParks: {
		{filter: `["leisure"="park"]`},
		{filter: `["landuse"="grass"]`},
	},
	theme.FeatureStadiums: {
		{filter: `["leisure"="stadium"]`},
		{filter: `["building"="stadium"]`},
	},
	theme.FeatureRailway: {
		{filter: `["railway"~"^(rail|subway|tram|light_rail)$"]`, lineOnly: true},
	},
	theme.FeatureForest: {
		{filter: `["natural"="wood"]`},
		{filter: `["landuse"="forest"]`},
	},
	theme.FeatureBeach: {
		{filter: `["natural"="beach"]`},
	},
	theme.FeatureCoastline: {
		{filter: `["natural"="coastline"]`, lineOnly: true},
	},
	theme.FeatureEducation: {
		{filter: `["amenity"~"^(university|college|school)$"]`},
	},
	theme.FeatureWorship: {
		{filter: `["amenity"="place_of_worship"]`},
	},
	theme.FeatureAirport: {
		{filter: `["aeroway"~"^(aerodrome|runway|apron)$"]`},
	},
}

// networkFilter maps a network type to the highway tag filter of its ways.
// Unknown types fall back to the drivable network.
func networkFilter(networkType string) string {
	switch networkType {
	case "walk":
		return `["highway"]["highway"!~"^(motorway|motorway_link)$"]["area"!~"yes"]`
	case "bike":
		return `["highway"]["highway"!~"^(motorway|motorway_link|footway|steps)$"]["area"!~"yes"]`
	case "all":
		return `["highway"]["area"!~"yes"]`
	default: // drive
		return `["highway"~"^(motorway|trunk|primary|secondary|tertiary|unclassified|residential|living_street|motorway_link|trunk_link|primary_link|secondary_link|tertiary_link)$"]["area"!~"yes"]`
	}
}

// bboxClause renders the square around center as an Overpass bbox filter,
// "(south,west,north,east)".
func bboxClause(center geo.Point, distMeters int) string {
	south, west, north, east := geo.BoundingBox(center, float64(distMeters))
	return fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", south, west, north, east)
}

// buildNetworkQuery assembles the Overpass QL for the street network.
func buildNetworkQuery(center geo.Point, distMeters int, networkType string) string {
	bbox := bboxClause(center, distMeters)
	var b strings.Builder
	b.WriteString("[out:json][timeout:180];\n(\n")
	fmt.Fprintf(&b, "  way%s%s;\n", networkFilter(networkType), bbox)
	b.WriteString(");\nout body;\n>;\nout skel qt;\n")
	return b.String()
}

// buildFeatureQuery assembles the Overpass QL for one feature's geometry.
// The empty string means the feature is unknown and nothing should be fetched.
func buildFeatureQuery(center geo.Point, distMeters int, ft theme.Feature) string {
	sels, ok := featureSelectors[ft]
	if !ok {
		return ""
	}
	bbox := bboxClause(center, distMeters)
	var b strings.Builder
	b.WriteString("[out:json][timeout:180];\n(\n")
	for _, sel := range sels {
		fmt.Fprintf(&b, "  way%s%s;\n", sel.filter, bbox)
		if !sel.lineOnly {
			fmt.Fprintf(&b, "  relation%s%s;\n", sel.filter, bbox)
		}
	}
	b.WriteString(");\nout body;\n>;\nout skel qt;\n")
	return b.String()
}

package render

import (
	"strings"

	"github.com/paulmach/orb"

	"posterforge/pkg/theme"
)

// RoadClass is the hierarchy level of a street segment. It drives both
// stroke color and stroke width.
type RoadClass string

const (
	RoadMotorway    RoadClass = "motorway"
	RoadPrimary     RoadClass = "primary"
	RoadSecondary   RoadClass = "secondary"
	RoadTertiary    RoadClass = "tertiary"
	RoadResidential RoadClass = "residential"
	RoadDefault     RoadClass = "default"
)

// Classify maps a raw highway tag to its hierarchy class. Multi-valued tags
// (semicolon separated) use their first element; an absent tag classifies as
// unclassified, which lands in the residential tier. Every input maps to
// exactly one class.
func Classify(tag string) RoadClass {
	if i := strings.IndexByte(tag, ';'); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = "unclassified"
	}

	switch tag {
	case "motorway", "motorway_link":
		return RoadMotorway
	case "trunk", "trunk_link", "primary", "primary_link":
		return RoadPrimary
	case "secondary", "secondary_link":
		return RoadSecondary
	case "tertiary", "tertiary_link":
		return RoadTertiary
	case "residential", "living_street", "unclassified":
		return RoadResidential
	default:
		return RoadDefault
	}
}

// Width returns the relative stroke width for the class, in point units.
func (c RoadClass) Width() float64 {
	switch c {
	case RoadMotorway:
		return 1.2
	case RoadPrimary:
		return 1.0
	case RoadSecondary:
		return 0.8
	case RoadTertiary:
		return 0.6
	default:
		return 0.4
	}
}

// ThemeKey returns the theme lookup key for the class.
func (c RoadClass) ThemeKey() string {
	return "road_" + string(c)
}

// RoadColor resolves the stroke color for a class at a position. The theme
// key road_<class> is consulted first, then road_default, then a fixed
// fallback. Gradient configs sample at the given position.
func RoadColor(r *Resolver, th theme.Spec, class RoadClass, pos orb.Point) Color {
	cfg, ok := th.Color(class.ThemeKey())
	if !ok {
		cfg = th.ColorOr("road_default", "#3A3A3A")
	}
	return r.SampleAt(cfg, pos)
}

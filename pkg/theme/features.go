package theme

import "sort"

// Feature is one of the optional geographic categories a theme can enable.
type Feature string

const (
	FeatureWater     Feature = "water"
	FeatureParks     Feature = "parks"
	FeatureStadiums  Feature = "stadiums"
	FeatureRailway   Feature = "railway"
	FeatureForest    Feature = "forest"
	FeatureBeach     Feature = "beach"
	FeatureCoastline Feature = "coastline"
	FeatureEducation Feature = "education"
	FeatureWorship   Feature = "worship"
	FeatureAirport   Feature = "airport"
)

// AllFeatures lists the recognized features in a fixed order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureWater,
		FeatureParks,
		FeatureStadiums,
		FeatureRailway,
		FeatureForest,
		FeatureBeach,
		FeatureCoastline,
		FeatureEducation,
		FeatureWorship,
		FeatureAirport,
	}
}

// FeatureSet maps each recognized feature to whether the theme enables it.
type FeatureSet map[Feature]bool

// DetectEnabled derives the feature set from a theme. A feature is enabled
// iff the theme defines the corresponding key; the value is irrelevant, so
// cosmetic color changes never alter the set.
func DetectEnabled(s Spec) FeatureSet {
	fs := make(FeatureSet, len(AllFeatures()))
	for _, f := range AllFeatures() {
		fs[f] = s.Has(string(f))
	}
	return fs
}

// Enabled returns the names of enabled features, sorted.
func (fs FeatureSet) Enabled() []string {
	var names []string
	for f, on := range fs {
		if on {
			names = append(names, string(f))
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of enabled features.
func (fs FeatureSet) Count() int {
	n := 0
	for _, on := range fs {
		if on {
			n++
		}
	}
	return n
}

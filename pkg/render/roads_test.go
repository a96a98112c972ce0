package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterforge/pkg/theme"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		tag  string
		want RoadClass
	}{
		{"motorway", RoadMotorway},
		{"motorway_link", RoadMotorway},
		{"trunk", RoadPrimary},
		{"trunk_link", RoadPrimary},
		{"primary", RoadPrimary},
		{"primary_link", RoadPrimary},
		{"secondary", RoadSecondary},
		{"secondary_link", RoadSecondary},
		{"tertiary", RoadTertiary},
		{"tertiary_link", RoadTertiary},
		{"residential", RoadResidential},
		{"living_street", RoadResidential},
		{"unclassified", RoadResidential},
		{"footway", RoadDefault},
		{"service", RoadDefault},
		{"anything_else", RoadDefault},
		// An absent tag classifies as unclassified.
		{"", RoadResidential},
		// Multi-valued tags use the first element.
		{"motorway;trunk", RoadMotorway},
		{"; primary", RoadResidential},
	}

	for _, tt := range tests {
		t.Run("Tag_"+tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tag))
		})
	}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		class RoadClass
		want  float64
	}{
		{RoadMotorway, 1.2},
		{RoadPrimary, 1.0},
		{RoadSecondary, 0.8},
		{RoadTertiary, 0.6},
		{RoadResidential, 0.4},
		{RoadDefault, 0.4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.Width(), "width for %s", tt.class)
	}
}

func TestRoadColorThemeLookup(t *testing.T) {
	spec, err := theme.Parse([]byte(`{
		"bg":"#FFFFFF","text":"#000000","gradient_color":"#FFFFFF",
		"road_motorway":"#102030",
		"road_default":"#404040"
	}`))
	require.NoError(t, err)

	r := NewResolver(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	pos := orb.Point{0.5, 0.5}

	motorway := RoadColor(r, spec, RoadMotorway, pos)
	assert.Equal(t, Color{16.0 / 255, 32.0 / 255, 48.0 / 255, 1}, motorway)

	// Classes without their own key fall back to road_default.
	secondary := RoadColor(r, spec, RoadSecondary, pos)
	assert.Equal(t, Color{64.0 / 255, 64.0 / 255, 64.0 / 255, 1}, secondary)
}

func TestRoadColorGradientMidpoint(t *testing.T) {
	spec, err := theme.Parse([]byte(`{
		"bg":"#FFFFFF","text":"#000000","gradient_color":"#FFFFFF",
		"road_motorway":["#000000","#FFFFFF"],
		"road_default":"#404040"
	}`))
	require.NoError(t, err)

	r := NewResolver(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})

	// An edge midpoint at the vertical bounds midpoint resolves to mid gray.
	col := RoadColor(r, spec, RoadMotorway, orb.Point{3, 5})
	assert.InDelta(t, 0.5, col.R, 1e-9)
	assert.InDelta(t, 0.5, col.G, 1e-9)
	assert.InDelta(t, 0.5, col.B, 1e-9)
}

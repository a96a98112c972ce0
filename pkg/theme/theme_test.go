package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, s Spec)
	}{
		{
			name: "SolidColors",
			raw:  `{"bg":"#101010","text":"#EEEEEE","gradient_color":"#101010","road_default":"#888888"}`,
			check: func(t *testing.T, s Spec) {
				c, ok := s.Color("bg")
				require.True(t, ok)
				assert.Equal(t, Solid, c.Kind)
				assert.Equal(t, "#101010", c.Color)
			},
		},
		{
			name: "BareListPromotedToVerticalGradient",
			raw:  `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":["#000000","#FFFFFF"]}`,
			check: func(t *testing.T, s Spec) {
				c, _ := s.Color("road_default")
				assert.Equal(t, Gradient, c.Kind)
				assert.Equal(t, []string{"#000000", "#FFFFFF"}, c.Stops)
				assert.Equal(t, Vertical, c.Direction)
			},
		},
		{
			name: "SingleEntryListIsSolid",
			raw:  `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":["#123456"]}`,
			check: func(t *testing.T, s Spec) {
				c, _ := s.Color("road_default")
				assert.Equal(t, Solid, c.Kind)
				assert.Equal(t, "#123456", c.Color)
			},
		},
		{
			name: "ExplicitGradientObject",
			raw: `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000",
				"road_default":{"type":"gradient","colors":["#FF0000","#00FF00","#0000FF"],"direction":"horizontal"}}`,
			check: func(t *testing.T, s Spec) {
				c, _ := s.Color("road_default")
				assert.Equal(t, Gradient, c.Kind)
				assert.Len(t, c.Stops, 3)
				assert.Equal(t, Horizontal, c.Direction)
			},
		},
		{
			name:    "NotAMapping",
			raw:     `["#000000"]`,
			wantErr: true,
		},
		{
			name:    "MissingRequiredKey",
			raw:     `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000"}`,
			wantErr: true,
		},
		{
			name:    "EmptyColorList",
			raw:     `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":[]}`,
			wantErr: true,
		},
		{
			name:    "GradientObjectWithoutColors",
			raw:     `{"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":{"type":"gradient"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedTheme)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestParseMetadataKeys(t *testing.T) {
	raw := `{"name":"Noir","description":"High contrast black",
		"bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":"#CCCCCC"}`
	s, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Noir", s.Name)
	assert.Equal(t, "High contrast black", s.Description)
	// Metadata keys must not leak into the color mapping or the feature gate.
	assert.False(t, s.Has("name"))
	assert.False(t, s.Has("description"))
}

func TestDefault(t *testing.T) {
	s := Default()
	for _, key := range []string{"bg", "text", "gradient_color", "road_default"} {
		if !s.Has(key) {
			t.Errorf("default theme missing required key %q", key)
		}
	}
	c, _ := s.Color("road_motorway")
	assert.Equal(t, Solid, c.Kind)
}

func TestLoadFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir, "does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, Default().Keys(), s.Keys())
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(dir, "broken")
	assert.ErrorIs(t, err, ErrMalformedTheme)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	themeA := `{"name":"Alpha","description":"first","bg":"#000000","text":"#FFFFFF","gradient_color":"#000000","road_default":"#CCCCCC"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.json"), []byte(themeA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zeta.json"), []byte(`{broken`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "Alpha", list[0].DisplayName)
	assert.Equal(t, "first", list[0].Description)
	// Malformed file still shows up by stem.
	assert.Equal(t, "zeta", list[1].Name)
	assert.Equal(t, "zeta", list[1].DisplayName)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "drive", cfg.Poster.NetworkType)
	assert.Equal(t, 29000.0, cfg.Poster.Distance.Meters())
	assert.Equal(t, 300, cfg.Render.DPI)
	assert.Equal(t, 3600, cfg.Render.WidthPx())
	assert.Equal(t, 4800, cfg.Render.HeightPx())

	// The file must now exist and carry the header comment.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# posterforge configuration"))
	assert.Contains(t, string(data), "# Options: drive, walk, bike, all")
}

func TestLoad_MergesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := `
poster:
  distance: 12km
  network_type: walk
`
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden values win, everything else keeps its default.
	assert.Equal(t, 12000.0, cfg.Poster.Distance.Meters())
	assert.Equal(t, "walk", cfg.Poster.NetworkType)
	assert.Equal(t, "./themes", cfg.Dirs.Themes)
	assert.Equal(t, time.Duration(cfg.Overpass.Timeout), 180*time.Second)
}

func TestLoad_RejectsInvalidNetworkType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := `
poster:
  network_type: teleport
`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_RejectsNegativeDPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := `
render:
  dpi: -10
`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POSTERFORGE_OVERPASS_URL", "https://overpass.example.org/api")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://overpass.example.org/api", cfg.Overpass.Endpoint)
}

func TestGenerateDefault_DoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	require.NoError(t, GenerateDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}

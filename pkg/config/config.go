// Package config holds the application configuration, loaded from YAML with
// defaults written out on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Dirs     DirsConfig     `yaml:"dirs"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Overpass OverpassConfig `yaml:"overpass"`
	Poster   PosterConfig   `yaml:"poster"`
	Render   RenderConfig   `yaml:"render"`
}

// DirsConfig holds the data directory layout.
type DirsConfig struct {
	Themes string `yaml:"themes" validate:"required"`
	Fonts  string `yaml:"fonts" validate:"required"`
	Output string `yaml:"output" validate:"required"`
	Cache  string `yaml:"cache" validate:"required"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// GeocoderConfig holds Nominatim settings.
type GeocoderConfig struct {
	Endpoint string   `yaml:"endpoint" validate:"omitempty,url"`
	MinGap   Duration `yaml:"min_gap"`
}

// OverpassConfig holds Overpass API settings.
type OverpassConfig struct {
	Endpoint string   `yaml:"endpoint" validate:"omitempty,url"`
	Timeout  Duration `yaml:"timeout"`
	MinGap   Duration `yaml:"min_gap"`
}

// PosterConfig holds the default fetch extent and street network type.
type PosterConfig struct {
	Distance    Distance `yaml:"distance" validate:"gt=0"`
	NetworkType string   `yaml:"network_type" validate:"oneof=drive walk bike all"`
}

// RenderConfig holds output raster settings.
type RenderConfig struct {
	WidthIn  float64 `yaml:"width_in" validate:"gt=0"`
	HeightIn float64 `yaml:"height_in" validate:"gt=0"`
	DPI      int     `yaml:"dpi" validate:"gt=0"`
}

// WidthPx returns the output width in pixels.
func (r RenderConfig) WidthPx() int { return int(r.WidthIn * float64(r.DPI)) }

// HeightPx returns the output height in pixels.
func (r RenderConfig) HeightPx() int { return int(r.HeightIn * float64(r.DPI)) }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dirs: DirsConfig{
			Themes: "./themes",
			Fonts:  "./fonts",
			Output: "./posters",
			Cache:  "./cache",
		},
		DB: DBConfig{
			Path: "./data/posterforge.db",
		},
		Log: LogConfig{
			Path:  "./logs/posterforge.log",
			Level: "INFO",
		},
		Geocoder: GeocoderConfig{
			Endpoint: "https://nominatim.openstreetmap.org/search",
			MinGap:   Duration(1 * time.Second),
		},
		Overpass: OverpassConfig{
			Endpoint: "https://overpass-api.de/api/interpreter",
			Timeout:  Duration(180 * time.Second),
			MinGap:   Duration(500 * time.Millisecond),
		},
		Poster: PosterConfig{
			Distance:    Distance(29000),
			NetworkType: "drive",
		},
		Render: RenderConfig{
			WidthIn:  12,
			HeightIn: 16,
			DPI:      300,
		},
	}
}

var validate = validator.New()

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	// A .env file next to the binary can override endpoints without
	// touching the config file. Absence is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTERFORGE_OVERPASS_URL"); v != "" {
		cfg.Overpass.Endpoint = v
	}
	if v := os.Getenv("POSTERFORGE_NOMINATIM_URL"); v != "" {
		cfg.Geocoder.Endpoint = v
	}
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# posterforge configuration
# -------------------------
# Supported units:
#   Duration: ns, us, ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles)

`)
	data = append(header, data...)

	// Inject comments for enum fields.
	reNetwork := regexp.MustCompile(`(?m)^(\s+)network_type:`)
	data = reNetwork.ReplaceAll(data, []byte("${1}# Options: drive, walk, bike, all\n${1}network_type:"))

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

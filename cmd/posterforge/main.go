package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posterforge/pkg/cache"
	"posterforge/pkg/config"
	"posterforge/pkg/db"
	"posterforge/pkg/geocache"
	"posterforge/pkg/geocode"
	"posterforge/pkg/logging"
	"posterforge/pkg/osmfetch"
	"posterforge/pkg/poster"
	"posterforge/pkg/probe"
	"posterforge/pkg/render"
	"posterforge/pkg/request"
	"posterforge/pkg/theme"
	"posterforge/pkg/tracker"
	"posterforge/pkg/version"
)

var (
	cityFlag    = flag.String("city", "", "City to generate a poster for (required)")
	countryFlag = flag.String("country", "", "Country the city is in (required)")
	themeFlag   = flag.String("theme", "feature_based", "Theme name (see -list-themes)")
	distFlag    = flag.String("distance", "", "Fetch radius, e.g. 29km or 8000m (default from config)")
	networkFlag = flag.String("network-type", "", "Street network type: drive, walk, bike, all (default from config)")
	noCache     = flag.Bool("no-cache", false, "Skip the geodata cache and refetch everything")
	listThemes  = flag.Bool("list-themes", false, "List available themes and exit")
	initConfig  = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath  = flag.String("config", "configs/posterforge.yaml", "Path to config file")
)

func usage() {
	fmt.Fprintf(os.Stderr, `posterforge %s - city map poster generator

Usage:
  posterforge -city <name> -country <name> [options]

Examples:
  posterforge -city "Paris" -country "France"
  posterforge -city "Tokyo" -country "Japan" -theme noir -distance 15km
  posterforge -city "Lisbon" -country "Portugal" -network-type walk -no-cache
  posterforge -list-themes

Options:
`, version.Version)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	if *listThemes {
		return printThemes(cfg.Dirs.Themes)
	}

	if *cityFlag == "" || *countryFlag == "" {
		flag.Usage()
		return errors.New("both -city and -country are required")
	}

	slog.Info("posterforge started", "version", version.Version, "city", *cityFlag, "country", *countryFlag)

	distMeters := cfg.Poster.Distance.Meters()
	if *distFlag != "" {
		d, err := config.ParseDistance(*distFlag)
		if err != nil {
			return fmt.Errorf("invalid -distance: %w", err)
		}
		distMeters = d
	}
	networkType := cfg.Poster.NetworkType
	if *networkFlag != "" {
		networkType = *networkFlag
	}

	th, err := theme.Load(cfg.Dirs.Themes, *themeFlag)
	if err != nil {
		return fmt.Errorf("failed to load theme %q: %w", *themeFlag, err)
	}

	// The response cache lives in SQLite. A broken database file only costs
	// us caching, so degrade to NullCache instead of refusing to run.
	var cacher cache.Cacher = cache.NullCache{}
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		slog.Warn("Database unavailable, running without response cache", "error", err)
	} else {
		defer dbConn.Close()
		cacher = cache.NewSQLiteCache(dbConn)
		if err := dbConn.PruneCache(30 * config.Day); err != nil {
			slog.Warn("Cache pruning failed", "error", err)
		}
	}

	results := probe.Run(ctx, []probe.Probe{
		{
			Name:     "Output directory",
			Check:    writableDir(cfg.Dirs.Output),
			Critical: true,
		},
		{
			Name:     "Themes directory",
			Check:    readableDir(cfg.Dirs.Themes),
			Critical: false,
		},
		{
			Name:     "Fonts directory",
			Check:    readableDir(cfg.Dirs.Fonts),
			Critical: false,
		},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	tr := tracker.New()
	reqClient := request.New(cacher, tr)

	geocoder := geocode.NewClient(reqClient)
	geocoder.APIEndpoint = cfg.Geocoder.Endpoint
	geocoder.MinGap = time.Duration(cfg.Geocoder.MinGap)

	place, err := geocoder.Resolve(ctx, *cityFlag, *countryFlag)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return fmt.Errorf("could not find %q in %q; check the spelling", *cityFlag, *countryFlag)
		}
		return err
	}

	fetcher := osmfetch.New(cfg.Overpass.Endpoint, time.Duration(cfg.Overpass.Timeout),
		osmfetch.WithMinGap(time.Duration(cfg.Overpass.MinGap)))

	gen := poster.NewGenerator(fetcher, geocache.NewStore(cfg.Dirs.Cache), cfg.Dirs.Output)

	out, err := gen.Generate(ctx, poster.Request{
		City:        *cityFlag,
		Country:     *countryFlag,
		Center:      place.Point,
		Theme:       th,
		ThemeName:   *themeFlag,
		DistMeters:  int(distMeters),
		NetworkType: networkType,
		UseCache:    !*noCache,
		Render: render.Options{
			WidthPx:  cfg.Render.WidthPx(),
			HeightPx: cfg.Render.HeightPx(),
			DPI:      float64(cfg.Render.DPI),
			Fonts:    render.LoadFonts(cfg.Dirs.Fonts),
		},
	})
	if err != nil {
		return err
	}

	for provider, stats := range tr.Snapshot() {
		slog.Debug("Provider stats", "provider", provider,
			"cache_hits", stats.CacheHits, "cache_misses", stats.CacheMisses,
			"api_success", stats.APISuccess, "api_failures", stats.APIFailures)
	}

	fmt.Printf("Poster saved: %s\n", out)
	return nil
}

// readableDir passes when the directory exists and can be listed. Missing
// theme or font directories are survivable; embedded fallbacks cover both.
func readableDir(dir string) probe.CheckFunc {
	return func(context.Context) error {
		_, err := os.ReadDir(dir)
		return err
	}
}

// writableDir creates the directory if needed and verifies a file can be
// written into it.
func writableDir(dir string) probe.CheckFunc {
	return func(context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

func printThemes(dir string) error {
	themes, err := theme.List(dir)
	if err != nil {
		return fmt.Errorf("failed to list themes: %w", err)
	}
	if len(themes) == 0 {
		fmt.Printf("No themes found in %s\n", dir)
		return nil
	}
	fmt.Println("Available themes:")
	for _, t := range themes {
		if t.Description != "" {
			fmt.Printf("  %-16s %s - %s\n", t.Name, t.DisplayName, t.Description)
		} else {
			fmt.Printf("  %-16s %s\n", t.Name, t.DisplayName)
		}
	}
	return nil
}

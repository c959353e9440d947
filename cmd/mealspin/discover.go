package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/logging"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui"
)

func runDiscover(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var params model.SearchParams
	var address, mode, outputDir, dbPath string
	var debug bool

	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	fs.Float64Var(&params.Center.Lat, "lat", 0, "Center latitude")
	fs.Float64Var(&params.Center.Lng, "lng", 0, "Center longitude")
	fs.StringVar(&address, "address", "", "Meeting place to geocode instead of -lat/-lng")
	fs.Float64Var(&params.Radius, "radius", 1000, "Search radius in meters")
	fs.StringVar(&mode, "mode", "in-person", "Venue kinds: in-person, delivery or both")
	fs.IntVar(&params.Target, "target", 10, "Wheel size")
	fs.StringVar(&params.Keyword, "keyword", "", "Keyword search instead of the restaurant category")
	fs.IntVar(&params.MaxDeliveryMinutes, "max-delivery", 0, "Max estimated delivery minutes (0 = no limit)")
	fs.StringVar(&outputDir, "output", ".", "Directory for the database and the session log")
	fs.StringVar(&dbPath, "db", "", "Database path (default: <output>/mealspin.db)")
	fs.IntVar(&cfg.Discovery.SectorCount, "sectors", cfg.Discovery.SectorCount, "Angular sectors")
	fs.IntVar(&cfg.Discovery.RingCount, "rings", cfg.Discovery.RingCount, "Concentric rings")
	fs.IntVar(&cfg.Discovery.Concurrency, "concurrency", cfg.Discovery.Concurrency, "Max concurrent region queries")
	fs.IntVar(&cfg.Discovery.PoolCap, "cap", cfg.Discovery.PoolCap, "Candidate pool cap")
	fs.StringVar(&cfg.Yogiyo.ProxyURL, "proxy", cfg.Yogiyo.ProxyURL, "HTTP/SOCKS5 proxy for the delivery catalog")
	fs.BoolVar(&debug, "debug", false, "Debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mealspin discover [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mealspin discover -lat 37.5665 -lng 126.9780 -radius 800\n")
		fmt.Fprintf(os.Stderr, "  mealspin discover -address \"Gangnam Station\" -mode both -max-delivery 40\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	params.WantInPerson, params.WantDelivery, err = parseMode(mode)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if address == "" && params.Center.Lat == 0 && params.Center.Lng == 0 {
		return fmt.Errorf("either -address or -lat/-lng is required")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if dbPath == "" {
		dbPath = filepath.Join(outputDir, "mealspin.db")
	}
	ts := time.Now().Format("20060102_150405")
	logPath := filepath.Join(outputDir, fmt.Sprintf("mealspin_%s.log", ts))

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger, err := logging.New(level, logPath)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	label := fmt.Sprintf("%.4f, %.4f", params.Center.Lat, params.Center.Lng)
	if address != "" {
		point, name, err := geo.NewGeocoder(cfg.Nominatim).Geocode(ctx, address)
		if err != nil {
			return fmt.Errorf("geocoding %q: %w", address, err)
		}
		params.Center = point
		label = address
		fmt.Fprintf(os.Stderr, "Place: %s (%.4f, %.4f)\n", name, point.Lat, point.Lng)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	logger.Info("session start",
		zap.Float64("lat", params.Center.Lat),
		zap.Float64("lng", params.Center.Lng),
		zap.Float64("radius_m", params.Radius),
		zap.String("mode", modeLabel(params)),
		zap.String("keyword", params.Keyword),
		zap.Int("sectors", cfg.Discovery.SectorCount),
		zap.Int("rings", cfg.Discovery.RingCount),
		zap.Int("concurrency", cfg.Discovery.Concurrency))

	fmt.Fprintf(os.Stderr, "Discovering: %s r=%.0fm mode=%s (%d regions, concurrency=%d)\n",
		label, params.Radius, modeLabel(params),
		cfg.Discovery.SectorCount*cfg.Discovery.RingCount, cfg.Discovery.Concurrency)

	engine := discovery.NewFromConfig(cfg, logger)
	stats := &discovery.Stats{}
	stopProgress := reportProgress(stats)

	startTime := time.Now()
	res, err := engine.Discover(ctx, params, &discovery.RunOptions{Stats: stats})
	stopProgress()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("discovery cancelled")
		}
		return fmt.Errorf("discovery: %w", err)
	}

	if err := store.SaveSelection(context.Background(), res.RunID, res.Params, res.PoolSize, res.Selection); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}

	duration := time.Since(startTime).Truncate(time.Millisecond)
	snap := stats.Snapshot()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Wheel Ready\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Center:     %s (r=%.0fm)\n", label, params.Radius)
	fmt.Fprintf(os.Stderr, "  Regions:    %d/%d (%d failed)\n", snap.RegionsDone, snap.RegionsTotal, snap.RegionsFailed)
	if snap.RateLimited > 0 {
		fmt.Fprintf(os.Stderr, "  Throttled:  %d retried calls\n", snap.RateLimited)
	}
	fmt.Fprintf(os.Stderr, "  Found:      %d\n", snap.VenuesFound+snap.DeliveryFound)
	fmt.Fprintf(os.Stderr, "  Pool:       %d (unique)\n", res.PoolSize)
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", duration)
	fmt.Fprintf(os.Stderr, "  Run:        %s\n", res.RunID)
	fmt.Fprintf(os.Stderr, "  Database:   %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", logPath)
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")

	printWheel(os.Stdout, res.Selection, -1)

	tui.SaveRecent(tui.RecentEntry{
		RunID:  res.RunID,
		DBPath: dbPath,
		Label:  label,
		Size:   len(res.Selection),
	})
	return nil
}

// reportProgress prints a live progress line from stats until the returned
// func is called.
func reportProgress(stats *discovery.Stats) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\n")
				return
			case <-ticker.C:
				s := stats.Snapshot()
				fmt.Fprintf(os.Stderr, "\r  regions %d/%d  found %d  kept %d  delivery %d/%d   ",
					s.RegionsDone, s.RegionsTotal, s.VenuesFound, s.VenuesKept, s.DeliveryKept, s.DeliveryFound)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

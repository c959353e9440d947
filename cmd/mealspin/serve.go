package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/api"
	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/logging"
)

func runServe(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var dbPath string

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address")
	fs.StringVar(&dbPath, "db", "mealspin.db", "Shortlist database")
	fs.IntVar(&cfg.Discovery.Concurrency, "concurrency", cfg.Discovery.Concurrency, "Max concurrent region queries per run")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mealspin serve [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := discovery.NewMetrics(reg)

	engine := discovery.NewFromConfig(cfg, logger, discovery.WithMetrics(metrics))
	srv := api.NewServer(engine, store, metrics, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting mealspin api",
		zap.String("version", version),
		zap.String("addr", cfg.ListenAddr),
		zap.String("db", dbPath))
	return srv.Run(ctx, cfg.ListenAddr)
}

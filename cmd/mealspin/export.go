package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rendis/mealspin/internal/engine/storage"
)

func runExport(args []string) error {
	var dbPath, outputPath, group, runID string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "mealspin.db", "Database path")
	fs.StringVar(&group, "group", "", "Shortlist group to export (default: all groups)")
	fs.StringVar(&runID, "run", "", "Export a saved wheel instead of the shortlist")
	fs.StringVar(&outputPath, "output", "", "Output file path (default: same dir as db)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mealspin export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mealspin export -group team-a\n")
		fmt.Fprintf(os.Stderr, "  mealspin export -db lunch.db -run 4f0c... -output wheel.csv\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	var write func(io.Writer) error
	var count int
	suffix := "shortlist"

	if runID != "" {
		_, venues, err := store.LoadSelection(ctx, runID)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", runID, err)
		}
		count = len(venues)
		write = func(w io.Writer) error { return storage.WriteVenues(w, venues) }
		suffix = "run_" + runID
	} else {
		entries, err := store.ListShortlist(ctx, group)
		if err != nil {
			return fmt.Errorf("loading shortlist: %w", err)
		}
		count = len(entries)
		write = func(w io.Writer) error { return storage.WriteShortlist(w, entries) }
		if group != "" {
			suffix = "shortlist_" + group
		}
	}

	if count == 0 {
		return fmt.Errorf("nothing to export")
	}
	if outputPath == "" {
		outputPath = storage.ExportPath(dbPath, suffix)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d venues to %s\n", count, outputPath)
	return nil
}

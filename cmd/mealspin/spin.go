package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/draw"
	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/logging"
)

func runSpin(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var dbPath, runID, group, addedBy string
	var shortlist bool

	fs := flag.NewFlagSet("spin", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "mealspin.db", "Database written by 'mealspin discover'")
	fs.StringVar(&runID, "run", "", "Run id to spin (default: latest run)")
	fs.BoolVar(&shortlist, "shortlist", false, "Add the winner to the group shortlist")
	fs.StringVar(&group, "group", "default", "Shortlist group")
	fs.StringVar(&addedBy, "by", os.Getenv("USER"), "Who is adding to the shortlist")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mealspin spin [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mealspin spin\n")
		fmt.Fprintf(os.Stderr, "  mealspin spin -db ./lunch/mealspin.db -shortlist -group team-a\n")
	}

	if err := fs.Parse(args); err != nil {
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

	ctx := context.Background()
	if runID == "" {
		if runID, err = store.LatestRun(ctx); err != nil {
			return fmt.Errorf("finding latest run: %w", err)
		}
	}

	_, venues, err := store.LoadSelection(ctx, runID)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", runID, err)
	}

	state, err := draw.Spin(venues)
	if err != nil {
		return fmt.Errorf("spinning run %s: %w", runID, err)
	}

	winner := state.Winner()
	fmt.Fprintf(os.Stdout, "Run %s, draw %s\n\n", runID, state.ID)
	printWheel(os.Stdout, state.Candidates, state.FinalIndex)
	fmt.Fprintf(os.Stdout, "\nWinner: %s\n", venueLine(winner))
	if winner.Address != "" {
		fmt.Fprintf(os.Stdout, "        %s\n", winner.Address)
	}
	if winner.URL != "" {
		fmt.Fprintf(os.Stdout, "        %s\n", winner.URL)
	}

	if !shortlist {
		return nil
	}

	engine := discovery.New(cfg.Discovery, nil, nil, discovery.WithLogger(logger))
	added, err := engine.AddToShortlist(ctx, store, group, addedBy, winner)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(os.Stdout, "Added to shortlist %q\n", group)
	} else {
		fmt.Fprintf(os.Stdout, "Already on shortlist %q\n", group)
	}
	return nil
}

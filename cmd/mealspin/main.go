package main

import (
	"fmt"
	"os"

	"github.com/rendis/mealspin/internal/tui"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		var run func([]string) error
		switch os.Args[1] {
		case "discover":
			run = runDiscover
		case "spin":
			run = runSpin
		case "serve":
			run = runServe
		case "export":
			run = runExport
		case "version":
			fmt.Println("mealspin " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No subcommand → launch TUI
	if err := tui.Run(version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mealspin - pick a place to eat with a roulette wheel

Usage:
  mealspin                  Launch interactive TUI
  mealspin discover [flags] Find candidates around a point and save the wheel
  mealspin spin [flags]     Spin a saved wheel
  mealspin serve [flags]    Run the HTTP API
  mealspin export [flags]   Export a shortlist or a saved wheel to CSV
  mealspin version          Show version

Run 'mealspin <command> --help' for flags.
`)
}

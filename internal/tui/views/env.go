package views

import (
	"math/rand/v2"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/model"
)

// Env carries what the views need to run discoveries and persist results.
type Env struct {
	Config  config.Config
	DBPath  string
	Group   string
	User    string
	Version string
	Rand    *rand.Rand // drives spins and refreshes; nil = randomly seeded
}

// Navigation messages
type (
	NavigateToHome   struct{}
	NavigateToSearch struct{}
	NavigateToLoad   struct{}
	NavigateToRecent struct{}

	// NavigateToShortlist opens the shortlist stored in DBPath.
	NavigateToShortlist struct {
		DBPath string
	}

	// NavigateToWheel opens a wheel. With Result set the full pool is
	// available and the wheel can be refreshed; otherwise the saved
	// selection RunID is loaded from DBPath.
	NavigateToWheel struct {
		DBPath string
		RunID  string
		Label  string
		Result *discovery.Result
	}

	// RunSavedMsg is emitted once a finished discovery has been stored.
	RunSavedMsg struct {
		DBPath string
		RunID  string
		Label  string
		Size   int
	}
)

// StartDiscoveryMsg starts a discovery run from the search form.
type StartDiscoveryMsg struct {
	Params  model.SearchParams
	Address string // geocoded when set
	DBPath  string
}

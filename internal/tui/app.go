package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/tui/views"
)

type screen int

const (
	screenHome screen = iota
	screenSearch
	screenProgress
	screenWheel
	screenShortlist
	screenOpen
	screenRecent
)

// App is the root bubbletea model. It owns one model per screen and routes
// navigation messages between them.
type App struct {
	env     views.Env
	current screen
	screens map[screen]tea.Model
	width   int
	height  int
}

func NewApp(env views.Env) App {
	return App{
		env:     env,
		current: screenHome,
		screens: map[screen]tea.Model{screenHome: views.NewHomeModel(env)},
	}
}

func (a App) Init() tea.Cmd {
	return a.screens[screenHome].Init()
}

// show makes m the current screen and initializes it at the current size.
func (a App) show(s screen, m tea.Model) (tea.Model, tea.Cmd) {
	a.current = s
	a.screens[s] = m
	w, h := a.width, a.height
	resize := func() tea.Msg { return tea.WindowSizeMsg{Width: w, Height: h} }
	return a, tea.Batch(m.Init(), resize)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// a running discovery asks before quitting
		if msg.String() == "ctrl+c" && a.current != screenProgress {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case views.NavigateToHome:
		a.current = screenHome
		return a, nil
	case views.NavigateToSearch:
		return a.show(screenSearch, views.NewSearchModel(a.env))
	case views.StartDiscoveryMsg:
		return a.show(screenProgress, views.NewProgressModel(a.env, msg))
	case views.RunSavedMsg:
		SaveRecent(RecentEntry{RunID: msg.RunID, DBPath: msg.DBPath, Label: msg.Label, Size: msg.Size})
		return a, nil
	case views.NavigateToWheel:
		return a.show(screenWheel, views.NewWheelModel(a.env, msg))
	case views.NavigateToShortlist:
		return a.show(screenShortlist, views.NewShortlistModel(msg.DBPath))
	case views.NavigateToLoad:
		return a.show(screenOpen, views.NewFilePickerModel())
	case views.NavigateToRecent:
		return a.show(screenRecent, views.NewRecentModel(recentViewEntries()))
	}

	cur, ok := a.screens[a.current]
	if !ok {
		return a, nil
	}
	next, cmd := cur.Update(msg)
	a.screens[a.current] = next
	return a, cmd
}

func (a App) View() string {
	cur, ok := a.screens[a.current]
	if !ok {
		return ""
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Top, cur.View())
}

func recentViewEntries() []views.RecentEntry {
	saved := LoadRecent()
	entries := make([]views.RecentEntry, 0, len(saved))
	for _, e := range saved {
		entries = append(entries, views.RecentEntry{
			RunID:   e.RunID,
			DBPath:  e.DBPath,
			Label:   e.Label,
			Size:    e.Size,
			SavedAt: e.SavedAt,
		})
	}
	return entries
}

// Run starts the TUI with configuration from the environment.
func Run(version string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	env := views.Env{
		Config:  cfg,
		DBPath:  envOr("MEALSPIN_DB", "mealspin.db"),
		Group:   envOr("MEALSPIN_GROUP", "default"),
		User:    os.Getenv("USER"),
		Version: version,
	}

	p := tea.NewProgram(NewApp(env), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

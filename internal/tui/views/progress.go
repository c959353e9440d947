package views

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/logging"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui/components"
	"github.com/rendis/mealspin/internal/tui/styles"
)

// sharedState holds data shared between the discovery goroutine and the TUI.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu      sync.Mutex
	stats   *discovery.Stats
	cancel  context.CancelFunc
	center  model.GeoPoint
	label   string
	located bool
	points  []model.GeoPoint
}

// ProgressModel shows a discovery run in flight.
type ProgressModel struct {
	cfg         config.Config
	params      model.SearchParams
	address     string
	dbPath      string
	logPath     string
	progress    progress.Model
	disc        components.DiscView
	startTime   time.Time
	done        bool
	confirmQuit bool
	err         error
	result      *discovery.Result
	width       int
	height      int
	shared      *sharedState
}

// Messages
type progressTickMsg time.Time

type discoveryCompleteMsg struct {
	Result *discovery.Result
	Err    error
}

func NewProgressModel(env Env, msg StartDiscoveryMsg) ProgressModel {
	ts := time.Now().Format("20060102_150405")
	dir := filepath.Dir(msg.DBPath)

	m := ProgressModel{
		cfg:     env.Config,
		params:  msg.Params,
		address: msg.Address,
		dbPath:  msg.DBPath,
		logPath: filepath.Join(dir, fmt.Sprintf("mealspin_%s.log", ts)),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		disc:      components.NewDiscView(36, 12),
		startTime: time.Now(),
		shared:    &sharedState{stats: &discovery.Stats{}},
	}
	if msg.Address == "" {
		m.shared.locate(msg.Params.Center, fmt.Sprintf("%.4f, %.4f", msg.Params.Center.Lat, msg.Params.Center.Lng))
	}
	return m
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.startDiscovery(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) startDiscovery() tea.Cmd {
	shared := m.shared
	cfg := m.cfg
	params := m.params
	address := m.address
	dbPath := m.dbPath
	logPath := m.logPath

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		shared.setCancel(cancel)

		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return discoveryCompleteMsg{Err: err}
		}
		logger, err := logging.New(cfg.LogLevel, logPath)
		if err != nil {
			return discoveryCompleteMsg{Err: err}
		}
		defer func() { _ = logger.Sync() }()

		if address != "" {
			point, name, err := geo.NewGeocoder(cfg.Nominatim).Geocode(ctx, address)
			if err != nil {
				logger.Warn("geocoding failed", zap.String("address", address), zap.Error(err))
				return discoveryCompleteMsg{Err: fmt.Errorf("geocoding %q: %w", address, err)}
			}
			params.Center = point
			shared.locate(point, name)
		}

		store, err := storage.NewStore(dbPath)
		if err != nil {
			return discoveryCompleteMsg{Err: err}
		}
		defer store.Close()

		engine := discovery.NewFromConfig(cfg, logger)
		res, err := engine.Discover(ctx, params, &discovery.RunOptions{
			Stats:    shared.stats,
			OnVenues: shared.addVenues,
		})
		if err != nil {
			return discoveryCompleteMsg{Err: err}
		}

		if err := store.SaveSelection(ctx, res.RunID, res.Params, res.PoolSize, res.Selection); err != nil {
			return discoveryCompleteMsg{Err: fmt.Errorf("saving selection: %w", err)}
		}
		return discoveryCompleteMsg{Result: res}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 0 {
			m.disc.SetSize(36, max(8, min(16, m.height-16)))
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shared.stop()
			return m, tea.Quit
		case "esc":
			if m.done {
				return m, func() tea.Msg { return NavigateToHome{} }
			}
			if m.confirmQuit {
				// Second esc: cancel and go home
				m.shared.stop()
				return m, func() tea.Msg { return NavigateToHome{} }
			}
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done && m.result != nil {
				return m, m.openWheel()
			}
			if m.confirmQuit {
				m.confirmQuit = false
				return m, nil
			}
		}
		// Any other key cancels the confirmation
		m.confirmQuit = false
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case discoveryCompleteMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
		if m.result == nil {
			return m, nil
		}
		saved := RunSavedMsg{
			DBPath: m.dbPath,
			RunID:  m.result.RunID,
			Label:  m.shared.getLabel(),
			Size:   len(m.result.Selection),
		}
		return m, func() tea.Msg { return saved }
	}

	var cmd tea.Cmd
	var pModel tea.Model
	pModel, cmd = m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) openWheel() tea.Cmd {
	nav := NavigateToWheel{
		DBPath: m.dbPath,
		RunID:  m.result.RunID,
		Label:  m.shared.getLabel(),
		Result: m.result,
	}
	return func() tea.Msg { return nav }
}

func (m ProgressModel) View() string {
	var b strings.Builder

	label := m.shared.getLabel()
	if label == "" {
		label = m.address
	}
	b.WriteString(styles.Title.Render(fmt.Sprintf("Looking for food around %s", label)))
	b.WriteString("\n\n")

	statsBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Width(30).
		Render(m.renderStats())

	disc := m.disc
	if center, ok := m.shared.getCenter(); ok {
		d := m.cfg.Discovery
		disc.SetDisc(center, m.params.Radius, d.SectorCount, d.RingCount)
		disc.SetPoints(m.shared.getPoints())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statsBox, "  ", disc.View()))
	b.WriteString("\n\n")

	stats := m.shared.stats.Snapshot()
	var pct float64
	if stats.RegionsTotal > 0 {
		pct = float64(stats.RegionsDone) / float64(stats.RegionsTotal)
	}
	if m.done && m.err == nil {
		pct = 1
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	switch {
	case m.done && m.err != nil:
		msg := fmt.Sprintf("Error: %v", m.err)
		if errors.Is(m.err, context.Canceled) {
			msg = "Cancelled"
		}
		b.WriteString(styles.ErrorText.Render(msg))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
	case m.done:
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
			Render(fmt.Sprintf("Wheel ready! %d of %d places", len(m.result.Selection), m.result.PoolSize)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf("Database: %s", m.dbPath)))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("enter spin • esc back"))
	case m.confirmQuit:
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the search and go back"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(styles.StatusBar.Render("esc cancel • ctrl+c quit"))
	}

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)
	s := m.shared.stats.Snapshot()

	statLabel := lipgloss.NewStyle().Foreground(styles.Muted).Width(12)
	statVal := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)

	row := func(label, value string, style lipgloss.Style) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(style.Render(value))
		sb.WriteString("\n")
	}

	row("Regions:", fmt.Sprintf("%d/%d", s.RegionsDone, s.RegionsTotal), statVal)
	if s.RegionsFailed > 0 {
		row("Failed:", fmt.Sprintf("%d", s.RegionsFailed), lipgloss.NewStyle().Foreground(styles.Error).Bold(true))
	}
	row("Calls:", fmt.Sprintf("%d", s.Calls), statVal)
	row("Found:", fmt.Sprintf("%d", s.VenuesFound), statVal)
	row("In pool:", fmt.Sprintf("%d", s.VenuesKept+s.DeliveryKept), statVal)
	if m.params.WantDelivery {
		row("Delivery:", fmt.Sprintf("%d/%d", s.DeliveryKept, s.DeliveryFound),
			lipgloss.NewStyle().Foreground(styles.Delivery).Bold(true))
	}
	row("Elapsed:", elapsed.String(), statVal)

	// ETA
	if s.RegionsDone > 0 && s.RegionsTotal > 0 && !m.done && elapsed > 0 {
		rate := float64(s.RegionsDone) / elapsed.Seconds()
		remaining := float64(s.RegionsTotal-s.RegionsDone) / rate
		eta := time.Duration(remaining * float64(time.Second)).Truncate(time.Second)
		row("ETA:", "~"+eta.String(), statVal)
	}

	return sb.String()
}

func (s *sharedState) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

func (s *sharedState) stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *sharedState) locate(center model.GeoPoint, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = center
	s.label = label
	s.located = true
}

func (s *sharedState) getCenter() (model.GeoPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.located
}

func (s *sharedState) getLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

func (s *sharedState) addVenues(venues []model.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range venues {
		if v.Lat != 0 || v.Lng != 0 {
			s.points = append(s.points, model.GeoPoint{Lat: v.Lat, Lng: v.Lng})
		}
	}
}

func (s *sharedState) getPoints() []model.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GeoPoint(nil), s.points...)
}

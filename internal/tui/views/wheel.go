package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/draw"
	"github.com/rendis/mealspin/internal/engine/selection"
	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui/styles"
)

const (
	spinLaps      = 3
	tickBase      = 30 * time.Millisecond
	tickSlowdown  = 260 * time.Millisecond
	wheelNameWide = 36
)

// WheelModel spins a candidate list. The highlight walks the list and comes
// to rest on the index the draw engine resolved.
type WheelModel struct {
	env        Env
	dbPath     string
	runID      string
	label      string
	params     model.SearchParams
	pool       []model.Venue // nil when opened from disk; refresh needs it
	history    *selection.History
	drawer     draw.Engine
	candidates []model.Venue
	state      *draw.State

	spinning  bool
	seq       int // ignores ticks from an earlier spin
	pointer   int
	stepsDone int
	stepsLeft int

	loading bool
	status  string
	err     error
}

type wheelLoadedMsg struct {
	RunID  string
	Params model.SearchParams
	Venues []model.Venue
	Err    error
}

type wheelTickMsg struct {
	seq int
}

type shortlistAddedMsg struct {
	Name  string
	Added bool
	Err   error
}

func NewWheelModel(env Env, nav NavigateToWheel) WheelModel {
	m := WheelModel{
		env:     env,
		dbPath:  nav.DBPath,
		runID:   nav.RunID,
		label:   nav.Label,
		history: selection.NewHistory(),
		drawer:  draw.Engine{Rand: env.Rand},
	}
	if res := nav.Result; res != nil {
		m.runID = res.RunID
		m.params = res.Params
		m.pool = res.Pool
		m.candidates = res.Selection
		m.history.Mark(res.Selection)
	} else {
		m.loading = true
	}
	return m
}

func (m WheelModel) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	dbPath, runID := m.dbPath, m.runID
	return func() tea.Msg {
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return wheelLoadedMsg{Err: err}
		}
		defer store.Close()

		ctx := context.Background()
		if runID == "" {
			if runID, err = store.LatestRun(ctx); err != nil {
				return wheelLoadedMsg{Err: err}
			}
		}
		params, venues, err := store.LoadSelection(ctx, runID)
		return wheelLoadedMsg{RunID: runID, Params: params, Venues: venues, Err: err}
	}
}

func (m WheelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wheelLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.runID = msg.RunID
		m.params = msg.Params
		m.candidates = msg.Venues
		if m.label == "" {
			m.label = fmt.Sprintf("%.4f, %.4f", msg.Params.Center.Lat, msg.Params.Center.Lng)
		}
		m.history.Mark(msg.Venues)
		return m, nil

	case wheelTickMsg:
		if msg.seq != m.seq || !m.spinning {
			return m, nil
		}
		m.pointer = (m.pointer + 1) % len(m.candidates)
		m.stepsDone++
		m.stepsLeft--
		if m.stepsLeft <= 0 {
			m.spinning = false
			m.status = ""
			return m, nil
		}
		return m, m.tick()

	case shortlistAddedMsg:
		switch {
		case msg.Err != nil:
			m.status = "Shortlist: " + msg.Err.Error()
		case msg.Added:
			m.status = fmt.Sprintf("Added %s to %q", msg.Name, m.env.Group)
		default:
			m.status = fmt.Sprintf("%s is already on %q", msg.Name, m.env.Group)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return NavigateToHome{} }
		case " ", "enter":
			return m.spin()
		case "r":
			m.refresh()
			return m, nil
		case "a":
			return m, m.addToShortlist()
		case "s":
			return m, func() tea.Msg { return NavigateToShortlist{DBPath: m.dbPath} }
		}
	}
	return m, nil
}

func (m WheelModel) spin() (tea.Model, tea.Cmd) {
	if m.spinning || m.loading {
		return m, nil
	}
	st, err := m.drawer.Spin(m.candidates)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.state = &st
	m.spinning = true
	m.seq++
	m.stepsDone = 0
	m.stepsLeft = spinSteps(m.pointer, st.FinalIndex, len(m.candidates), spinLaps)
	m.status = "Spinning..."
	if m.stepsLeft == 0 {
		m.spinning = false
		m.status = ""
		return m, nil
	}
	return m, m.tick()
}

func (m *WheelModel) refresh() {
	if m.spinning {
		return
	}
	if len(m.pool) == 0 {
		m.status = "Refresh needs a fresh search; saved wheels only keep their picks"
		return
	}
	sel := selection.Selector{
		Target:   m.params.Target,
		Excluded: m.env.Config.Discovery.ExcludedCategory,
		Rand:     m.env.Rand,
	}
	m.candidates = m.history.Refresh(sel, m.pool, m.params.WantInPerson, m.params.WantDelivery)
	m.state = nil
	m.pointer = 0
	m.status = fmt.Sprintf("New picks (%d of %d seen)", m.history.Seen(), len(m.pool))
}

func (m WheelModel) addToShortlist() tea.Cmd {
	if m.spinning || m.state == nil {
		return nil
	}
	winner := m.state.Winner()
	env, dbPath := m.env, m.dbPath
	return func() tea.Msg {
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return shortlistAddedMsg{Name: winner.Name, Err: err}
		}
		defer store.Close()

		engine := discovery.New(env.Config.Discovery, nil, nil)
		added, err := engine.AddToShortlist(context.Background(), store, env.Group, env.User, winner)
		return shortlistAddedMsg{Name: winner.Name, Added: added, Err: err}
	}
}

func (m WheelModel) tick() tea.Cmd {
	seq := m.seq
	return tea.Tick(tickDelay(m.stepsDone, m.stepsDone+m.stepsLeft), func(time.Time) tea.Msg {
		return wheelTickMsg{seq: seq}
	})
}

// spinSteps is how many single-slot moves take the highlight from `from` to
// `to` after the given number of full laps.
func spinSteps(from, to, n, laps int) int {
	if n <= 0 {
		return 0
	}
	return laps*n + ((to-from)%n+n)%n
}

// tickDelay slows the highlight down quadratically towards the end of a spin.
func tickDelay(done, total int) time.Duration {
	if total <= 0 {
		return tickBase
	}
	f := float64(done) / float64(total)
	return tickBase + time.Duration(f*f*float64(tickSlowdown))
}

func (m WheelModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Wheel · " + m.label))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).Render("Loading..."))
		return styles.Border.Render(b.String())
	}
	if m.err != nil {
		msg := fmt.Sprintf("Error: %v", m.err)
		if errors.Is(m.err, draw.ErrNoCandidates) {
			msg = "Nothing to spin: the search found no places"
		}
		b.WriteString(styles.ErrorText.Render(msg))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	highlight := -1
	if m.spinning || m.state != nil {
		highlight = m.pointer
	}
	for i, v := range m.candidates {
		line := fmt.Sprintf(" %2d  %s", i+1, truncate(v.Name, wheelNameWide))
		line = fmt.Sprintf("%-*s", wheelNameWide+6, line)
		tag := string(v.Category)
		if v.Category == model.CategoryOther && v.CategoryLabel != "" {
			tag = v.CategoryLabel
		}
		if i == highlight {
			b.WriteString(styles.Pointer.Render("▶" + line))
		} else {
			b.WriteString(" " + line)
		}
		b.WriteString(" ")
		if v.Kind == model.KindDelivery {
			tag += " · delivery"
		}
		b.WriteString(styles.CategoryTag(v.Category, v.Kind).Render(tag))
		b.WriteString("\n")
	}

	if m.state != nil && !m.spinning {
		b.WriteString("\n")
		b.WriteString(styles.Winner.Render(renderWinner(m.state.Winner())))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Secondary).Render(m.status))
		b.WriteString("\n")
	}

	keys := "space spin • a shortlist winner • s shortlist • esc back"
	if len(m.pool) > 0 {
		keys = "space spin • r new picks • a shortlist winner • s shortlist • esc back"
	}
	b.WriteString(styles.StatusBar.Render(keys))

	return styles.Border.Render(b.String())
}

func renderWinner(v model.Venue) string {
	var sb strings.Builder
	sb.WriteString("🍽  " + v.Name + "\n")
	sb.WriteString(string(v.Category))
	if v.RawCategory != "" {
		sb.WriteString(" · " + v.RawCategory)
	}
	switch {
	case v.Kind == model.KindDelivery && v.Rating > 0:
		sb.WriteString(fmt.Sprintf(" · ★%.1f", v.Rating))
	case v.Distance > 0:
		sb.WriteString(fmt.Sprintf(" · %.0fm", v.Distance))
	}
	if v.Address != "" {
		sb.WriteString("\n" + v.Address)
	}
	if v.URL != "" {
		sb.WriteString("\n" + v.URL)
	}
	return sb.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

package views

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/tui/styles"
)

// RecentEntry is a saved wheel shown in the recent list.
type RecentEntry struct {
	RunID   string
	DBPath  string
	Label   string
	Size    int
	SavedAt time.Time
}

type RecentModel struct {
	entries []RecentEntry
	cur     cursor
}

func NewRecentModel(entries []RecentEntry) RecentModel {
	return RecentModel{entries: entries, cur: cursor{n: len(entries)}}
}

func (m RecentModel) Init() tea.Cmd {
	return nil
}

func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		key := msg.String()
		if m.cur.move(key) {
			return m, nil
		}
		switch key {
		case "enter":
			if !m.cur.valid() {
				return m, nil
			}
			e := m.entries[m.cur.pos]
			if _, err := os.Stat(e.DBPath); err != nil {
				return m, nil
			}
			return m, func() tea.Msg {
				return NavigateToWheel{DBPath: e.DBPath, RunID: e.RunID, Label: e.Label}
			}
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		}
	}
	return m, nil
}

func (m RecentModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Recent Wheels"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(emptyNote("No saved wheels yet"))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	start, end := m.cur.window(pickerRows / 2)
	for i := start; i < end; i++ {
		e := m.entries[i]
		mark, style := m.cur.row(i)

		title := fmt.Sprintf("%s  %s", e.Label, plural(e.Size, "place"))
		if _, err := os.Stat(e.DBPath); errors.Is(err, fs.ErrNotExist) {
			style = gone
			title += "  (database missing)"
		}

		b.WriteString(mark + style.Render(title) + "\n")
		b.WriteString(muted.Render(fmt.Sprintf("    %s · run %s · %s", filepath.Base(e.DBPath), shortID(e.RunID), timeAgo(e.SavedAt))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter spin • ↑↓ move • esc back"))

	return styles.Border.Render(b.String())
}

var gone = lipgloss.NewStyle().Foreground(styles.Error).Strikethrough(true)

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

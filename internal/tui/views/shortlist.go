package views

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui/styles"
)

// ShortlistModel lists the venues groups decided to keep.
type ShortlistModel struct {
	dbPath    string
	entries   []storage.ShortlistEntry
	filtered  []storage.ShortlistEntry
	table     table.Model
	filter    textinput.Model
	filtering bool
	width     int
	height    int
	err       error
	exportMsg string
}

type shortlistLoadedMsg struct {
	Entries []storage.ShortlistEntry
	Err     error
}

func NewShortlistModel(dbPath string) ShortlistModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter..."
	filter.CharLimit = 50

	m := ShortlistModel{dbPath: dbPath, filter: filter}
	m.buildTable(nil)
	return m
}

func (m ShortlistModel) Init() tea.Cmd {
	dbPath := m.dbPath
	return func() tea.Msg {
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return shortlistLoadedMsg{Err: err}
		}
		defer store.Close()
		entries, err := store.ListShortlist(context.Background(), "")
		return shortlistLoadedMsg{Entries: entries, Err: err}
	}
}

func (m ShortlistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.buildTable(m.filtered)
	case shortlistLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.entries = msg.Entries
		m.filtered = msg.Entries
		m.buildTable(m.filtered)
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if m.filtering {
			switch key {
			case "esc", "enter", "tab":
				m.filtering = false
				m.filter.Blur()
				m.table.Focus()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
		switch key {
		case "esc", "q":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "/", "tab":
			m.filtering = true
			m.table.Blur()
			m.filter.Focus()
			return m, textinput.Blink
		case "e":
			m.exportCSV()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *ShortlistModel) buildTable(entries []storage.ShortlistEntry) {
	nameW, catW, groupW, whoW := 28, 14, 12, 10
	if m.width > 100 {
		extra := m.width - 100
		nameW += extra / 2
		catW += extra / 4
	}

	columns := []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "Category", Width: catW},
		{Title: "Kind", Width: 8},
		{Title: "Group", Width: groupW},
		{Title: "By", Width: whoW},
		{Title: "Added", Width: 10},
	}

	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			truncate(e.Venue.Name, nameW),
			truncate(categoryText(e.Venue), catW),
			string(e.Venue.Kind),
			truncate(e.Group, groupW),
			truncate(e.AddedBy, whoW),
			e.AddedAt.Local().Format("2006-01-02"),
		}
	}

	height := 10
	if m.height > 0 {
		height = max(5, m.height-20)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.filtering),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	t.SetStyles(s)
	m.table = t
}

func categoryText(v model.Venue) string {
	if v.Category == model.CategoryOther && v.CategoryLabel != "" {
		return v.CategoryLabel
	}
	return string(v.Category)
}

// normalize strips diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

func (m *ShortlistModel) applyFilter() {
	words := strings.Fields(normalize(m.filter.Value()))
	if len(words) == 0 {
		m.filtered = m.entries
		m.buildTable(m.filtered)
		return
	}

	m.filtered = nil
	for _, e := range m.entries {
		haystack := normalize(strings.Join([]string{
			e.Venue.Name, string(e.Venue.Category), e.Venue.CategoryLabel,
			e.Venue.RawCategory, e.Venue.Address, e.Group, e.AddedBy,
		}, " "))
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			m.filtered = append(m.filtered, e)
		}
	}
	m.buildTable(m.filtered)
}

func (m *ShortlistModel) selected() (storage.ShortlistEntry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return storage.ShortlistEntry{}, false
	}
	return m.filtered[i], true
}

// exportCSV writes the filtered rows next to the database.
func (m *ShortlistModel) exportCSV() {
	path := storage.ExportPath(m.dbPath, "shortlist")
	f, err := os.Create(path)
	if err != nil {
		m.exportMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	defer f.Close()

	if err := storage.WriteShortlist(f, m.filtered); err != nil {
		m.exportMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	m.exportMsg = fmt.Sprintf("Exported %s to %s", plural(len(m.filtered), "row"), path)
}

func (m ShortlistModel) View() string {
	if m.err != nil {
		return styles.Border.Render(styles.ErrorText.Render(fmt.Sprintf("Error loading shortlist: %v", m.err)) +
			"\n\n" + styles.StatusBar.Render("esc back"))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Shortlist (%d/%d)", len(m.filtered), len(m.entries))))
	b.WriteString("\n")
	b.WriteString(styles.Label.Render("Filter:") + " " + m.filter.View())
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(emptyNote("Nothing shortlisted yet. Spin a wheel and press 'a' on a winner."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		if e, ok := m.selected(); ok {
			b.WriteString("\n")
			b.WriteString(renderWinner(e.Venue))
			b.WriteString("\n")
		}
	}

	if m.exportMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Render(m.exportMsg))
		b.WriteString("\n")
	}

	b.WriteString(styles.StatusBar.Render("/ filter • e export csv • esc back"))
	return styles.Border.Render(b.String())
}

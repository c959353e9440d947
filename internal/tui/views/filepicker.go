package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/tui/styles"
)

const pickerRows = 15

// dbEntry is a directory or a database in the picker.
type dbEntry struct {
	name    string
	path    string
	dir     bool
	modTime time.Time
}

type dbSummaryMsg struct {
	path    string
	summary storage.Summary
	err     error
}

// FilePickerModel browses for a mealspin database. The highlighted database
// is summarized before it is opened.
type FilePickerModel struct {
	dir      string
	entries  []dbEntry
	cur      cursor
	previews map[string]dbSummaryMsg
	err      error
}

func NewFilePickerModel() FilePickerModel {
	cwd, _ := os.Getwd()
	m := FilePickerModel{dir: cwd, previews: make(map[string]dbSummaryMsg)}
	m.err = m.readDir()
	return m
}

// readDir lists subdirectories alphabetically, then databases newest first.
func (m *FilePickerModel) readDir() error {
	list, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	var dirs, dbs []dbEntry
	for _, e := range list {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		entry := dbEntry{name: e.Name(), path: filepath.Join(m.dir, e.Name()), dir: e.IsDir()}
		switch {
		case entry.dir:
			dirs = append(dirs, entry)
		case filepath.Ext(entry.name) == ".db":
			if info, err := e.Info(); err == nil {
				entry.modTime = info.ModTime()
			}
			dbs = append(dbs, entry)
		}
	}
	sort.SliceStable(dbs, func(i, j int) bool { return dbs[i].modTime.After(dbs[j].modTime) })

	m.entries = append(dirs, dbs...)
	m.cur = cursor{n: len(m.entries)}
	return nil
}

func (m FilePickerModel) selected() (dbEntry, bool) {
	if !m.cur.valid() {
		return dbEntry{}, false
	}
	return m.entries[m.cur.pos], true
}

func (m FilePickerModel) Init() tea.Cmd {
	return m.preview()
}

// preview summarizes the highlighted database unless it already was.
func (m FilePickerModel) preview() tea.Cmd {
	e, ok := m.selected()
	if !ok || e.dir {
		return nil
	}
	if _, done := m.previews[e.path]; done {
		return nil
	}
	return func() tea.Msg {
		store, err := storage.NewStore(e.path)
		if err != nil {
			return dbSummaryMsg{path: e.path, err: err}
		}
		defer store.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sum, err := store.Summarize(ctx)
		return dbSummaryMsg{path: e.path, summary: sum, err: err}
	}
}

func (m FilePickerModel) chdir(dir string) (tea.Model, tea.Cmd) {
	prev := m.dir
	m.dir = dir
	if err := m.readDir(); err != nil {
		m.dir = prev
		m.err = err
		return m, nil
	}
	m.err = nil
	return m, m.preview()
}

func (m FilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dbSummaryMsg:
		m.previews[msg.path] = msg
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if m.cur.move(key) {
			return m, m.preview()
		}
		switch key {
		case "enter", "right", "l":
			e, ok := m.selected()
			if !ok {
				return m, nil
			}
			if e.dir {
				return m.chdir(e.path)
			}
			return m, func() tea.Msg {
				return NavigateToWheel{DBPath: e.path, Label: strings.TrimSuffix(e.name, ".db")}
			}
		case "s":
			if e, ok := m.selected(); ok && !e.dir {
				return m, func() tea.Msg { return NavigateToShortlist{DBPath: e.path} }
			}
		case "backspace", "left", "h":
			if parent := filepath.Dir(m.dir); parent != m.dir {
				return m.chdir(parent)
			}
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		}
	}
	return m, nil
}

func (m FilePickerModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Open Database"))
	b.WriteString("\n")
	b.WriteString(muted.Render(m.dir))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.entries) == 0 {
		b.WriteString(emptyNote("Nothing to open here"))
		b.WriteString("\n")
	}

	start, end := m.cur.window(pickerRows)
	for i := start; i < end; i++ {
		e := m.entries[i]
		mark, style := m.cur.row(i)
		if e.dir {
			b.WriteString(mark + "📁 " + style.Render(e.name+"/") + "\n")
			continue
		}
		b.WriteString(mark + "🍽  " + style.Render(e.name) + muted.Render("  "+timeAgo(e.modTime)) + "\n")
	}

	if e, ok := m.selected(); ok && !e.dir {
		b.WriteString("\n")
		b.WriteString(m.previewLine(e))
		b.WriteString("\n")
	}

	b.WriteString(styles.StatusBar.Render("enter spin latest wheel • s shortlist • ← parent dir • esc back"))
	return styles.Border.Render(b.String())
}

func (m FilePickerModel) previewLine(e dbEntry) string {
	p, ok := m.previews[e.path]
	switch {
	case !ok:
		return muted.Render("reading…")
	case p.err != nil:
		return styles.ErrorText.Render("not a mealspin database")
	case p.summary.Runs == 0:
		return muted.Render(fmt.Sprintf("no wheels yet • %d shortlisted", p.summary.Shortlisted))
	}
	return styles.Label.Render("Wheels") + styles.Value.Render(fmt.Sprintf("%d, latest %s", p.summary.Runs, timeAgo(p.summary.LatestAt))) + "\n" +
		styles.Label.Render("Shortlisted") + styles.Value.Render(fmt.Sprint(p.summary.Shortlisted))
}

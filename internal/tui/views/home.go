package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/tui/styles"
)

type menuItem struct {
	key   string
	label string
	desc  string
	msg   tea.Msg
}

type HomeModel struct {
	items   []menuItem
	cur     cursor
	version string
	dbPath  string
}

func NewHomeModel(env Env) HomeModel {
	m := HomeModel{
		version: env.Version,
		dbPath:  env.DBPath,
		items: []menuItem{
			{key: "n", label: "New Search", desc: "Find places around a meeting point", msg: NavigateToSearch{}},
			{key: "r", label: "Recent Wheels", desc: "Spin a saved wheel again", msg: NavigateToRecent{}},
			{key: "l", label: "Open Database", desc: "Spin the latest wheel of a .db file", msg: NavigateToLoad{}},
			{key: "s", label: "Shortlist", desc: "Places your group kept", msg: NavigateToShortlist{DBPath: env.DBPath}},
			{key: "q", label: "Quit", desc: "Exit mealspin"},
		},
	}
	m.cur.reset(len(m.items))
	return m
}

func (m HomeModel) Init() tea.Cmd {
	return nil
}

func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		key := msg.String()
		for i, item := range m.items {
			if item.key == key {
				m.cur.pos = i
				return m, m.handleSelect()
			}
		}
		if key == "enter" {
			return m, m.handleSelect()
		}
		m.cur.move(key)
	}
	return m, nil
}

func (m HomeModel) handleSelect() tea.Cmd {
	item := m.items[m.cur.pos]
	if item.msg == nil {
		return tea.Quit
	}
	return func() tea.Msg { return item.msg }
}

func (m HomeModel) View() string {
	var b strings.Builder

	logo := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Render("  mealspin")

	version := muted.Render(" " + m.version)

	tagline := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Italic(true).
		Render("  Can't decide where to eat? Spin for it.")

	b.WriteString(logo + version + "\n")
	b.WriteString(tagline + "\n\n")

	for i, item := range m.items {
		mark, style := m.cur.row(i)

		key := lipgloss.NewStyle().
			Foreground(styles.Secondary).
			Bold(true).
			Render(fmt.Sprintf("[%s]", item.key))

		b.WriteString(fmt.Sprintf("%s%s %s%s\n", mark, key, style.Render(item.label), muted.Render(" - "+item.desc)))
	}

	b.WriteString("\n")
	b.WriteString(muted.Render("db: " + m.dbPath))
	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("↑↓ navigate • enter select • q quit"))

	return styles.Border.Render(b.String())
}

package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/engine/selection"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui/styles"
)

type locationMode int

const (
	locAddress locationMode = iota
	locCoords
)

type kindsMode int

const (
	kindsInPerson kindsMode = iota
	kindsDelivery
	kindsBoth
)

var kindsLabels = []string{"In person", "Delivery", "Both"}

// Field indices. fieldLocation and fieldKinds are selectors, not textinputs.
const (
	fieldLocation = iota
	fieldAddress
	fieldLat
	fieldLng
	fieldRadius
	fieldKinds
	fieldTarget
	fieldKeyword
	fieldMaxDelivery
	fieldDB
	fieldCount
)

type SearchModel struct {
	inputs   []textinput.Model
	location locationMode
	kinds    kindsMode
	focused  int
	err      string
}

func NewSearchModel(env Env) SearchModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldLocation] = textinput.New() // placeholder, never used
	inputs[fieldAddress] = newInput("e.g. 강남역, Seoul", "", 40)
	inputs[fieldLat] = newInput("37.5665", "", 15)
	inputs[fieldLng] = newInput("126.9780", "", 15)
	inputs[fieldRadius] = newInput("1000", "1000", 10)
	inputs[fieldKinds] = textinput.New() // placeholder, never used
	inputs[fieldTarget] = newInput("10", "10", 5)
	inputs[fieldKeyword] = newInput("optional, e.g. 맛집", "", 30)
	inputs[fieldMaxDelivery] = newInput("0 = no limit", "", 5)
	inputs[fieldDB] = newInput("mealspin.db", env.DBPath, 50)

	return SearchModel{
		inputs:  inputs,
		focused: fieldLocation,
	}
}

func newInput(placeholder, value string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	if width > 0 {
		ti.Width = width
	}
	if value != "" {
		ti.SetValue(value)
	}
	return ti
}

func isSelector(idx int) bool {
	return idx == fieldLocation || idx == fieldKinds
}

func (m SearchModel) Init() tea.Cmd {
	return nil
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "up", "shift+tab":
			m.err = ""
			return m, m.focusPrev()
		case "down", "tab":
			m.err = ""
			return m, m.focusNext()
		case "enter":
			if cmd := m.submit(); cmd != nil {
				return m, cmd
			}
			return m, nil
		case "left":
			if m.cycle(-1) {
				return m, nil
			}
		case "right":
			if m.cycle(1) {
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if !isSelector(m.focused) {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	}
	return m, cmd
}

// cycle moves the focused selector, reporting whether one was focused.
func (m *SearchModel) cycle(dir int) bool {
	switch m.focused {
	case fieldLocation:
		if dir < 0 {
			m.location = locAddress
		} else {
			m.location = locCoords
		}
		return true
	case fieldKinds:
		m.kinds = kindsMode((int(m.kinds) + dir + len(kindsLabels)) % len(kindsLabels))
		return true
	}
	return false
}

func (m *SearchModel) focusNext() tea.Cmd {
	return m.moveFocus(1)
}

func (m *SearchModel) focusPrev() tea.Cmd {
	return m.moveFocus(-1)
}

func (m *SearchModel) moveFocus(dir int) tea.Cmd {
	if !isSelector(m.focused) {
		m.inputs[m.focused].Blur()
	}
	for {
		m.focused = (m.focused + dir + fieldCount) % fieldCount
		if !m.skipped(m.focused) {
			break
		}
	}
	if isSelector(m.focused) {
		return nil
	}
	m.inputs[m.focused].Focus()
	return textinput.Blink
}

func (m *SearchModel) skipped(idx int) bool {
	switch idx {
	case fieldAddress:
		return m.location != locAddress
	case fieldLat, fieldLng:
		return m.location != locCoords
	case fieldMaxDelivery:
		return m.kinds == kindsInPerson
	}
	return false
}

func (m *SearchModel) value(idx int) string {
	return strings.TrimSpace(m.inputs[idx].Value())
}

func (m *SearchModel) submit() tea.Cmd {
	var out StartDiscoveryMsg
	p := &out.Params

	if m.location == locAddress {
		out.Address = m.value(fieldAddress)
		if out.Address == "" {
			m.err = "Address is required"
			return nil
		}
	} else {
		lat, errLat := strconv.ParseFloat(m.value(fieldLat), 64)
		lng, errLng := strconv.ParseFloat(m.value(fieldLng), 64)
		if errLat != nil || errLng != nil {
			m.err = "Lat and Lng must be numbers"
			return nil
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			m.err = "Lat/Lng out of range"
			return nil
		}
		p.Center = model.GeoPoint{Lat: lat, Lng: lng}
	}

	radius, err := strconv.ParseFloat(m.value(fieldRadius), 64)
	if err != nil || radius <= 0 {
		m.err = "Radius must be a positive number of meters"
		return nil
	}
	p.Radius = radius

	if s := m.value(fieldTarget); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > selection.MaxTarget {
			m.err = fmt.Sprintf("Wheel size must be between 1 and %d", selection.MaxTarget)
			return nil
		}
		p.Target = n
	}

	p.WantInPerson = m.kinds != kindsDelivery
	p.WantDelivery = m.kinds != kindsInPerson
	p.Keyword = m.value(fieldKeyword)

	if s := m.value(fieldMaxDelivery); s != "" && p.WantDelivery {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			m.err = "Max delivery minutes must be 0 or more"
			return nil
		}
		p.MaxDeliveryMinutes = n
	}

	out.DBPath = m.value(fieldDB)
	if out.DBPath == "" {
		m.err = "Database path is required"
		return nil
	}

	return func() tea.Msg { return out }
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("New Search") + "\n\n")

	b.WriteString(m.renderSelector("Location:", fieldLocation, []string{"Address", "Coordinates"}, int(m.location)))
	if m.location == locAddress {
		b.WriteString(m.renderField("Address:", fieldAddress))
	} else {
		b.WriteString(m.renderField("Latitude:", fieldLat))
		b.WriteString(m.renderField("Longitude:", fieldLng))
	}
	b.WriteString(m.renderField("Radius (m):", fieldRadius))

	b.WriteString("\n")
	b.WriteString(m.renderSelector("Venues:", fieldKinds, kindsLabels, int(m.kinds)))
	b.WriteString(m.renderField("Wheel size:", fieldTarget))
	b.WriteString(m.renderField("Keyword:", fieldKeyword))
	if m.kinds != kindsInPerson {
		b.WriteString(m.renderField("Max delivery:", fieldMaxDelivery))
		if m.focused == fieldMaxDelivery {
			hint := lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
				Render("  minutes, compared with the slow end of the estimate")
			b.WriteString(hint + "\n")
		}
	}
	b.WriteString(m.renderField("Database:", fieldDB))

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render("  " + m.err))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.StatusBar.Render("enter start • tab next • ←→ change • esc back"))

	return styles.Border.Render(b.String())
}

func (m SearchModel) renderSelector(label string, idx int, options []string, current int) string {
	active := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(styles.Muted)

	parts := make([]string, len(options))
	for i, o := range options {
		if i == current {
			parts[i] = active.Render("< " + o + " >")
		} else {
			parts[i] = inactive.Render(o)
		}
	}

	line := fmt.Sprintf("%s %s", styles.Label.Render(label), strings.Join(parts, "   "))
	if m.focused == idx {
		line += lipgloss.NewStyle().Foreground(styles.Secondary).Render(" ←→")
	}
	return line + "\n"
}

func (m SearchModel) renderField(label string, idx int) string {
	return fmt.Sprintf("%s %s\n", styles.Label.Render(label), m.inputs[idx].View())
}

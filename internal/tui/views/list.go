package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/tui/styles"
)

// cursor is a selection index over a list of n rows.
type cursor struct {
	pos int
	n   int
}

// move handles the navigation keys and reports whether key was one.
func (c *cursor) move(key string) bool {
	switch key {
	case "up", "k":
		if c.pos > 0 {
			c.pos--
		}
	case "down", "j":
		if c.pos < c.n-1 {
			c.pos++
		}
	case "home", "g":
		c.pos = 0
	case "end", "G":
		c.pos = max(c.n-1, 0)
	default:
		return false
	}
	return true
}

func (c *cursor) reset(n int) {
	c.n = n
	c.pos = min(c.pos, max(n-1, 0))
}

func (c cursor) valid() bool { return c.pos < c.n }

// row returns the gutter marker and item style for row i.
func (c cursor) row(i int) (string, lipgloss.Style) {
	if i == c.pos {
		return "> ", styles.ActiveItem
	}
	return "  ", styles.InactiveItem
}

// window returns the visible [start, end) of at most size rows around pos.
func (c cursor) window(size int) (int, int) {
	start := max(0, c.pos-size+3)
	return start, min(start+size, c.n)
}

var muted = lipgloss.NewStyle().Foreground(styles.Muted)

func emptyNote(s string) string {
	return muted.Italic(true).Render(s)
}

package components

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/mealspin/internal/model"
)

func TestDiscViewDimensions(t *testing.T) {
	d := NewDiscView(20, 8)
	center := model.GeoPoint{Lat: 37.5665, Lng: 126.978}
	d.SetDisc(center, 1000, 8, 2)
	d.AddPoints(center, model.GeoPoint{Lat: 37.5705, Lng: 126.978})
	d.SetSelected(1)

	out := d.View()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, 2, d.Len())
	assert.GreaterOrEqual(t, strings.IndexFunc(out, func(r rune) bool {
		return r > 0x2800 && r <= 0x28FF
	}), 0, "expected braille output")
	for _, l := range lines {
		assert.GreaterOrEqual(t, utf8.RuneCountInString(l), 20)
	}
}

func TestDiscViewWithoutDisc(t *testing.T) {
	d := NewDiscView(4, 2)
	assert.Equal(t, "    \n    ", d.View())

	empty := NewDiscView(0, 0)
	assert.Empty(t, empty.View())
}

func TestDotGridIgnoresOutOfRange(t *testing.T) {
	g := newGrid(4, 8)
	g.set(-1, 0)
	g.set(4, 0)
	g.set(0, 0)
	g.set(1, 3)
	assert.Equal(t, rune(0x2800|0x01|0x80), g.cell(0, 0))
	assert.Equal(t, rune(0x2800), g.cell(1, 1))
}

package views

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/mealspin/internal/engine/storage"
	"github.com/rendis/mealspin/internal/model"
)

func loadedShortlist(t *testing.T, dbPath string) ShortlistModel {
	t.Helper()
	entries := []storage.ShortlistEntry{
		{Group: "lunch", AddedBy: "minji", AddedAt: time.Now(), Venue: model.Venue{Name: "Café Crème", Category: model.CategoryCafe, Kind: model.KindMap}},
		{Group: "lunch", AddedBy: "jun", AddedAt: time.Now(), Venue: model.Venue{Name: "교촌치킨", Category: model.CategoryChicken, Kind: model.KindDelivery}},
	}
	m := NewShortlistModel(dbPath)
	next, _ := m.Update(shortlistLoadedMsg{Entries: entries})
	return next.(ShortlistModel)
}

func typeFilter(m ShortlistModel, s string) ShortlistModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = next.(ShortlistModel)
	for _, r := range s {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(ShortlistModel)
	}
	return m
}

func TestShortlistFilterIgnoresAccents(t *testing.T) {
	m := loadedShortlist(t, "meals.db")
	require.Len(t, m.filtered, 2)

	m = typeFilter(m, "creme")
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "Café Crème", m.filtered[0].Venue.Name)
	assert.Contains(t, m.View(), "Shortlist (1/2)")
}

func TestShortlistFilterMatchesAddedBy(t *testing.T) {
	m := typeFilter(loadedShortlist(t, "meals.db"), "jun")
	require.Len(t, m.filtered, 1)
	assert.Equal(t, model.KindDelivery, m.filtered[0].Venue.Kind)
}

func TestShortlistExport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lunch.db")
	m := loadedShortlist(t, db)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(ShortlistModel)

	assert.Contains(t, m.exportMsg, "Exported 2 rows")
	_, err := os.Stat(filepath.Join(filepath.Dir(db), "lunch_shortlist.csv"))
	assert.NoError(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cafe creme", normalize("Café Crème"))
	assert.Equal(t, "교촌치킨", normalize("교촌치킨"))
}

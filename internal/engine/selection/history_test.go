package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/mealspin/internal/model"
)

func TestRefreshPrefersUnseen(t *testing.T) {
	pool := mixedPool(model.KindMap, 4, model.CategoryChicken, model.CategoryPizza, model.CategoryKorean)
	s := Selector{Target: 6, Rand: seeded(7)}
	h := NewHistory()

	first := s.Select(pool)
	h.Mark(first)

	second := h.Refresh(s, pool, true, false)
	require.Len(t, second, 6)
	firstKeys := map[model.VenueKey]bool{}
	for _, v := range first {
		firstKeys[v.Key()] = true
	}
	for _, v := range second {
		assert.False(t, firstKeys[v.Key()], "%s shown twice", v.ProviderID)
	}
	assert.Equal(t, 12, h.Seen())
}

func TestRefreshTopsUpFromSeen(t *testing.T) {
	pool := mixedPool(model.KindMap, 3, model.CategoryChicken, model.CategoryPizza)
	s := Selector{Target: 4, Rand: seeded(11)}
	h := NewHistory()

	h.Mark(pool[:4])
	got := h.Refresh(s, pool, false, false)
	require.Len(t, got, 4)

	fresh := 0
	for _, v := range got {
		for _, u := range pool[4:] {
			if v.Key() == u.Key() {
				fresh++
			}
		}
	}
	assert.Equal(t, 2, fresh, "both unseen venues come first")
}

func TestRefreshResetsWhenEverythingSeen(t *testing.T) {
	pool := mixedPool(model.KindMap, 2, model.CategoryChicken, model.CategoryPizza)
	s := Selector{Target: 2, Rand: seeded(13)}
	h := NewHistory()
	h.Mark(pool)

	got := h.Refresh(s, pool, false, false)
	require.Len(t, got, 2)
	assert.Equal(t, 2, h.Seen(), "history restarted with just this draw")
}

func TestRefreshEmptyPool(t *testing.T) {
	got := NewHistory().Refresh(Selector{Target: 5, Rand: seeded(1)}, nil, true, true)
	assert.Empty(t, got)
}

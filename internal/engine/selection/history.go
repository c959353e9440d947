package selection

import (
	"sync"

	"github.com/rendis/mealspin/internal/model"
)

// History remembers which venues a group has already been shown so that a
// refresh prefers venues it has not seen. It is safe for concurrent use.
type History struct {
	mu    sync.Mutex
	shown map[model.VenueKey]bool
}

func NewHistory() *History {
	return &History{shown: make(map[model.VenueKey]bool)}
}

// Mark records venues as shown.
func (h *History) Mark(venues []model.Venue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markLocked(venues)
}

func (h *History) markLocked(venues []model.Venue) {
	for _, v := range venues {
		h.shown[v.Key()] = true
	}
}

// Seen returns how many distinct venues have been shown.
func (h *History) Seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.shown)
}

// Refresh draws a new selection from pool. Unseen venues go through the
// balanced pass; seen ones only top up a short result. Once every venue in
// pool has been shown the history starts over. The result is marked shown.
func (h *History) Refresh(s Selector, pool []model.Venue, wantInPerson, wantDelivery bool) []model.Venue {
	h.mu.Lock()
	defer h.mu.Unlock()

	allSeen := len(pool) > 0
	for _, v := range pool {
		if !h.shown[v.Key()] {
			allSeen = false
			break
		}
	}
	if allSeen {
		h.shown = make(map[model.VenueKey]bool)
	}

	r := s.rng()
	out := byKind(pool, s.Target, wantInPerson, wantDelivery, func(sub []model.Venue, n int) []model.Venue {
		var fresh, used []model.Venue
		for _, v := range sub {
			if h.shown[v.Key()] {
				used = append(used, v)
			} else {
				fresh = append(fresh, v)
			}
		}
		res := s.selectN(r, fresh, n)
		p := newPicked()
		for _, v := range res {
			p.add(v)
		}
		return backfill(r, res, used, n, p)
	})

	h.markLocked(out)
	return out
}

package discovery

import (
	"sync"

	"github.com/rendis/mealspin/internal/model"
)

// RunState is the candidate pool of one discovery run. Venues are
// deduplicated by (kind, provider id) and the pool never grows past its cap.
// All mutation happens under mu.
type RunState struct {
	mu     sync.Mutex
	seen   map[model.VenueKey]struct{}
	pool   []model.Venue
	cap    int
	sealed bool
}

func NewRunState(capacity int) *RunState {
	return &RunState{
		seen: make(map[model.VenueKey]struct{}),
		cap:  capacity,
	}
}

// Add appends the venues not seen before, in order, until the cap is reached,
// and returns the ones it appended. full reports whether the pool is at
// capacity (or sealed) after the call.
func (s *RunState) Add(venues []model.Venue) (added []model.Venue, full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return nil, true
	}
	for _, v := range venues {
		if len(s.pool) >= s.cap {
			break
		}
		k := v.Key()
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		s.pool = append(s.pool, v)
		added = append(added, v)
	}
	return added, len(s.pool) >= s.cap
}

// Full reports whether no more venues will be accepted.
func (s *RunState) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed || len(s.pool) >= s.cap
}

// Seal freezes the pool. Late results from abandoned calls are dropped.
func (s *RunState) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

func (s *RunState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pool)
}

// Pool returns a copy of the pool in insertion order.
func (s *RunState) Pool() []model.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Venue(nil), s.pool...)
}

package api

import (
	"sync"

	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/selection"
	"github.com/rendis/mealspin/internal/model"
)

// run is a discovery result kept in memory so that it can be refreshed and
// spun without asking the providers again.
type run struct {
	mu        sync.Mutex
	result    *discovery.Result
	history   *selection.History
	selection []model.Venue
}

func (r *run) current() []model.Venue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Venue(nil), r.selection...)
}

func (r *run) replace(sel []model.Venue) {
	r.mu.Lock()
	r.selection = sel
	r.mu.Unlock()
}

// runCache keeps the most recent runs, evicting the oldest.
type runCache struct {
	mu    sync.Mutex
	max   int
	order []string
	runs  map[string]*run
}

func newRunCache(max int) *runCache {
	return &runCache{max: max, runs: make(map[string]*run)}
}

func (c *runCache) put(res *discovery.Result) *run {
	h := selection.NewHistory()
	h.Mark(res.Selection)
	r := &run{result: res, history: h, selection: res.Selection}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.runs[res.RunID]; !ok {
		c.order = append(c.order, res.RunID)
	}
	c.runs[res.RunID] = r
	for len(c.order) > c.max {
		delete(c.runs, c.order[0])
		c.order = c.order[1:]
	}
	return r
}

func (c *runCache) get(id string) (*run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.runs[id]
	return r, ok
}

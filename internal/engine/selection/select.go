// Package selection builds the category-balanced candidate list shown on the
// wheel.
package selection

import (
	"math/rand/v2"
	"strings"

	"github.com/rendis/mealspin/internal/model"
)

const (
	// DefaultTarget is the wheel size when the caller does not ask for one.
	DefaultTarget = 10
	// MaxTarget is the largest wheel a request may ask for.
	MaxTarget = 100
)

// Selector draws a balanced sample from a candidate pool.
type Selector struct {
	Target   int
	Excluded model.Category // dropped from the balanced pass only; empty = none
	Rand     *rand.Rand     // nil = randomly seeded
}

func (s Selector) rng() *rand.Rand {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Select returns up to Target venues: one per category in random category
// order, then a shuffled backfill from everything not yet chosen. No two
// results share a name. An empty pool gives an empty result.
func (s Selector) Select(pool []model.Venue) []model.Venue {
	return s.selectN(s.rng(), pool, s.Target)
}

// SelectByKind splits the target between in-person and delivery venues when
// both are wanted (in-person gets the odd one) and concatenates the two
// selections, in-person first. A short side is not topped up from the other.
func (s Selector) SelectByKind(pool []model.Venue, wantInPerson, wantDelivery bool) []model.Venue {
	r := s.rng()
	return byKind(pool, s.Target, wantInPerson, wantDelivery, func(sub []model.Venue, n int) []model.Venue {
		return s.selectN(r, sub, n)
	})
}

func byKind(pool []model.Venue, target int, wantInPerson, wantDelivery bool, pick func([]model.Venue, int) []model.Venue) []model.Venue {
	if !(wantInPerson && wantDelivery) {
		switch {
		case wantInPerson:
			pool = ofKind(pool, model.KindMap)
		case wantDelivery:
			pool = ofKind(pool, model.KindDelivery)
		}
		return pick(pool, target)
	}

	deliveryTarget := target / 2
	out := pick(ofKind(pool, model.KindMap), target-deliveryTarget)
	return append(out, pick(ofKind(pool, model.KindDelivery), deliveryTarget)...)
}

func ofKind(pool []model.Venue, kind model.ProviderKind) []model.Venue {
	var out []model.Venue
	for _, v := range pool {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func (s Selector) selectN(r *rand.Rand, pool []model.Venue, target int) []model.Venue {
	if target <= 0 || len(pool) == 0 {
		return []model.Venue{}
	}

	var order []string
	groups := make(map[string][]model.Venue)
	for _, v := range pool {
		if s.Excluded != "" && v.Category == s.Excluded {
			continue
		}
		k := v.Stratum()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	shuffle(r, order)

	picked := newPicked()
	out := make([]model.Venue, 0, min(target, len(pool)))
	for _, k := range order {
		if len(out) >= target {
			break
		}
		members := append([]model.Venue(nil), groups[k]...)
		shuffle(r, members)
		for _, v := range members {
			if picked.add(v) {
				out = append(out, v)
				break
			}
		}
	}

	return backfill(r, out, pool, target, picked)
}

// backfill tops out up to target from candidates in random order, skipping
// venues and names already picked.
func backfill(r *rand.Rand, out, candidates []model.Venue, target int, picked *picked) []model.Venue {
	if len(out) >= target {
		return out
	}
	rest := make([]model.Venue, 0, len(candidates))
	for _, v := range candidates {
		if !picked.hasKey(v) {
			rest = append(rest, v)
		}
	}
	shuffle(r, rest)
	for _, v := range rest {
		if len(out) >= target {
			break
		}
		if picked.add(v) {
			out = append(out, v)
		}
	}
	return out
}

type picked struct {
	keys  map[model.VenueKey]bool
	names map[string]bool
}

func newPicked() *picked {
	return &picked{keys: make(map[model.VenueKey]bool), names: make(map[string]bool)}
}

func (p *picked) hasKey(v model.Venue) bool { return p.keys[v.Key()] }

// add records v unless its key or name was already taken.
func (p *picked) add(v model.Venue) bool {
	name := nameKey(v.Name)
	if p.keys[v.Key()] || p.names[name] {
		return false
	}
	p.keys[v.Key()] = true
	p.names[name] = true
	return true
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// shuffle is a Fisher-Yates shuffle driven by r.
func shuffle[T any](r *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

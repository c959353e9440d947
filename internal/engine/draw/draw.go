// Package draw picks the winner of a roulette spin and maps the drawn index
// onto the slot the wheel visually comes to rest on.
package draw

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/rendis/mealspin/internal/model"
)

// ErrNoCandidates is returned when spinning an empty wheel.
var ErrNoCandidates = errors.New("no candidates to draw from")

// Renderer maps a drawn index to the index the wheel shows under its pointer.
// Implementations must be pure.
type Renderer interface {
	PointerOffset(n int) int
	FinalIndex(actual, n int) int
}

// WheelRenderer is the geometry of the slot wheel: the pointer sits a quarter
// turn from slot zero and the reel stops three slots short of it.
type WheelRenderer struct {
	OffsetDivisor int
	Correction    int
}

// DefaultRenderer matches the shipped wheel.
var DefaultRenderer = WheelRenderer{OffsetDivisor: 4, Correction: -3}

func (w WheelRenderer) PointerOffset(n int) int {
	if w.OffsetDivisor <= 0 {
		return 0
	}
	return n / w.OffsetDivisor
}

func (w WheelRenderer) FinalIndex(actual, n int) int {
	return mod(actual+w.Correction, n)
}

// State is the outcome of one spin.
type State struct {
	ID                 string        `json:"id"`
	Candidates         []model.Venue `json:"candidates"`
	WinningIndex       int           `json:"winning_index"`
	PointerOffset      int           `json:"pointer_offset"`
	ActualPointerIndex int           `json:"actual_pointer_index"`
	FinalIndex         int           `json:"final_index"`
}

// Winner is the venue displayed under the pointer.
func (s State) Winner() model.Venue {
	return s.Candidates[s.FinalIndex]
}

// Engine spins wheels with a renderer and random source.
type Engine struct {
	Renderer Renderer
	Rand     *rand.Rand // nil = randomly seeded
}

// Spin draws a uniform winning index over candidates and resolves it through
// the renderer.
func (e Engine) Spin(candidates []model.Venue) (State, error) {
	n := len(candidates)
	if n == 0 {
		return State{}, ErrNoCandidates
	}
	r := e.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e.Resolve(candidates, r.IntN(n))
}

// Resolve computes the state for a given winning index.
func (e Engine) Resolve(candidates []model.Venue, winning int) (State, error) {
	n := len(candidates)
	if n == 0 {
		return State{}, ErrNoCandidates
	}
	rd := e.Renderer
	if rd == nil {
		rd = DefaultRenderer
	}

	winning = mod(winning, n)
	offset := rd.PointerOffset(n)
	actual := mod(winning+offset, n)
	return State{
		ID:                 uuid.NewString(),
		Candidates:         append([]model.Venue(nil), candidates...),
		WinningIndex:       winning,
		PointerOffset:      offset,
		ActualPointerIndex: actual,
		FinalIndex:         rd.FinalIndex(actual, n),
	}, nil
}

// Spin uses the default renderer and a random seed.
func Spin(candidates []model.Venue) (State, error) {
	return Engine{}.Spin(candidates)
}

// mod is the non-negative remainder of a / n.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Package goals creates the fixed set of destination cells walkers travel
// between.
package goals

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/grid"
)

// ErrPlacementExhausted is returned when the requested goals cannot be
// spread over the free cells at the requested separation.
var ErrPlacementExhausted = errors.New("goal placement exhausted")

// Blocker reports whether a cell is unusable. *obstacle.Mask satisfies it.
type Blocker interface {
	Blocked(p grid.Point) bool
}

// Goal is a named destination cell.
type Goal struct {
	Name string     `json:"name"`
	Pos  grid.Point `json:"pos"`
}

// Set is an ordered, immutable collection of goals.
type Set struct {
	goals []Goal
}

// Create samples candidate cells uniformly, rejecting blocked cells and
// cells closer than minSeparation (Chebyshev) to an accepted goal.
func Create(count, width, height int, blocked Blocker, minSeparation int, rng *rand.Rand) (Set, error) {
	if count < 0 {
		return Set{}, fmt.Errorf("goal count must be non-negative, got %d", count)
	}
	if count > 0 && width*height == 0 {
		return Set{}, fmt.Errorf("placing %d goals on an empty grid: %w", count, ErrPlacementExhausted)
	}

	var s Set
	misses := 0
	for len(s.goals) < count {
		p := grid.Pt(rng.IntN(width), rng.IntN(height))
		if blocked.Blocked(p) || s.near(p, minSeparation) {
			misses++
			if misses >= constants.MaxPlacementAttempts {
				return Set{}, fmt.Errorf("placed %d of %d goals at separation %d: %w",
					len(s.goals), count, minSeparation, ErrPlacementExhausted)
			}
			continue
		}
		misses = 0
		s.goals = append(s.goals, Goal{Name: name(len(s.goals)), Pos: p})
	}
	return s, nil
}

// FromPoints builds a set from explicit cells, naming them in order.
func FromPoints(points ...grid.Point) Set {
	s := Set{goals: make([]Goal, len(points))}
	for i, p := range points {
		s.goals[i] = Goal{Name: name(i), Pos: p}
	}
	return s
}

func name(i int) string {
	return fmt.Sprintf("goal-%d", i+1)
}

func (s Set) near(p grid.Point, minSeparation int) bool {
	for _, g := range s.goals {
		if grid.Chebyshev(g.Pos, p) < minSeparation {
			return true
		}
	}
	return false
}

// Len returns the number of goals.
func (s Set) Len() int { return len(s.goals) }

// All returns a copy of the goals in creation order.
func (s Set) All() []Goal {
	out := make([]Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// Points returns the goal cells in creation order.
func (s Set) Points() []grid.Point {
	out := make([]grid.Point, len(s.goals))
	for i, g := range s.goals {
		out[i] = g.Pos
	}
	return out
}

// Contains reports whether p is a goal cell.
func (s Set) Contains(p grid.Point) bool {
	for _, g := range s.goals {
		if g.Pos == p {
			return true
		}
	}
	return false
}

// Validate checks that every goal is inside size, off obstacles and at least
// minSeparation away from every other goal.
func (s Set) Validate(size grid.Size, blocked Blocker, minSeparation int) error {
	for i, a := range s.goals {
		if !size.Contains(a.Pos) {
			return fmt.Errorf("%s at %v outside %dx%d grid", a.Name, a.Pos, size.W, size.H)
		}
		if blocked.Blocked(a.Pos) {
			return fmt.Errorf("%s at %v is on an obstacle", a.Name, a.Pos)
		}
		for _, b := range s.goals[i+1:] {
			if d := grid.Chebyshev(a.Pos, b.Pos); d < minSeparation {
				return fmt.Errorf("%s and %s are %d apart, need %d", a.Name, b.Name, d, minSeparation)
			}
		}
	}
	return nil
}

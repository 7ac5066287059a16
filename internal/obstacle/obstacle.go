// Package obstacle places the static blocked cells (trees) that walkers
// route around.
package obstacle

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/grid"
)

// ErrPlacementExhausted is returned when the requested number of obstacles
// cannot be packed into the grid at the requested clearance.
var ErrPlacementExhausted = errors.New("obstacle placement exhausted")

// Mask is an immutable per-cell blocked layer.
type Mask struct {
	cells *grid.Bools
	list  []grid.Point
}

// Empty returns a mask with no obstacles.
func Empty(width, height int) *Mask {
	return &Mask{cells: grid.NewBools(width, height)}
}

// Place samples random cells until count obstacles are placed. A sample is
// accepted only when no obstacle already lies in the clearance-radius square
// around it. After constants.MaxPlacementAttempts consecutive rejections the
// request is treated as infeasible.
func Place(count, width, height, clearance int, rng *rand.Rand) (*Mask, error) {
	if count < 0 {
		return nil, fmt.Errorf("obstacle count must be non-negative, got %d", count)
	}
	m := Empty(width, height)
	if count > 0 && m.cells.Cells() == 0 {
		return nil, fmt.Errorf("placing %d obstacles on an empty grid: %w", count, ErrPlacementExhausted)
	}

	misses := 0
	for len(m.list) < count {
		p := grid.Pt(rng.IntN(width), rng.IntN(height))
		if m.cells.AnyWithin(p, clearance) {
			misses++
			if misses >= constants.MaxPlacementAttempts {
				return nil, fmt.Errorf("placed %d of %d obstacles at clearance %d: %w",
					len(m.list), count, clearance, ErrPlacementExhausted)
			}
			continue
		}
		misses = 0
		m.add(p)
	}
	return m, nil
}

// FromCells builds a mask from explicit cells. Clearance is not enforced so
// hand-built layouts can wall cells in.
func FromCells(width, height int, cells []grid.Point) (*Mask, error) {
	m := Empty(width, height)
	for _, p := range cells {
		if !m.cells.Contains(p) {
			return nil, fmt.Errorf("obstacle %v outside %dx%d grid", p, width, height)
		}
		if !m.cells.At(p) {
			m.add(p)
		}
	}
	return m, nil
}

func (m *Mask) add(p grid.Point) {
	m.cells.Set(p, true)
	m.list = append(m.list, p)
}

// Size returns the extent of the mask.
func (m *Mask) Size() grid.Size { return m.cells.Size }

// Blocked reports whether p holds an obstacle. Cells outside the grid are
// not blocked; bounds are the caller's concern.
func (m *Mask) Blocked(p grid.Point) bool {
	return m.cells.Contains(p) && m.cells.At(p)
}

// Count returns the number of obstacles.
func (m *Mask) Count() int { return len(m.list) }

// Cells returns the obstacle positions in placement order.
func (m *Mask) Cells() []grid.Point {
	out := make([]grid.Point, len(m.list))
	copy(out, m.list)
	return out
}

// Rows copies the mask into rows indexed [y][x].
func (m *Mask) Rows() [][]bool { return m.cells.Rows() }

// Validate checks that every pair of obstacles is at Chebyshev distance of
// at least clearance.
func (m *Mask) Validate(clearance int) error {
	for i, a := range m.list {
		for _, b := range m.list[i+1:] {
			if d := grid.Chebyshev(a, b); d < clearance {
				return fmt.Errorf("obstacles %v and %v are %d apart, need %d", a, b, d, clearance)
			}
		}
	}
	return nil
}

// Package trail holds the shared wear field that walkers deposit into and
// read from. It is the feedback state of the simulation.
package trail

import (
	"fmt"

	"github.com/nvandessel/desirepath/internal/grid"
)

// Field is a per-cell wear value in [0, cap]. Values only grow, saturating
// at cap. Field is not safe for concurrent use; deposits are applied in the
// order the scheduler activates walkers.
type Field struct {
	cells     *grid.Floats
	increment float64
	cap       float64
}

// New returns a zeroed field.
func New(width, height int, increment, cap float64) (*Field, error) {
	if increment < 0 {
		return nil, fmt.Errorf("trail increment must be non-negative, got %g", increment)
	}
	if cap < 0 || cap > 1 {
		return nil, fmt.Errorf("trail cap must be in [0,1], got %g", cap)
	}
	return &Field{
		cells:     grid.NewFloats(width, height),
		increment: increment,
		cap:       cap,
	}, nil
}

// Size returns the extent of the field.
func (f *Field) Size() grid.Size { return f.cells.Size }

// Strength returns the wear at p.
func (f *Field) Strength(p grid.Point) float64 { return f.cells.At(p) }

// Deposit adds one increment of wear at p, clamped to the cap, and returns
// the new value.
func (f *Field) Deposit(p grid.Point) float64 {
	v := min(f.cells.At(p)+f.increment, f.cap)
	f.cells.Set(p, v)
	return v
}

// Mean returns the arithmetic mean over all cells.
func (f *Field) Mean() float64 {
	vals := f.cells.Values()
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Max returns the strongest wear in the field.
func (f *Field) Max() float64 {
	var hi float64
	for _, v := range f.cells.Values() {
		hi = max(hi, v)
	}
	return hi
}

// Covered returns the number of cells with any wear.
func (f *Field) Covered() int {
	n := 0
	for _, v := range f.cells.Values() {
		if v > 0 {
			n++
		}
	}
	return n
}

// Rows copies the field into rows indexed [y][x].
func (f *Field) Rows() [][]float64 { return f.cells.Rows() }

// Package grid provides integer cell coordinates, neighbourhood enumeration
// and dense per-cell storage shared by every layer of the world.
package grid

import (
	"fmt"
	"math"
)

// Point is a cell coordinate. X grows to the east, Y to the south.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the offset from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Chebyshev returns the king-move distance between a and b.
func Chebyshev(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// MooreOffsets is the fixed enumeration order of the eight neighbours of a
// cell: x-offset major, y-offset minor, centre excluded. Movement ties are
// broken by this order, so it must not change.
var MooreOffsets = [8]Point{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

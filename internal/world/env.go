package world

import (
	"github.com/nvandessel/desirepath/internal/grid"
)

// The methods below make *World the walker.Env. They are only meant to be
// called from inside an activation.

// Position returns walker id's cell.
func (w *World) Position(id int) grid.Point { return w.positions[id] }

// Neighbors returns the in-bounds Moore neighbours of p. The slice is reused
// by the next call.
func (w *World) Neighbors(p grid.Point) []grid.Point {
	w.nbuf = w.size.Neighbors(w.nbuf[:0], p)
	return w.nbuf
}

// Blocked reports whether p holds an obstacle.
func (w *World) Blocked(p grid.Point) bool { return w.obstacles.Blocked(p) }

// TerrainCost is the slope-weighted cost of moving from a to b.
func (w *World) TerrainCost(a, b grid.Point) float64 { return w.terrain.Cost(a, b) }

// TrailStrength returns the wear at p.
func (w *World) TrailStrength(p grid.Point) float64 { return w.trail.Strength(p) }

// DepositTrail adds one increment of wear at p.
func (w *World) DepositTrail(p grid.Point) { w.trail.Deposit(p) }

// Move relocates walker id. Cells may hold any number of walkers.
func (w *World) Move(id int, to grid.Point) {
	w.vacate(id, w.positions[id])
	w.positions[id] = to
	w.occupy(id, to)
}

// Goals returns the goal cells in creation order.
func (w *World) Goals() []grid.Point { return w.goalCells }

// IntN draws from the world's random source.
func (w *World) IntN(n int) int { return w.rng.IntN(n) }

// Occupants returns the ids of walkers standing on p.
func (w *World) Occupants(p grid.Point) []int {
	if !w.size.Contains(p) {
		return nil
	}
	return append([]int(nil), w.occupants[w.size.Index(p)]...)
}

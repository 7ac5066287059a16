package simulation

import (
	"github.com/nvandessel/desirepath/internal/goals"
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/obstacle"
	"github.com/nvandessel/desirepath/internal/terrain"
	"github.com/nvandessel/desirepath/internal/world"
)

// FlatLayout builds a layout on level terrain with explicit goals, start
// cells and trees. It panics on trees outside the grid; scenarios are
// static test fixtures.
func FlatLayout(width, height int, goalCells, starts, trees []grid.Point) *world.Layout {
	mask, err := obstacle.FromCells(width, height, trees)
	if err != nil {
		panic(err)
	}
	return &world.Layout{
		Terrain:   terrain.Flat(width, height, 0.5),
		Obstacles: mask,
		Goals:     goals.FromPoints(goalCells...),
		Starts:    starts,
	}
}

// Ring returns the eight Moore neighbours of center.
func Ring(center grid.Point) []grid.Point {
	ring := make([]grid.Point, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			ring = append(ring, center.Add(grid.Pt(dx, dy)))
		}
	}
	return ring
}

// Points is shorthand for a list of cells given as x,y pairs.
func Points(xy ...int) []grid.Point {
	pts := make([]grid.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, grid.Pt(xy[i], xy[i+1]))
	}
	return pts
}

// ScenarioConfig returns the default world configuration resized to
// width x height, with separation and clearance relaxed for hand-built
// layouts.
func ScenarioConfig(width, height, maxSteps int) world.Config {
	cfg := world.DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.MaxSteps = maxSteps
	cfg.GoalMinSeparation = 0
	cfg.ObstacleClearance = 0
	return cfg
}

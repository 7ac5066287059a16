package simulation

import (
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/world"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name   string
	Config world.Config

	// Layout, when non-nil, is used as-is. Otherwise the world generates
	// terrain, trees, goals and walkers from Seed.
	Layout *world.Layout
	Seed   uint64

	Ticks int

	// BeforeTick, when non-nil, is called before each tick executes.
	BeforeTick func(tick int, w *world.World)
}

// TickResult captures the outcome of a single tick.
type TickResult struct {
	Index int
	// Stats were taken before any walker moved.
	Stats world.TickStats
	// After is the state once every walker has been activated.
	After world.Snapshot
}

// SimulationResult captures every tick and the final state.
type SimulationResult struct {
	Ticks  []TickResult
	World  *world.World
	RunID  string
	Store  *store.SQLiteStatsStore
	Series []float64
}

// Positions returns walker id's cell after each tick.
func (r SimulationResult) Positions(id int) []grid.Point {
	out := make([]grid.Point, len(r.Ticks))
	for i, tr := range r.Ticks {
		out[i] = tr.After.Walkers[id].Pos
	}
	return out
}

// Walker returns the view of walker id after tick i.
func (r SimulationResult) Walker(i, id int) world.WalkerView {
	return r.Ticks[i].After.Walkers[id]
}

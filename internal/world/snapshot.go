package world

import (
	"github.com/nvandessel/desirepath/internal/goals"
	"github.com/nvandessel/desirepath/internal/grid"
)

// TickStats summarises the world at the start of a tick.
type TickStats struct {
	Tick         int     `json:"tick"`
	MeanTrail    float64 `json:"mean_trail"`
	MaxTrail     float64 `json:"max_trail"`
	CoveredCells int     `json:"covered_cells"`
	Traveling    int     `json:"traveling"`
	Idle         int     `json:"idle"`
}

// WalkerView is a read-only copy of one walker's state.
type WalkerView struct {
	ID    int         `json:"id"`
	Pos   grid.Point  `json:"pos"`
	State string      `json:"state"`
	Goal  *grid.Point `json:"goal,omitempty"`
	Steps int         `json:"steps"`
}

// Snapshot is a deep copy of every layer, indexed [y][x].
type Snapshot struct {
	Tick      int          `json:"tick"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Elevation [][]float64  `json:"elevation"`
	Obstacles [][]bool     `json:"obstacles"`
	Trail     [][]float64  `json:"trail"`
	Goals     []goals.Goal `json:"goals"`
	Walkers   []WalkerView `json:"walkers"`
	MeanTrail float64      `json:"mean_trail"`
}

func (w *World) stats() TickStats {
	s := TickStats{
		Tick:         w.tick,
		MeanTrail:    w.trail.Mean(),
		MaxTrail:     w.trail.Max(),
		CoveredCells: w.trail.Covered(),
	}
	for _, wk := range w.walkers {
		if _, ok := wk.Goal(); ok {
			s.Traveling++
		} else {
			s.Idle++
		}
	}
	return s
}

// Stats returns the current statistics without advancing the world.
func (w *World) Stats() TickStats { return w.stats() }

// Snapshot copies the full observable state. Mutating the result does not
// affect the world.
func (w *World) Snapshot() Snapshot {
	views := make([]WalkerView, len(w.walkers))
	for i, wk := range w.walkers {
		v := WalkerView{
			ID:    wk.ID(),
			Pos:   w.positions[i],
			State: wk.State().String(),
			Steps: wk.Steps(),
		}
		if g, ok := wk.Goal(); ok {
			v.Goal = &g
		}
		views[i] = v
	}
	return Snapshot{
		Tick:      w.tick,
		Width:     w.size.W,
		Height:    w.size.H,
		Elevation: w.terrain.Rows(),
		Obstacles: w.obstacles.Rows(),
		Trail:     w.trail.Rows(),
		Goals:     w.goals.All(),
		Walkers:   views,
		MeanTrail: w.trail.Mean(),
	}
}

// Series returns the mean trail strength recorded at the start of every
// tick so far, oldest first.
func (w *World) Series() []float64 { return append([]float64(nil), w.series...) }

// MeanTrail returns the current mean trail strength over all cells.
func (w *World) MeanTrail() float64 { return w.trail.Mean() }

// Tick returns the number of completed ticks.
func (w *World) Tick() int { return w.tick }

// Config returns the configuration the world was built with.
func (w *World) Config() Config { return w.cfg }

// Size returns the grid dimensions.
func (w *World) Size() grid.Size { return w.size }

// NumWalkers returns the walker count.
func (w *World) NumWalkers() int { return len(w.walkers) }

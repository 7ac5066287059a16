// Package world owns the static layers, the shared trail field and the
// walkers, and schedules one activation per walker per tick.
//
// A World is single-threaded by contract: within a tick walkers run one
// after another in a freshly shuffled order, and each walker's trail deposit
// is visible to every walker activated after it in the same tick. Callers
// that share a World across goroutines must serialise access themselves.
package world

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/desirepath/internal/goals"
	"github.com/nvandessel/desirepath/internal/grid"
	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/obstacle"
	"github.com/nvandessel/desirepath/internal/terrain"
	"github.com/nvandessel/desirepath/internal/trail"
	"github.com/nvandessel/desirepath/internal/walker"
)

// Layout is an explicit set of static layers and starting cells.
type Layout struct {
	Terrain   *terrain.Field
	Obstacles *obstacle.Mask // nil means no obstacles
	Goals     goals.Set
	// Starts places one walker per entry. When empty, Config.NumAgents
	// walkers start on random goal cells.
	Starts []grid.Point
}

// Option configures optional World collaborators.
type Option func(*World)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDecisionLogger traces every walker activation.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(w *World) { w.decisions = dl }
}

// World is the scheduler and the environment walkers act on.
type World struct {
	cfg       Config
	size      grid.Size
	rng       *rand.Rand
	terrain   *terrain.Field
	obstacles *obstacle.Mask
	goals     goals.Set
	goalCells []grid.Point
	trail     *trail.Field

	walkers   []*walker.Walker
	positions []grid.Point
	occupants [][]int // walker ids per cell, row-major
	order     []int

	tick   int
	series []float64

	logger    *slog.Logger
	decisions *logging.DecisionLogger
	nbuf      []grid.Point
}

// New generates terrain, obstacles and goals from cfg and places
// cfg.NumAgents walkers on random goal cells. Random draws happen in that
// order, so a seeded rng reproduces the same world.
func New(cfg Config, rng *rand.Rand, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	field := terrain.Generate(cfg.Width, cfg.Height, rng)

	mask, err := obstacle.Place(cfg.NumTrees, cfg.Width, cfg.Height, cfg.ObstacleClearance, rng)
	if err != nil {
		return nil, &ConfigurationError{Param: "num_trees", Err: err}
	}

	gs, err := goals.Create(cfg.NumGoals, cfg.Width, cfg.Height, mask, cfg.GoalMinSeparation, rng)
	if err != nil {
		return nil, &ConfigurationError{Param: "num_goals", Err: err}
	}

	return NewFromLayout(cfg, Layout{Terrain: field, Obstacles: mask, Goals: gs}, rng, opts...)
}

// NewFromLayout builds a world from explicit layers. The layout is checked
// against cfg: sizes must match, goals must satisfy the separation and
// obstacle rules, and starts must be free in-bounds cells. Obstacle
// clearance is not enforced on explicit layouts.
func NewFromLayout(cfg Config, layout Layout, rng *rand.Rand, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	size := grid.Size{W: cfg.Width, H: cfg.Height}

	if layout.Terrain == nil {
		return nil, invalid("terrain", "layout has no terrain")
	}
	if got := layout.Terrain.Size(); got != size {
		return nil, invalid("terrain", "size %dx%d does not match %dx%d", got.W, got.H, size.W, size.H)
	}
	mask := layout.Obstacles
	if mask == nil {
		mask = obstacle.Empty(size.W, size.H)
	}
	if got := mask.Size(); got != size {
		return nil, invalid("obstacles", "size %dx%d does not match %dx%d", got.W, got.H, size.W, size.H)
	}
	if err := layout.Goals.Validate(size, mask, cfg.GoalMinSeparation); err != nil {
		return nil, &ConfigurationError{Param: "goals", Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
	}
	for i, p := range layout.Starts {
		if !size.Contains(p) {
			return nil, invalid("starts", "walker %d start %v outside grid", i, p)
		}
		if mask.Blocked(p) {
			return nil, invalid("starts", "walker %d start %v is on an obstacle", i, p)
		}
	}
	if len(layout.Starts) == 0 && cfg.NumAgents > 0 && layout.Goals.Len() == 0 {
		return nil, invalid("num_goals", "%d walkers need at least one goal to start on", cfg.NumAgents)
	}

	tf, err := trail.New(size.W, size.H, cfg.TrailIncrement, cfg.TrailCap)
	if err != nil {
		return nil, &ConfigurationError{Param: "trail", Err: err}
	}

	w := &World{
		cfg:       cfg,
		size:      size,
		rng:       rng,
		terrain:   layout.Terrain,
		obstacles: mask,
		goals:     layout.Goals,
		goalCells: layout.Goals.Points(),
		trail:     tf,
		occupants: make([][]int, size.Cells()),
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	starts := layout.Starts
	if len(starts) == 0 {
		starts = make([]grid.Point, cfg.NumAgents)
		for i := range starts {
			starts[i] = w.goalCells[rng.IntN(len(w.goalCells))]
		}
	}
	for id, p := range starts {
		w.walkers = append(w.walkers, walker.New(id, cfg.MaxSteps))
		w.positions = append(w.positions, p)
		w.occupy(id, p)
	}
	w.order = make([]int, len(w.walkers))

	w.logger.Info("world created",
		"width", size.W,
		"height", size.H,
		"walkers", len(w.walkers),
		"obstacles", mask.Count(),
		"goals", layout.Goals.Len())

	return w, nil
}

// Step advances the simulation by one tick. The returned statistics describe
// the state before any walker moved; they are also appended to Series.
func (w *World) Step() TickStats {
	stats := w.stats()
	w.series = append(w.series, stats.MeanTrail)

	for i := range w.order {
		w.order[i] = i
	}
	w.rng.Shuffle(len(w.order), func(i, j int) {
		w.order[i], w.order[j] = w.order[j], w.order[i]
	})

	moved := 0
	for _, id := range w.order {
		d := w.walkers[id].Step(w)
		if d.Moved {
			moved++
		}
		w.trace(d)
	}
	w.tick++

	w.logger.Debug("tick complete",
		"tick", stats.Tick,
		"mean_trail", stats.MeanTrail,
		"moved", moved)

	return stats
}

// Run executes ticks steps, calling fn with each tick's statistics.
// Cancellation is checked between ticks; a tick always runs to completion.
func (w *World) Run(ctx context.Context, ticks int, fn func(TickStats)) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run stopped after %d of %d ticks: %w", i, ticks, err)
		}
		s := w.Step()
		if fn != nil {
			fn(s)
		}
	}
	return nil
}

func (w *World) trace(d walker.Decision) {
	w.logger.Log(context.Background(), logging.LevelTrace, "walker step",
		"tick", w.tick,
		"walker", d.Walker,
		"from", d.From.String(),
		"to", d.To.String(),
		"score", d.Score)

	if w.decisions == nil {
		return
	}
	w.decisions.Log(map[string]any{
		"event":       "walker_step",
		"tick":        w.tick,
		"walker":      d.Walker,
		"from":        d.From,
		"to":          d.To,
		"goal":        d.Goal,
		"has_goal":    d.HasGoal,
		"candidates":  d.Candidates,
		"score":       d.Score,
		"moved":       d.Moved,
		"picked_goal": d.PickedGoal,
		"reached":     d.Reached,
		"abandoned":   d.Abandoned,
		"steps":       d.Steps,
	})
}

func (w *World) occupy(id int, p grid.Point) {
	i := w.size.Index(p)
	w.occupants[i] = append(w.occupants[i], id)
}

func (w *World) vacate(id int, p grid.Point) {
	i := w.size.Index(p)
	ids := w.occupants[i]
	for k, other := range ids {
		if other == id {
			w.occupants[i] = append(ids[:k], ids[k+1:]...)
			return
		}
	}
}

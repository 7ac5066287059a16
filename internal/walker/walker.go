// Package walker implements the per-agent state machine: goal selection,
// the greedy cost-weighted step choice and trail deposit.
//
// A walker owns only its goal and step counter. Position, terrain, obstacles
// and trail live in the environment (the world), which the walker reads and
// mutates through Env during its activation.
package walker

import (
	"math"

	"github.com/nvandessel/desirepath/internal/grid"
)

// Env is the world surface a walker acts on during its activation.
type Env interface {
	// Position returns the current cell of walker id.
	Position(id int) grid.Point
	// Neighbors returns the in-bounds Moore neighbours of p in the fixed
	// enumeration order.
	Neighbors(p grid.Point) []grid.Point
	Blocked(p grid.Point) bool
	TerrainCost(a, b grid.Point) float64
	TrailStrength(p grid.Point) float64
	DepositTrail(p grid.Point)
	// Move relocates walker id in the spatial index.
	Move(id int, to grid.Point)
	Goals() []grid.Point
	// IntN returns a uniform int in [0,n).
	IntN(n int) int
}

// State is the walker's position in its lifecycle.
type State int

const (
	// Idle walkers have no goal and pick one on their next activation.
	Idle State = iota
	// Traveling walkers are heading to a goal with the step counter running.
	Traveling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Traveling:
		return "traveling"
	default:
		return "unknown"
	}
}

// Walker is one agent.
type Walker struct {
	id       int
	goal     grid.Point
	hasGoal  bool
	steps    int
	maxSteps int
}

// New creates an idle walker with the given step budget.
func New(id, maxSteps int) *Walker {
	return &Walker{id: id, maxSteps: maxSteps}
}

// ID returns the walker's identity.
func (w *Walker) ID() int { return w.id }

// State returns Traveling when a goal is assigned.
func (w *Walker) State() State {
	if w.hasGoal {
		return Traveling
	}
	return Idle
}

// Goal returns the current goal, if any.
func (w *Walker) Goal() (grid.Point, bool) { return w.goal, w.hasGoal }

// Steps returns the ticks counted since the last reset.
func (w *Walker) Steps() int { return w.steps }

// MaxSteps returns the step budget.
func (w *Walker) MaxSteps() int { return w.maxSteps }

// Decision records what a walker did during one activation.
type Decision struct {
	Walker     int        `json:"walker"`
	From       grid.Point `json:"from"`
	To         grid.Point `json:"to"`
	Goal       grid.Point `json:"goal"`
	HasGoal    bool       `json:"has_goal"`
	Candidates int        `json:"candidates"`
	Score      float64    `json:"score"`
	Moved      bool       `json:"moved"`
	PickedGoal bool       `json:"picked_goal,omitempty"`
	NoGoal     bool       `json:"no_goal,omitempty"`
	Blocked    bool       `json:"blocked,omitempty"`
	Reached    bool       `json:"reached,omitempty"`
	Abandoned  bool       `json:"abandoned,omitempty"`
	Steps      int        `json:"steps"`
}

// Step runs one activation: acquire a goal if idle, move one cell, deposit
// trail, then apply the arrival and step-budget checks. Blocked moves and
// missing goals degrade to a no-op for this tick.
func (w *Walker) Step(env Env) Decision {
	from := env.Position(w.id)
	d := Decision{Walker: w.id, From: from, To: from}

	if !w.hasGoal {
		d.PickedGoal = w.chooseGoal(env, from)
		d.NoGoal = !d.PickedGoal
	}

	if w.hasGoal {
		d.Goal, d.HasGoal = w.goal, true
		to, score, n := BestStep(env, from, w.goal)
		d.Candidates = n
		if n == 0 {
			d.Blocked = true
		} else {
			env.Move(w.id, to)
			env.DepositTrail(to)
			d.To, d.Score, d.Moved = to, score, true
		}

		if d.To == w.goal {
			w.hasGoal = false
			w.steps = 0
			d.Reached = true
		}
	}

	// The counter runs every tick, including the tick a goal is reached.
	w.steps++
	if w.steps >= w.maxSteps {
		if w.hasGoal {
			d.Abandoned = true
		}
		w.hasGoal = false
		w.steps = 0
	}
	d.Steps = w.steps
	return d
}

// chooseGoal picks a uniformly random goal other than the current cell.
func (w *Walker) chooseGoal(env Env, at grid.Point) bool {
	all := env.Goals()
	eligible := make([]grid.Point, 0, len(all))
	for _, g := range all {
		if g != at {
			eligible = append(eligible, g)
		}
	}
	if len(eligible) == 0 {
		return false
	}
	w.goal = eligible[env.IntN(len(eligible))]
	w.hasGoal = true
	return true
}

// Score is the cost of stepping from cur to p while heading for goal:
// terrain cost plus remaining straight-line distance plus missing wear.
func Score(env Env, cur, p, goal grid.Point) float64 {
	return env.TerrainCost(cur, p) + grid.Euclidean(p, goal) + (1 - env.TrailStrength(p))
}

// BestStep returns the unblocked neighbour of cur with the lowest score, its
// score, and how many candidates were considered. Ties go to the first
// candidate in enumeration order. With no candidates it returns cur and 0.
func BestStep(env Env, cur, goal grid.Point) (grid.Point, float64, int) {
	best, bestScore, n := cur, math.Inf(1), 0
	for _, p := range env.Neighbors(cur) {
		if env.Blocked(p) {
			continue
		}
		n++
		if s := Score(env, cur, p, goal); s < bestScore {
			best, bestScore = p, s
		}
	}
	if n == 0 {
		return cur, 0, 0
	}
	return best, bestScore, n
}

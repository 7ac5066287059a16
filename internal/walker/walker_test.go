package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/desirepath/internal/grid"
)

// flatEnv is a minimal single-walker environment on uniform terrain.
type flatEnv struct {
	size     grid.Size
	pos      grid.Point
	blocked  map[grid.Point]bool
	trail    map[grid.Point]float64
	goals    []grid.Point
	picks    []int
	deposits []grid.Point
}

func newFlatEnv(w, h int, start grid.Point, goals ...grid.Point) *flatEnv {
	return &flatEnv{
		size:    grid.Size{W: w, H: h},
		pos:     start,
		blocked: map[grid.Point]bool{},
		trail:   map[grid.Point]float64{},
		goals:   goals,
	}
}

func (e *flatEnv) Position(int) grid.Point { return e.pos }
func (e *flatEnv) Neighbors(p grid.Point) []grid.Point {
	return e.size.Neighbors(nil, p)
}
func (e *flatEnv) Blocked(p grid.Point) bool { return e.blocked[p] }
func (e *flatEnv) TerrainCost(a, b grid.Point) float64 {
	if a == b {
		return 0
	}
	return 1
}
func (e *flatEnv) TrailStrength(p grid.Point) float64 { return e.trail[p] }
func (e *flatEnv) DepositTrail(p grid.Point) {
	e.trail[p] = min(e.trail[p]+0.1, 1)
	e.deposits = append(e.deposits, p)
}
func (e *flatEnv) Move(_ int, to grid.Point) { e.pos = to }
func (e *flatEnv) Goals() []grid.Point        { return e.goals }
func (e *flatEnv) IntN(n int) int {
	if len(e.picks) == 0 {
		return 0
	}
	i := e.picks[0] % n
	e.picks = e.picks[1:]
	return i
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "traveling", Traveling.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestStepAcquiresGoalAndMovesSameTick(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(0, 0), grid.Pt(4, 4))
	w := New(0, 100)
	require.Equal(t, Idle, w.State())

	d := w.Step(env)
	assert.True(t, d.PickedGoal)
	assert.True(t, d.Moved)
	assert.Equal(t, grid.Pt(1, 1), d.To)
	assert.Equal(t, Traveling, w.State())
	assert.Equal(t, 1, w.Steps())
	assert.Equal(t, []grid.Point{grid.Pt(1, 1)}, env.deposits)
}

func TestStepReachesGoalDiagonally(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(0, 0), grid.Pt(4, 4))
	w := New(0, 100)

	var path []grid.Point
	for tick := 1; tick <= 8; tick++ {
		d := w.Step(env)
		path = append(path, d.To)
		if d.Reached {
			break
		}
	}
	assert.Equal(t, []grid.Point{grid.Pt(1, 1), grid.Pt(2, 2), grid.Pt(3, 3), grid.Pt(4, 4)}, path)
	assert.Equal(t, Idle, w.State())
	// Reset to zero on arrival, then the unconditional increment.
	assert.Equal(t, 1, w.Steps())
}

func TestStepNoEligibleGoal(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(2, 2), grid.Pt(2, 2))
	w := New(0, 100)

	d := w.Step(env)
	assert.True(t, d.NoGoal)
	assert.False(t, d.Moved)
	assert.Equal(t, Idle, w.State())
	assert.Empty(t, env.deposits)
	assert.Equal(t, grid.Pt(2, 2), env.pos)
}

func TestStepExcludesCurrentCell(t *testing.T) {
	env := newFlatEnv(10, 10, grid.Pt(0, 0), grid.Pt(0, 0), grid.Pt(9, 9))
	w := New(0, 100)
	w.Step(env)
	goal, ok := w.Goal()
	require.True(t, ok)
	assert.Equal(t, grid.Pt(9, 9), goal)
}

func TestStepBlockedStaysWithoutDeposit(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(2, 2), grid.Pt(4, 4))
	for _, p := range env.Neighbors(grid.Pt(2, 2)) {
		env.blocked[p] = true
	}
	w := New(0, 100)

	d := w.Step(env)
	assert.True(t, d.Blocked)
	assert.False(t, d.Moved)
	assert.Zero(t, d.Candidates)
	assert.Equal(t, grid.Pt(2, 2), env.pos)
	assert.Empty(t, env.deposits)
	assert.Equal(t, Traveling, w.State())
	assert.Equal(t, 1, w.Steps())
}

func TestStepBudgetAbandonsExactly(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(2, 2), grid.Pt(4, 4))
	for _, p := range env.Neighbors(grid.Pt(2, 2)) {
		env.blocked[p] = true
	}
	const budget = 7
	w := New(0, budget)

	for tick := 1; tick < budget; tick++ {
		d := w.Step(env)
		require.False(t, d.Abandoned, "abandoned early at tick %d", tick)
		require.Equal(t, Traveling, w.State())
		require.Equal(t, tick, w.Steps())
	}
	d := w.Step(env)
	assert.True(t, d.Abandoned)
	assert.Equal(t, Idle, w.State())
	assert.Zero(t, w.Steps())

	// Next activation acquires a goal again.
	d = w.Step(env)
	assert.True(t, d.PickedGoal)
	assert.Equal(t, Traveling, w.State())
}

func TestBestStepTieBreaksByEnumerationOrder(t *testing.T) {
	// Blocking the straight step leaves (1,3) and (3,3) exactly tied.
	env := newFlatEnv(5, 6, grid.Pt(2, 2), grid.Pt(2, 5))
	env.blocked[grid.Pt(2, 3)] = true

	for i := 0; i < 10; i++ {
		to, score, n := BestStep(env, grid.Pt(2, 2), grid.Pt(2, 5))
		assert.Equal(t, grid.Pt(1, 3), to)
		assert.Equal(t, 7, n)
		assert.Equal(t, Score(env, grid.Pt(2, 2), grid.Pt(3, 3), grid.Pt(2, 5)), score)
	}
}

func TestBestStepPrefersTrail(t *testing.T) {
	env := newFlatEnv(5, 6, grid.Pt(2, 2), grid.Pt(2, 5))
	env.blocked[grid.Pt(2, 3)] = true
	env.trail[grid.Pt(3, 3)] = 0.5

	to, _, _ := BestStep(env, grid.Pt(2, 2), grid.Pt(2, 5))
	assert.Equal(t, grid.Pt(3, 3), to)
}

func TestScoreComponents(t *testing.T) {
	env := newFlatEnv(5, 5, grid.Pt(0, 0))
	env.trail[grid.Pt(1, 0)] = 0.25
	got := Score(env, grid.Pt(0, 0), grid.Pt(1, 0), grid.Pt(4, 0))
	assert.InDelta(t, 1+3+0.75, got, 1e-12)
}

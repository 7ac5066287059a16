package simulation

import (
	"testing"

	"github.com/nvandessel/desirepath/internal/grid"
)

// AssertTrailMonotonic asserts that no cell's trail strength ever decreases
// from one tick to the next.
func AssertTrailMonotonic(t *testing.T, result SimulationResult) {
	t.Helper()
	for i := 1; i < len(result.Ticks); i++ {
		prev, cur := result.Ticks[i-1].After.Trail, result.Ticks[i].After.Trail
		for y := range cur {
			for x := range cur[y] {
				if cur[y][x] < prev[y][x] {
					t.Errorf("AssertTrailMonotonic: tick %d: trail at (%d,%d) fell from %.6f to %.6f", i, x, y, prev[y][x], cur[y][x])
				}
			}
		}
	}
}

// AssertTrailBounded asserts that every cell stays within [0, max] and that
// tree cells carry no trail.
func AssertTrailBounded(t *testing.T, result SimulationResult, max float64) {
	t.Helper()
	for _, tr := range result.Ticks {
		for y, row := range tr.After.Trail {
			for x, v := range row {
				if v < 0 || v > max {
					t.Errorf("AssertTrailBounded: tick %d: trail at (%d,%d) = %.6f not in [0, %.4f]", tr.Index, x, y, v, max)
				}
				if tr.After.Obstacles[y][x] && v != 0 {
					t.Errorf("AssertTrailBounded: tick %d: tree at (%d,%d) has trail %.6f", tr.Index, x, y, v)
				}
			}
		}
	}
}

// AssertNoAgentOnObstacle asserts that no walker ever stands on a tree.
func AssertNoAgentOnObstacle(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, tr := range result.Ticks {
		for _, wv := range tr.After.Walkers {
			if tr.After.Obstacles[wv.Pos.Y][wv.Pos.X] {
				t.Errorf("AssertNoAgentOnObstacle: tick %d: walker %d on tree at %v", tr.Index, wv.ID, wv.Pos)
			}
		}
	}
}

// AssertStepBudget asserts that no walker's step counter reaches max.
func AssertStepBudget(t *testing.T, result SimulationResult, max int) {
	t.Helper()
	for _, tr := range result.Ticks {
		for _, wv := range tr.After.Walkers {
			if wv.Steps < 0 || wv.Steps >= max {
				t.Errorf("AssertStepBudget: tick %d: walker %d steps %d not in [0, %d)", tr.Index, wv.ID, wv.Steps, max)
			}
		}
	}
}

// AssertMeanStrictlyIncreasing asserts that the recorded mean trail series
// rises on every tick.
func AssertMeanStrictlyIncreasing(t *testing.T, result SimulationResult) {
	t.Helper()
	for i := 1; i < len(result.Series); i++ {
		if result.Series[i] <= result.Series[i-1] {
			t.Errorf("AssertMeanStrictlyIncreasing: tick %d: mean %.6f <= previous %.6f", i, result.Series[i], result.Series[i-1])
		}
	}
}

// AssertPeriodic asserts that walker id's positions repeat with the given
// period from tick after onwards.
func AssertPeriodic(t *testing.T, result SimulationResult, id, period, after int) {
	t.Helper()
	pos := result.Positions(id)
	if after+period >= len(pos) {
		t.Fatalf("AssertPeriodic: need more than %d ticks, have %d", after+period, len(pos))
	}
	for i := after; i+period < len(pos); i++ {
		if pos[i] != pos[i+period] {
			t.Errorf("AssertPeriodic: walker %d: tick %d at %v, tick %d at %v", id, i, pos[i], i+period, pos[i+period])
			return
		}
	}
}

// AssertNeverVisits asserts that no walker ever stands on cell.
func AssertNeverVisits(t *testing.T, result SimulationResult, cell grid.Point) {
	t.Helper()
	for _, tr := range result.Ticks {
		for _, wv := range tr.After.Walkers {
			if wv.Pos == cell {
				t.Errorf("AssertNeverVisits: tick %d: walker %d reached %v", tr.Index, wv.ID, cell)
			}
		}
	}
}

// FirstArrival returns the first tick after which walker id stood on cell,
// or -1.
func FirstArrival(result SimulationResult, id int, cell grid.Point) int {
	for i, p := range result.Positions(id) {
		if p == cell {
			return i
		}
	}
	return -1
}

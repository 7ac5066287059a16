// Package simulation provides a scenario harness for validating the
// emergent dynamics of trail formation.
//
// The harness drives the real world, walker and trail packages and records
// every tick into an isolated SQLite stats store, with no mocks. Scenarios
// either describe a hand-built layout (terrain, trees, goals, start cells)
// or let the world generate one from a seed. The runner captures a snapshot
// after every tick for property-based assertions.
//
// Usage:
//
//	func TestReinforcement(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "reinforcement",
//	        Config: cfg,
//	        Layout: simulation.FlatLayout(15, 5, goals, starts, nil),
//	        Ticks:  50,
//	    })
//	    simulation.AssertMeanStrictlyIncreasing(t, result)
//	}
package simulation

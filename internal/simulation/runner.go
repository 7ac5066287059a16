package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/world"
)

// Runner executes scenarios against a real world and an isolated SQLite
// stats store.
type Runner struct {
	t     *testing.T
	store *store.SQLiteStatsStore
}

// NewRunner creates a simulation runner with an isolated SQLite store
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteStatsStore(filepath.Join(tmpDir, "runs.db"))
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	ctx := context.Background()

	// Phase 1: Build the world.
	w := r.build(scenario)

	// Phase 2: Register the run.
	runID, err := r.store.CreateRun(ctx, store.Run{Seed: scenario.Seed, Config: scenario.Config})
	if err != nil {
		r.t.Fatalf("%s: CreateRun: %v", scenario.Name, err)
	}

	// Phase 3: Run ticks, snapshotting after each.
	ticks := make([]TickResult, 0, scenario.Ticks)
	stats := make([]world.TickStats, 0, scenario.Ticks)
	for i := 0; i < scenario.Ticks; i++ {
		if scenario.BeforeTick != nil {
			scenario.BeforeTick(i, w)
		}
		s := w.Step()
		stats = append(stats, s)
		ticks = append(ticks, TickResult{Index: i, Stats: s, After: w.Snapshot()})
	}

	if err := r.store.RecordTicks(ctx, runID, stats); err != nil {
		r.t.Fatalf("%s: RecordTicks: %v", scenario.Name, err)
	}

	return SimulationResult{
		Ticks:  ticks,
		World:  w,
		RunID:  runID,
		Store:  r.store,
		Series: w.Series(),
	}
}

func (r *Runner) build(scenario Scenario) *world.World {
	r.t.Helper()
	rng := rand.New(rand.NewPCG(scenario.Seed, scenario.Seed))
	opts := []world.Option{world.WithLogger(logging.NewLogger("info", testWriter{r.t}))}

	var (
		w   *world.World
		err error
	)
	if scenario.Layout != nil {
		w, err = world.NewFromLayout(scenario.Config, *scenario.Layout, rng, opts...)
	} else {
		w, err = world.New(scenario.Config, rng, opts...)
	}
	if err != nil {
		r.t.Fatalf("%s: build world: %v", scenario.Name, err)
	}
	return w
}

// testWriter routes log output through t.Log.
type testWriter struct{ t *testing.T }

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// FormatTickDebug returns a debug string for a tick result.
func FormatTickDebug(tr TickResult) string {
	s := fmt.Sprintf("Tick %d: mean=%.6f max=%.4f covered=%d traveling=%d idle=%d\n",
		tr.Index, tr.Stats.MeanTrail, tr.Stats.MaxTrail, tr.Stats.CoveredCells, tr.Stats.Traveling, tr.Stats.Idle)
	for _, wv := range tr.After.Walkers {
		goal := "-"
		if wv.Goal != nil {
			goal = wv.Goal.String()
		}
		s += fmt.Sprintf("  walker %d: pos=%v state=%s goal=%s steps=%d\n", wv.ID, wv.Pos, wv.State, goal, wv.Steps)
	}
	return s
}

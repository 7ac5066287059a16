// Package store defines the StatsStore interface for recording simulation
// runs and their per-tick statistics.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/desirepath/internal/world"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes one recorded simulation.
type Run struct {
	ID        string       `json:"id"`
	Seed      uint64       `json:"seed"`
	Config    world.Config `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
	// Ticks is the number of tick statistics recorded so far.
	Ticks int `json:"ticks"`
	// FinalMeanTrail is the mean trail strength of the last recorded tick.
	FinalMeanTrail float64 `json:"final_mean_trail"`
}

// StatsStore defines the interface for persisting runs and tick statistics.
type StatsStore interface {
	// CreateRun registers a run. An empty ID is replaced with a fresh UUID
	// and a zero CreatedAt with the current time. It returns the run ID.
	CreateRun(ctx context.Context, run Run) (string, error)

	// RecordTicks appends tick statistics to a run. Re-recording a tick
	// replaces the earlier row.
	RecordTicks(ctx context.Context, runID string, ticks []world.TickStats) error

	// GetRun returns the run or ErrRunNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// TickSeries returns the recorded statistics of a run ordered by tick.
	TickSeries(ctx context.Context, runID string) ([]world.TickStats, error)

	// DeleteRun removes a run and its statistics.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}

// RecordTick records a single tick.
func RecordTick(ctx context.Context, s StatsStore, runID string, tick world.TickStats) error {
	return s.RecordTicks(ctx, runID, []world.TickStats{tick})
}

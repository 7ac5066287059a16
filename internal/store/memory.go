package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/desirepath/internal/world"
)

// InMemoryStatsStore implements StatsStore for testing and one-off runs.
type InMemoryStatsStore struct {
	mu    sync.RWMutex
	runs  map[string]Run
	ticks map[string]map[int]world.TickStats
}

// NewInMemoryStatsStore creates a new in-memory store.
func NewInMemoryStatsStore() *InMemoryStatsStore {
	return &InMemoryStatsStore{
		runs:  make(map[string]Run),
		ticks: make(map[string]map[int]world.TickStats),
	}
}

// CreateRun registers a run.
func (s *InMemoryStatsStore) CreateRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run already exists: %s", run.ID)
	}
	run.Ticks, run.FinalMeanTrail = 0, 0

	s.runs[run.ID] = run
	s.ticks[run.ID] = make(map[int]world.TickStats)
	return run.ID, nil
}

// RecordTicks appends tick statistics to a run.
func (s *InMemoryStatsStore) RecordTicks(ctx context.Context, runID string, ticks []world.TickStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.ticks[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	for _, t := range ticks {
		series[t.Tick] = t
	}
	return nil
}

// GetRun returns the run or ErrRunNotFound.
func (s *InMemoryStatsStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	s.summarize(&run)
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *InMemoryStatsStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		s.summarize(&run)
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// TickSeries returns the recorded statistics ordered by tick.
func (s *InMemoryStatsStore) TickSeries(ctx context.Context, runID string) ([]world.TickStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.ticks[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return sortedSeries(series), nil
}

// DeleteRun removes a run and its statistics.
func (s *InMemoryStatsStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	delete(s.runs, id)
	delete(s.ticks, id)
	return nil
}

// Close is a no-op.
func (s *InMemoryStatsStore) Close() error { return nil }

// summarize fills the derived fields. Callers hold the lock.
func (s *InMemoryStatsStore) summarize(run *Run) {
	series := s.ticks[run.ID]
	run.Ticks = len(series)
	run.FinalMeanTrail = 0
	last := -1
	for tick, t := range series {
		if tick > last {
			last, run.FinalMeanTrail = tick, t.MeanTrail
		}
	}
}

func sortedSeries(m map[int]world.TickStats) []world.TickStats {
	out := make([]world.TickStats, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

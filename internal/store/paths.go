package store

import (
	"context"
	"fmt"
	"strings"
)

// Open returns a SQLite store at path, or an in-memory store when path is
// ":memory:".
func Open(path string) (StatsStore, error) {
	if path == ":memory:" {
		return NewInMemoryStatsStore(), nil
	}
	return NewSQLiteStatsStore(path)
}

// FindRun resolves a full run ID or a unique prefix of one.
func FindRun(ctx context.Context, s StatsStore, ref string) (*Run, error) {
	if run, err := s.GetRun(ctx, ref); err == nil {
		return run, nil
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	var match *Run
	for i := range runs {
		if ref != "" && strings.HasPrefix(runs[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("run prefix %q is ambiguous", ref)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, ref)
	}
	return match, nil
}

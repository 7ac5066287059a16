// Package backup saves and restores the runs of a stats store as a single
// compressed file.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/desirepath/internal/config"
	"github.com/nvandessel/desirepath/internal/pathutil"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/world"
)

// BackupFormat is the payload of a backup file.
type BackupFormat struct {
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	Runs      []BackupRun `json:"runs"`
}

// BackupRun is one run with its recorded series.
type BackupRun struct {
	store.Run
	Series []world.TickStats `json:"series"`
}

// TickCount returns the number of ticks across all runs.
func (b *BackupFormat) TickCount() int {
	n := 0
	for _, r := range b.Runs {
		n += len(r.Series)
	}
	return n
}

// DefaultBackupDir returns ~/.desirepath/backups.
func DefaultBackupDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// Backup writes every run of s and its series to outputPath.
func Backup(ctx context.Context, s store.StatsStore, outputPath string) (*BackupFormat, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	b := &BackupFormat{
		Version:   FormatV2,
		CreatedAt: time.Now().UTC(),
		Runs:      make([]BackupRun, 0, len(runs)),
	}
	for _, run := range runs {
		series, err := s.TickSeries(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read series of %s: %w", run.ID, err)
		}
		b.Runs = append(b.Runs, BackupRun{Run: run, Series: series})
	}

	if err := WriteV2(outputPath, b); err != nil {
		return nil, fmt.Errorf("failed to write backup %s: %w", pathutil.RedactPath(outputPath), err)
	}
	return b, nil
}

// RestoreMode controls how restore handles runs that already exist.
type RestoreMode string

const (
	// RestoreMerge skips runs whose ID is already present (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace deletes existing runs with the same ID first.
	RestoreReplace RestoreMode = "replace"
)

// Valid reports whether m is a known mode.
func (m RestoreMode) Valid() bool {
	return m == RestoreMerge || m == RestoreReplace
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	RunsRestored  int `json:"runs_restored"`
	RunsSkipped   int `json:"runs_skipped"`
	TicksRestored int `json:"ticks_restored"`
}

// Restore loads a backup file into s.
func Restore(ctx context.Context, s store.StatsStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown restore mode: %q", mode)
	}

	b, err := ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	for _, br := range b.Runs {
		_, getErr := s.GetRun(ctx, br.ID)
		if getErr != nil && !errors.Is(getErr, store.ErrRunNotFound) {
			return nil, fmt.Errorf("failed to check existing run %s: %w", br.ID, getErr)
		}
		if getErr == nil {
			if mode == RestoreMerge {
				result.RunsSkipped++
				continue
			}
			if err := s.DeleteRun(ctx, br.ID); err != nil {
				return nil, fmt.Errorf("failed to replace run %s: %w", br.ID, err)
			}
		}

		if _, err := s.CreateRun(ctx, br.Run); err != nil {
			return nil, fmt.Errorf("failed to restore run %s: %w", br.ID, err)
		}
		if len(br.Series) > 0 {
			if err := s.RecordTicks(ctx, br.ID, br.Series); err != nil {
				return nil, fmt.Errorf("failed to restore series of %s: %w", br.ID, err)
			}
		}
		result.RunsRestored++
		result.TicksRestored += len(br.Series)
	}
	return result, nil
}

// GenerateBackupPath creates a timestamped backup filename in dir that does
// not name an existing file.
func GenerateBackupPath(dir string) string {
	return backupPathAt(dir, time.Now())
}

func backupPathAt(dir string, now time.Time) string {
	ts := now.Format("20060102-150405.000000")
	path := filepath.Join(dir, fmt.Sprintf("%s%s.json.gz", filePrefix, ts))
	for n := 1; fileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s%s-%d.json.gz", filePrefix, ts, n))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}

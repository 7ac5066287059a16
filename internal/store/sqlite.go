package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/desirepath/internal/world"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStatsStore implements StatsStore on a single SQLite file.
type SQLiteStatsStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStatsStore opens (creating if needed) the database at dbPath.
func NewSQLiteStatsStore(dbPath string) (*SQLiteStatsStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStatsStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStatsStore) Path() string { return s.dbPath }

// CreateRun registers a run.
func (s *SQLiteStatsStore) CreateRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, config, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, strconv.FormatUint(run.Seed, 10), string(cfg), run.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// RecordTicks appends tick statistics in a single transaction.
func (s *SQLiteStatsStore) RecordTicks(ctx context.Context, runID string, ticks []world.TickStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO tick_stats
			(run_id, tick, mean_trail, max_trail, covered_cells, traveling, idle)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err := stmt.ExecContext(ctx, runID, t.Tick, t.MeanTrail, t.MaxTrail, t.CoveredCells, t.Traveling, t.Idle); err != nil {
			return fmt.Errorf("failed to insert tick %d: %w", t.Tick, err)
		}
	}

	return tx.Commit()
}

const runColumns = `
	r.id, r.seed, r.config, r.created_at,
	(SELECT COUNT(*) FROM tick_stats t WHERE t.run_id = r.id),
	COALESCE((SELECT t.mean_trail FROM tick_stats t WHERE t.run_id = r.id ORDER BY t.tick DESC LIMIT 1), 0)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run           Run
		seed, cfg, ts string
	)
	if err := row.Scan(&run.ID, &seed, &cfg, &ts, &run.Ticks, &run.FinalMeanTrail); err != nil {
		return Run{}, err
	}
	n, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad seed %q: %w", run.ID, seed, err)
	}
	run.Seed = n
	if err := json.Unmarshal([]byte(cfg), &run.Config); err != nil {
		return Run{}, fmt.Errorf("run %s: bad config: %w", run.ID, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", run.ID, ts, err)
	}
	return run, nil
}

// GetRun returns the run or ErrRunNotFound.
func (s *SQLiteStatsStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStatsStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TickSeries returns the recorded statistics ordered by tick.
func (s *SQLiteStatsStore) TickSeries(ctx context.Context, runID string) ([]world.TickStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, mean_trail, max_trail, covered_cells, traveling, idle
		FROM tick_stats WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	series := []world.TickStats{}
	for rows.Next() {
		var t world.TickStats
		if err := rows.Scan(&t.Tick, &t.MeanTrail, &t.MaxTrail, &t.CoveredCells, &t.Traveling, &t.Idle); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		series = append(series, t)
	}
	return series, rows.Err()
}

// DeleteRun removes a run; its statistics cascade.
func (s *SQLiteStatsStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStatsStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

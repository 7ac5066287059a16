package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/desirepath/internal/world"
)

// CSVHeader is the first row written by ExportCSV.
var CSVHeader = []string{"tick", "mean_trail", "max_trail", "covered_cells", "traveling", "idle"}

// ExportCSV writes series as CSV with a header row.
func ExportCSV(w io.Writer, series []world.TickStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range series {
		rec := []string{
			strconv.Itoa(t.Tick),
			strconv.FormatFloat(t.MeanTrail, 'g', -1, 64),
			strconv.FormatFloat(t.MaxTrail, 'g', -1, 64),
			strconv.Itoa(t.CoveredCells),
			strconv.Itoa(t.Traveling),
			strconv.Itoa(t.Idle),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write tick %d: %w", t.Tick, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRunCSV writes the recorded series of runID as CSV.
func ExportRunCSV(ctx context.Context, s StatsStore, runID string, w io.Writer) error {
	series, err := s.TickSeries(ctx, runID)
	if err != nil {
		return err
	}
	return ExportCSV(w, series)
}

// ExportJSONL writes one JSON object per tick.
func ExportJSONL(w io.Writer, series []world.TickStats) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, t := range series {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to encode tick %d: %w", t.Tick, err)
		}
	}
	return bw.Flush()
}

// ImportJSONL reads ticks written by ExportJSONL. Blank lines are skipped;
// a malformed line is an error naming its line number.
func ImportJSONL(r io.Reader) ([]world.TickStats, error) {
	scanner := bufio.NewScanner(r)
	var series []world.TickStats
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t world.TickStats
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		series = append(series, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return series, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/visualization"
	"github.com/nvandessel/desirepath/internal/world"
)

// recordBatch is the number of ticks buffered before writing to the store.
const recordBatch = 100

// runSummary is the result of a headless run.
type runSummary struct {
	RunID          string  `json:"run_id"`
	Seed           uint64  `json:"seed"`
	Ticks          int     `json:"ticks"`
	FinalMeanTrail float64 `json:"final_mean_trail"`
	CoveredCells   int     `json:"covered_cells"`
	Interrupted    bool    `json:"interrupted,omitempty"`
	OutDir         string  `json:"out_dir,omitempty"`

	stats []world.TickStats
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation headless and record it",
		Long: `Run a simulation for a fixed number of ticks without a display.

The per-tick statistics are recorded in the run store. With --out the
final snapshot, the mean trail series and a heatmap page are written to a
directory, and at debug or trace level every walker decision is traced to
decisions.jsonl there.

Examples:
  desirepath run --ticks 1000 --seed 42
  desirepath run --agents 50 --out ./run1 --log-level debug
  desirepath run --db :memory: --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outDir, _ := cmd.Flags().GetString("out")
			quiet, _ := cmd.Flags().GetBool("quiet")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			seed := resolveSeed(cfg)

			var decisions *logging.DecisionLogger
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				decisions = logging.NewDecisionLogger(outDir, cfg.Logging.Level)
				defer decisions.Close()
			}

			w, err := buildWorld(cfg, seed, world.WithLogger(logger), world.WithDecisionLogger(decisions))
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			summary, err := runAndRecord(ctx, w, s, seed, cfg.Run.Ticks)
			if err != nil {
				return err
			}
			logger.Info("run complete", "run", summary.RunID, "ticks", summary.Ticks, "mean_trail", summary.FinalMeanTrail)

			if outDir != "" {
				if err := writeOutputs(outDir, w, summary.stats); err != nil {
					return err
				}
				summary.OutDir = outDir
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (seed %d)\n", summary.RunID, summary.Seed)
			fmt.Fprintf(out, "  ticks:            %d\n", summary.Ticks)
			fmt.Fprintf(out, "  final mean trail: %.6f\n", summary.FinalMeanTrail)
			fmt.Fprintf(out, "  covered cells:    %d\n", summary.CoveredCells)
			if summary.Interrupted {
				fmt.Fprintln(out, "  (interrupted)")
			}
			if outDir != "" {
				fmt.Fprintf(out, "  output:           %s\n", outDir)
			}
			if !quiet {
				ascii, err := visualization.RenderASCII(w.Snapshot(), constants.LayerComposite)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprint(out, ascii)
			}
			return nil
		},
	}

	addWorldFlags(cmd)
	cmd.Flags().String("db", "", "Run database path (\":memory:\" to skip persisting)")
	cmd.Flags().String("out", "", "Directory for snapshot, series, heatmap and decision trace")
	cmd.Flags().Bool("quiet", false, "Do not print the final map")

	return cmd
}

// runAndRecord steps w for ticks ticks, recording statistics to s in
// batches. Cancellation stops the run early and is not an error.
func runAndRecord(ctx context.Context, w *world.World, s store.StatsStore, seed uint64, ticks int) (runSummary, error) {
	runID, err := s.CreateRun(ctx, store.Run{Seed: seed, Config: w.Config()})
	if err != nil {
		return runSummary{}, fmt.Errorf("failed to create run: %w", err)
	}

	all := make([]world.TickStats, 0, ticks)
	batch := make([]world.TickStats, 0, recordBatch)
	var recordErr error
	flush := func() {
		if len(batch) == 0 || recordErr != nil {
			return
		}
		recordErr = s.RecordTicks(context.WithoutCancel(ctx), runID, batch)
		batch = batch[:0]
	}

	runErr := w.Run(ctx, ticks, func(t world.TickStats) {
		all = append(all, t)
		batch = append(batch, t)
		if len(batch) == recordBatch {
			flush()
		}
	})
	flush()
	if recordErr != nil {
		return runSummary{}, fmt.Errorf("failed to record ticks: %w", recordErr)
	}

	interrupted := false
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			return runSummary{}, runErr
		}
		interrupted = true
	}

	final := w.Stats()
	return runSummary{
		RunID:          runID,
		Seed:           seed,
		Ticks:          w.Tick(),
		FinalMeanTrail: final.MeanTrail,
		CoveredCells:   final.CoveredCells,
		Interrupted:    interrupted,
		stats:          all,
	}, nil
}

// writeOutputs writes snapshot.json, series.csv and heatmap.html to dir.
func writeOutputs(dir string, w *world.World, stats []world.TickStats) error {
	snap := w.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snapshot.json"), data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "series.csv"))
	if err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	if err := store.ExportCSV(f, stats); err != nil {
		f.Close()
		return fmt.Errorf("write series: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	html, err := visualization.RenderHTML(snap, w.Series())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "heatmap.html"), html, 0644)
}

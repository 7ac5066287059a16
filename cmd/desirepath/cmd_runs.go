package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
		Long: `List, show, export, import and delete recorded runs.

Runs are referenced by id or by any unique prefix of it.

Examples:
  desirepath runs list
  desirepath runs show 3f2a
  desirepath runs export 3f2a --format csv -o series.csv
  desirepath runs delete 3f2a`,
	}

	cmd.PersistentFlags().String("db", "", "Run database path")

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsExportCmd(),
		newRunsImportCmd(),
		newRunsDeleteCmd(),
	)

	return cmd
}

// withStore loads the configuration, opens the run store and calls fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s store.StatsStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				runs, err := s.ListRuns(ctx)
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}

				if jsonOut {
					if runs == nil {
						runs = []store.Run{}
					}
					return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
				}

				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tSEED\tGRID\tWALKERS\tTICKS\tMEAN TRAIL")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%dx%d\t%d\t%s\t%.6f\n",
						shortID(r.ID),
						humanize.Time(r.CreatedAt),
						r.Seed,
						r.Config.Width, r.Config.Height,
						r.Config.NumAgents,
						humanize.Comma(int64(r.Ticks)),
						r.FinalMeanTrail)
				}
				return tw.Flush()
			})
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run>",
		Short: "Show a run's configuration and trail growth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				run, err := store.FindRun(ctx, s, args[0])
				if err != nil {
					return err
				}
				series, err := s.TickSeries(ctx, run.ID)
				if err != nil {
					return err
				}

				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
						"run":    run,
						"series": series,
					})
				}

				out := cmd.OutOrStdout()
				c := run.Config
				fmt.Fprintf(out, "Run %s\n", run.ID)
				fmt.Fprintf(out, "  created:   %s (%s)\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
				fmt.Fprintf(out, "  seed:      %d\n", run.Seed)
				fmt.Fprintf(out, "  grid:      %dx%d, %d trees, %d goals\n", c.Width, c.Height, c.NumTrees, c.NumGoals)
				fmt.Fprintf(out, "  walkers:   %d (max %d steps per goal)\n", c.NumAgents, c.MaxSteps)
				fmt.Fprintf(out, "  trail:     +%g per step, cap %g\n", c.TrailIncrement, c.TrailCap)
				fmt.Fprintf(out, "  ticks:     %s\n", humanize.Comma(int64(run.Ticks)))
				fmt.Fprintf(out, "  mean:      %.6f\n", run.FinalMeanTrail)
				if len(series) > 0 {
					means := make([]float64, len(series))
					for i, t := range series {
						means[i] = t.MeanTrail
					}
					fmt.Fprintf(out, "  growth:    %s\n", sparkline(means, 60))
				}
				return nil
			})
		},
	}
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws vals in at most width runes, sampling evenly.
func sparkline(vals []float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	n := min(width, len(vals))
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = min(lo, v), max(hi, v)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		v := vals[i*len(vals)/n]
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[idx])
	}
	return b.String()
}

func newRunsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run>",
		Short: "Export a run's per-tick statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if format != "csv" && format != "jsonl" {
				return fmt.Errorf("invalid format %q (valid: csv, jsonl)", format)
			}

			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				run, err := store.FindRun(ctx, s, args[0])
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}

				if format == "csv" {
					err = store.ExportRunCSV(ctx, s, run.ID, w)
				} else {
					ticks, terr := s.TickSeries(ctx, run.ID)
					if terr != nil {
						return terr
					}
					err = store.ExportJSONL(w, ticks)
				}
				if err != nil {
					return fmt.Errorf("failed to export run: %w", err)
				}
				if output != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported run %s to %s\n", shortID(run.ID), output)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("format", "csv", "Export format: csv or jsonl")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func newRunsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Import per-tick statistics exported as JSONL into a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			ticks, err := store.ImportJSONL(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			runID, err := s.CreateRun(ctx, store.Run{Seed: cfg.Run.Seed, Config: cfg.World.ToWorld()})
			if err != nil {
				return fmt.Errorf("failed to create run: %w", err)
			}
			if err := s.RecordTicks(ctx, runID, ticks); err != nil {
				return fmt.Errorf("failed to record ticks: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id": runID,
					"ticks":  len(ticks),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ticks as run %s\n", len(ticks), runID)
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "Seed to record with the imported run")

	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run>",
		Short: "Delete a run and its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				run, err := store.FindRun(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteRun(ctx, run.ID); err != nil {
					return fmt.Errorf("failed to delete run: %w", err)
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
						"status": "deleted",
						"run_id": run.ID,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/viewer"
	"github.com/nvandessel/desirepath/internal/world"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Animate a simulation in the terminal",
		Long: `Animate a simulation in the terminal.

Keys: q or Esc quits, space pauses, n steps once, + and - change speed.
With --record the ticks are saved to the run store like 'desirepath run'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			record, _ := cmd.Flags().GetBool("record")
			paused, _ := cmd.Flags().GetBool("paused")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			seed := resolveSeed(cfg)

			// The screen owns the terminal, so operational logs are dropped.
			w, err := buildWorld(cfg, seed)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			opts := []viewer.Option{
				viewer.WithInterval(cfg.Run.Interval),
				viewer.WithPaused(paused),
				viewer.WithTickLimit(cfg.Run.Ticks),
			}

			var (
				s     store.StatsStore
				runID string
				ticks []world.TickStats
			)
			if record {
				s, err = openStore(cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				runID, err = s.CreateRun(ctx, store.Run{Seed: seed, Config: w.Config()})
				if err != nil {
					return fmt.Errorf("failed to create run: %w", err)
				}
				opts = append(opts, viewer.WithOnTick(func(t world.TickStats) {
					ticks = append(ticks, t)
				}))
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialise terminal: %w", err)
			}
			runErr := viewer.New(screen, w, opts...).Run(ctx)
			screen.Fini()
			if runErr != nil {
				return runErr
			}

			if record {
				if err := s.RecordTicks(context.Background(), runID, ticks); err != nil {
					return fmt.Errorf("failed to record ticks: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s (seed %d, %d ticks)\n", runID, seed, len(ticks))
			}
			return nil
		},
	}

	addWorldFlags(cmd)
	cmd.Flags().Duration("interval", 0, "Delay between ticks (default from config)")
	cmd.Flags().Bool("paused", false, "Start paused")
	cmd.Flags().Bool("record", false, "Record the ticks to the run store")
	cmd.Flags().String("db", "", "Run database path")

	return cmd
}

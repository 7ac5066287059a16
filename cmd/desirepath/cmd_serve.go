package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/ratelimit"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/visualization"
	"github.com/nvandessel/desirepath/internal/world"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live heatmap of a running simulation",
		Long: `Start a local HTTP server that steps a simulation and shows it as a
heatmap in the browser.

Endpoints:
  /               heatmap page
  /api/snapshot   current state as JSON
  /api/series     mean trail per tick
  /api/step?n=N   advance N ticks and return their statistics

With --interval 0 the simulation only advances through /api/step. Step
requests are limited per client to --step-rate per second with bursts of
--step-burst; a zero rate disables the limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			stepRate, _ := cmd.Flags().GetFloat64("step-rate")
			stepBurst, _ := cmd.Flags().GetInt("step-burst")
			record, _ := cmd.Flags().GetBool("record")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			seed := resolveSeed(cfg)

			w, err := buildWorld(cfg, seed, world.WithLogger(logger))
			if err != nil {
				return err
			}

			opts := []visualization.ServerOption{
				visualization.WithInterval(cfg.Run.Interval),
				visualization.WithListenAddr(addr),
				visualization.WithServerLogger(logger),
			}
			if stepRate > 0 {
				if stepBurst < 1 {
					return fmt.Errorf("--step-burst must be at least 1")
				}
				opts = append(opts, visualization.WithStepLimiter(ratelimit.NewLimiter(stepRate, stepBurst)))
			}
			if record {
				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				runID, err := s.CreateRun(cmd.Context(), store.Run{Seed: seed, Config: w.Config()})
				if err != nil {
					return fmt.Errorf("failed to create run: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording run %s\n", runID)
				opts = append(opts, visualization.WithOnTick(recordEachTick(s, runID, logger)))
			}
			srv := visualization.NewServer(w, opts...)

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx) }()

			// Wait for server to start
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) && srv.Addr() == "" {
				select {
				case err := <-errCh:
					return fmt.Errorf("server error: %w", err)
				case <-time.After(10 * time.Millisecond):
				}
			}

			listening := srv.Addr()
			if listening == "" {
				return fmt.Errorf("server failed to start")
			}

			url := "http://" + listening
			fmt.Fprintf(cmd.OutOrStdout(), "Simulation (seed %d) running at %s\n", seed, url)
			fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

			if !noOpen {
				if err := visualization.OpenBrowser(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
				}
			}

			// Block until server exits
			if err := <-errCh; err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	addWorldFlags(cmd)
	cmd.Flags().String("addr", "localhost:0", "Listen address")
	cmd.Flags().Duration("interval", 0, "Delay between automatic ticks (default from config, 0 disables)")
	cmd.Flags().Bool("no-open", false, "Do not open a browser")
	cmd.Flags().Float64("step-rate", 5, "Step requests per second allowed per client (0 disables)")
	cmd.Flags().Int("step-burst", 10, "Step requests allowed in a burst")
	cmd.Flags().Bool("record", false, "Record every tick to the run store as it happens")

	return cmd
}

// recordEachTick writes each tick to the store as the server advances.
// Failures are logged and do not stop the simulation.
func recordEachTick(s store.StatsStore, runID string, logger *slog.Logger) func(world.TickStats) {
	return func(t world.TickStats) {
		if err := store.RecordTick(context.Background(), s, runID, t); err != nil {
			logger.Warn("failed to record tick", "run", runID, "tick", t.Tick, "error", err)
		}
	}
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/config"
	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/store"
	"github.com/nvandessel/desirepath/internal/world"
)

// loadConfig reads --config (or the default file plus environment
// overrides), applies the command's flags and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig loads --config, or the default locations, without command
// flags applied. A missing --config file yields the defaults so that
// 'config set' can create it.
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// addWorldFlags registers the flags that shape a generated world.
func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 0, "Grid width in cells")
	cmd.Flags().Int("height", 0, "Grid height in cells")
	cmd.Flags().Int("agents", 0, "Number of walkers")
	cmd.Flags().Int("trees", 0, "Number of trees")
	cmd.Flags().Int("goals", 0, "Number of goals")
	cmd.Flags().Int("max-steps", 0, "Ticks before a walker abandons its goal")
	cmd.Flags().Int("ticks", 0, "Ticks to run")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	ints := map[string]*int{
		"width":     &cfg.World.Width,
		"height":    &cfg.World.Height,
		"agents":    &cfg.World.NumAgents,
		"trees":     &cfg.World.NumTrees,
		"goals":     &cfg.World.NumGoals,
		"max-steps": &cfg.World.MaxSteps,
		"ticks":     &cfg.Run.Ticks,
	}
	for name, dst := range ints {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v, err := cmd.Flags().GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if f := cmd.Flags().Lookup("seed"); f != nil && f.Changed {
		cfg.Run.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if f := cmd.Flags().Lookup("interval"); f != nil && f.Changed {
		cfg.Run.Interval, _ = cmd.Flags().GetDuration("interval")
	}
	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		cfg.Store.Path, _ = cmd.Flags().GetString("db")
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return nil
}

// resolveSeed returns the configured seed, or a fresh one when it is zero.
func resolveSeed(cfg *config.Config) uint64 {
	if cfg.Run.Seed != 0 {
		return cfg.Run.Seed
	}
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// buildWorld generates a world from cfg with a PCG source seeded by seed.
func buildWorld(cfg *config.Config, seed uint64, opts ...world.Option) (*world.World, error) {
	rng := rand.New(rand.NewPCG(seed, seed))
	return world.New(cfg.World.ToWorld(), rng, opts...)
}

// openStore opens the configured run database.
func openStore(cfg *config.Config) (store.StatsStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return s, nil
}

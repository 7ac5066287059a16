// Package config provides unified configuration loading for desirepath.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/world"
)

// DirName is the per-user directory holding config.yaml and the run store.
const DirName = ".desirepath"

// Config contains all desirepath configuration settings.
type Config struct {
	// World holds the model parameters.
	World WorldConfig `json:"world" yaml:"world"`

	// Run controls how many ticks are simulated and how fast.
	Run RunConfig `json:"run" yaml:"run"`

	// Store configures where run statistics are recorded.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// WorldConfig mirrors world.Config with serialisation tags.
type WorldConfig struct {
	Width             int     `json:"width" yaml:"width"`
	Height            int     `json:"height" yaml:"height"`
	NumAgents         int     `json:"num_agents" yaml:"num_agents"`
	NumTrees          int     `json:"num_trees" yaml:"num_trees"`
	NumGoals          int     `json:"num_goals" yaml:"num_goals"`
	MaxSteps          int     `json:"max_steps" yaml:"max_steps"`
	TrailIncrement    float64 `json:"trail_increment" yaml:"trail_increment"`
	TrailCap          float64 `json:"trail_cap" yaml:"trail_cap"`
	ObstacleClearance int     `json:"obstacle_clearance" yaml:"obstacle_clearance"`
	GoalMinSeparation int     `json:"goal_min_separation" yaml:"goal_min_separation"`
}

// ToWorld converts to the model's configuration type.
func (w WorldConfig) ToWorld() world.Config {
	return world.Config{
		Width:             w.Width,
		Height:            w.Height,
		NumAgents:         w.NumAgents,
		NumTrees:          w.NumTrees,
		NumGoals:          w.NumGoals,
		MaxSteps:          w.MaxSteps,
		TrailIncrement:    w.TrailIncrement,
		TrailCap:          w.TrailCap,
		ObstacleClearance: w.ObstacleClearance,
		GoalMinSeparation: w.GoalMinSeparation,
	}
}

func fromWorld(c world.Config) WorldConfig {
	return WorldConfig{
		Width:             c.Width,
		Height:            c.Height,
		NumAgents:         c.NumAgents,
		NumTrees:          c.NumTrees,
		NumGoals:          c.NumGoals,
		MaxSteps:          c.MaxSteps,
		TrailIncrement:    c.TrailIncrement,
		TrailCap:          c.TrailCap,
		ObstacleClearance: c.ObstacleClearance,
		GoalMinSeparation: c.GoalMinSeparation,
	}
}

// RunConfig controls a simulation run.
type RunConfig struct {
	// Ticks is the number of ticks a run executes.
	Ticks int `json:"ticks" yaml:"ticks"`

	// Seed seeds the random source. Zero picks a seed from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Interval is the pause between ticks in the live viewer and server.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// StoreConfig configures the run statistics database.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means ~/.desirepath/runs.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures desirepath's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <out>/decisions.jsonl.
	// "trace" additionally writes every walker step to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		World: fromWorld(world.DefaultConfig()),
		Run: RunConfig{
			Ticks:    constants.DefaultTicks,
			Interval: constants.DefaultIntervalMillis * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns ~/.desirepath.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns ~/.desirepath/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StorePath returns the configured database path, defaulting to
// ~/.desirepath/runs.db.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return expandHome(c.Store.Path), nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runs.db"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.desirepath/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.World.ToWorld().Validate(); err != nil {
		return err
	}

	if c.Run.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Run.Ticks)
	}
	if c.Run.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", c.Run.Interval)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies DESIREPATH_* environment variables. Values that
// do not parse are ignored.
func applyEnvOverrides(config *Config) {
	ints := map[string]*int{
		"DESIREPATH_WIDTH":      &config.World.Width,
		"DESIREPATH_HEIGHT":     &config.World.Height,
		"DESIREPATH_NUM_AGENTS": &config.World.NumAgents,
		"DESIREPATH_NUM_TREES":  &config.World.NumTrees,
		"DESIREPATH_NUM_GOALS":  &config.World.NumGoals,
		"DESIREPATH_MAX_STEPS":  &config.World.MaxSteps,
		"DESIREPATH_TICKS":      &config.Run.Ticks,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v := os.Getenv("DESIREPATH_TRAIL_INCREMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.World.TrailIncrement = f
		}
	}

	if v := os.Getenv("DESIREPATH_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Run.Seed = n
		}
	}

	if v := os.Getenv("DESIREPATH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Run.Interval = d
		}
	}

	if v := os.Getenv("DESIREPATH_DB"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("DESIREPATH_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// Keys lists every dot-notation key accepted by Get and Set, in display order.
var Keys = []string{
	"world.width",
	"world.height",
	"world.num_agents",
	"world.num_trees",
	"world.num_goals",
	"world.max_steps",
	"world.trail_increment",
	"world.trail_cap",
	"world.obstacle_clearance",
	"world.goal_min_separation",
	"run.ticks",
	"run.seed",
	"run.interval",
	"store.path",
	"logging.level",
}

// Get retrieves a configuration value by dot-notation key.
func (c *Config) Get(key string) (any, bool) {
	switch key {
	case "world.width":
		return c.World.Width, true
	case "world.height":
		return c.World.Height, true
	case "world.num_agents":
		return c.World.NumAgents, true
	case "world.num_trees":
		return c.World.NumTrees, true
	case "world.num_goals":
		return c.World.NumGoals, true
	case "world.max_steps":
		return c.World.MaxSteps, true
	case "world.trail_increment":
		return c.World.TrailIncrement, true
	case "world.trail_cap":
		return c.World.TrailCap, true
	case "world.obstacle_clearance":
		return c.World.ObstacleClearance, true
	case "world.goal_min_separation":
		return c.World.GoalMinSeparation, true
	case "run.ticks":
		return c.Run.Ticks, true
	case "run.seed":
		return c.Run.Seed, true
	case "run.interval":
		return c.Run.Interval.String(), true
	case "store.path":
		return c.Store.Path, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Set parses value and stores it under key. The resulting configuration is
// validated; on failure the previous value is restored.
func (c *Config) Set(key, value string) error {
	prev := *c
	if err := c.set(key, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}

func (c *Config) set(key, value string) error {
	intField := map[string]*int{
		"world.width":               &c.World.Width,
		"world.height":              &c.World.Height,
		"world.num_agents":          &c.World.NumAgents,
		"world.num_trees":           &c.World.NumTrees,
		"world.num_goals":           &c.World.NumGoals,
		"world.max_steps":           &c.World.MaxSteps,
		"world.obstacle_clearance":  &c.World.ObstacleClearance,
		"world.goal_min_separation": &c.World.GoalMinSeparation,
		"run.ticks":                 &c.Run.Ticks,
	}
	if dst, ok := intField[key]; ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		*dst = n
		return nil
	}

	switch key {
	case "world.trail_increment", "world.trail_cap":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		if key == "world.trail_increment" {
			c.World.TrailIncrement = f
		} else {
			c.World.TrailCap = f
		}
	case "run.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		c.Run.Seed = n
	case "run.interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		c.Run.Interval = d
	case "store.path":
		c.Store.Path = value
	case "logging.level":
		switch lvl := strings.ToLower(value); lvl {
		case "info", "debug", "trace":
			c.Logging.Level = lvl
		default:
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", value)
		}
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

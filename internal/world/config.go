package world

import (
	"errors"
	"fmt"

	"github.com/nvandessel/desirepath/internal/constants"
)

// ErrInvalidConfig marks a configuration value outside its valid range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports a world that cannot be built from the given
// parameters or layout. Construction never returns a partial world.
type ConfigurationError struct {
	// Param names the offending knob or layout part, e.g. "num_trees".
	Param string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Param, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func invalid(param, format string, args ...any) error {
	return &ConfigurationError{
		Param: param,
		Err:   fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...),
	}
}

// Config holds every knob of the model.
type Config struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumAgents         int     `json:"num_agents"`
	NumTrees          int     `json:"num_trees"`
	NumGoals          int     `json:"num_goals"`
	MaxSteps          int     `json:"max_steps"`
	TrailIncrement    float64 `json:"trail_increment"`
	TrailCap          float64 `json:"trail_cap"`
	ObstacleClearance int     `json:"obstacle_clearance"`
	GoalMinSeparation int     `json:"goal_min_separation"`
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{
		Width:             constants.DefaultWidth,
		Height:            constants.DefaultHeight,
		NumAgents:         constants.DefaultNumAgents,
		NumTrees:          constants.DefaultNumTrees,
		NumGoals:          constants.DefaultNumGoals,
		MaxSteps:          constants.DefaultMaxSteps,
		TrailIncrement:    constants.DefaultTrailIncrement,
		TrailCap:          constants.DefaultTrailCap,
		ObstacleClearance: constants.DefaultObstacleClearance,
		GoalMinSeparation: constants.DefaultGoalMinSeparation,
	}
}

// Validate checks ranges. It does not check feasibility of placement; that
// is only known once placement has been attempted.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0:
		return invalid("width", "must be positive, got %d", c.Width)
	case c.Height <= 0:
		return invalid("height", "must be positive, got %d", c.Height)
	case c.NumAgents < 0:
		return invalid("num_agents", "must be non-negative, got %d", c.NumAgents)
	case c.NumTrees < 0:
		return invalid("num_trees", "must be non-negative, got %d", c.NumTrees)
	case c.NumGoals < 0:
		return invalid("num_goals", "must be non-negative, got %d", c.NumGoals)
	case c.MaxSteps <= 0:
		return invalid("max_steps", "must be positive, got %d", c.MaxSteps)
	case c.TrailIncrement < 0 || c.TrailIncrement > 1:
		return invalid("trail_increment", "must be in [0,1], got %g", c.TrailIncrement)
	case c.TrailCap <= 0 || c.TrailCap > 1:
		return invalid("trail_cap", "must be in (0,1], got %g", c.TrailCap)
	case c.ObstacleClearance < 0:
		return invalid("obstacle_clearance", "must be non-negative, got %d", c.ObstacleClearance)
	case c.GoalMinSeparation < 0:
		return invalid("goal_min_separation", "must be non-negative, got %d", c.GoalMinSeparation)
	}
	return nil
}

// Package constants provides named constants used throughout the desirepath codebase.
// This centralizes the model's default knobs and fixed tuning values.
package constants

// World extent and population defaults, matching the classic 50x50 meadow.
const (
	// DefaultWidth is the default grid width in cells.
	DefaultWidth = 50

	// DefaultHeight is the default grid height in cells.
	DefaultHeight = 50

	// DefaultNumAgents is the default number of walkers.
	DefaultNumAgents = 20

	// DefaultNumTrees is the default number of obstacle cells.
	DefaultNumTrees = 100

	// DefaultNumGoals is the number of destination cells walkers cycle between.
	DefaultNumGoals = 5
)

// Walker behaviour defaults.
const (
	// DefaultMaxSteps is the step budget after which a walker abandons its goal.
	DefaultMaxSteps = 100

	// DefaultTrailIncrement is the wear added to a cell each time a walker steps onto it.
	DefaultTrailIncrement = 0.1

	// DefaultTrailCap is the saturation value of trail wear.
	DefaultTrailCap = 1.0
)

// Placement constraints for static layers.
const (
	// DefaultObstacleClearance is the radius of the square around an obstacle
	// in which no other obstacle may be placed.
	DefaultObstacleClearance = 2

	// DefaultGoalMinSeparation is the minimum Chebyshev distance between goals.
	DefaultGoalMinSeparation = 5

	// MaxPlacementAttempts is the number of consecutive rejected samples after
	// which obstacle or goal placement gives up.
	MaxPlacementAttempts = 10000
)

// Terrain generation parameters.
const (
	// TerrainSigma is the spread of the Gaussian kernel used to smooth noise
	// into elevation.
	TerrainSigma = 3.0

	// TerrainTruncate is the kernel half-width expressed in multiples of sigma.
	TerrainTruncate = 4.0

	// SlopeCostFactor scales slope into step cost: cost = 1 + SlopeCostFactor*slope.
	SlopeCostFactor = 2.0
)

// Run defaults for the command line.
const (
	// DefaultTicks is the number of ticks a run executes.
	DefaultTicks = 500

	// DefaultIntervalMillis is the tick interval for live views.
	DefaultIntervalMillis = 100
)

package constants

// Layer names one of the world's renderable layers.
type Layer string

const (
	// LayerTerrain renders elevation.
	LayerTerrain Layer = "terrain"

	// LayerObstacles renders the obstacle mask.
	LayerObstacles Layer = "obstacles"

	// LayerTrail renders trail wear.
	LayerTrail Layer = "trail"

	// LayerComposite renders trail, obstacles, goals and walkers together.
	LayerComposite Layer = "composite"
)

// Valid returns true if the layer is a recognized value.
func (l Layer) Valid() bool {
	switch l {
	case LayerTerrain, LayerObstacles, LayerTrail, LayerComposite:
		return true
	}
	return false
}

// String returns the string representation of the layer.
func (l Layer) String() string {
	return string(l)
}

// Package terrain generates the static elevation surface and derives the
// cost of stepping between adjacent cells from its slope.
package terrain

import (
	"math"
	"math/rand/v2"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/grid"
)

// Field is an immutable elevation surface in [0,1].
type Field struct {
	elev *grid.Floats
}

// Generate samples uniform noise per cell, smooths it with a Gaussian kernel
// and rescales the result to [0,1].
func Generate(width, height int, rng *rand.Rand) *Field {
	noise := grid.NewFloats(width, height)
	vals := noise.Values()
	for i := range vals {
		vals[i] = rng.Float64()
	}
	smoothed := Smooth(noise, constants.TerrainSigma)
	normalize(smoothed)
	return &Field{elev: smoothed}
}

// Flat returns a surface with the same elevation everywhere, so every real
// step costs exactly 1.
func Flat(width, height int, elevation float64) *Field {
	g := grid.NewFloats(width, height)
	g.Fill(elevation)
	return &Field{elev: g}
}

// FromElevation wraps an explicit surface. The grid is copied.
func FromElevation(elev *grid.Floats) *Field {
	return &Field{elev: elev.Clone()}
}

// Size returns the extent of the surface.
func (f *Field) Size() grid.Size { return f.elev.Size }

// Elevation returns the elevation at p.
func (f *Field) Elevation(p grid.Point) float64 { return f.elev.At(p) }

// Cost returns the cost of stepping from a to b. Stepping in place is free;
// any real step costs at least 1 and grows with slope.
func (f *Field) Cost(a, b grid.Point) float64 {
	d := grid.Euclidean(a, b)
	if d == 0 {
		return 0
	}
	slope := math.Abs(f.elev.At(b)-f.elev.At(a)) / d
	return 1 + constants.SlopeCostFactor*slope
}

// Rows copies the surface into rows indexed [y][x].
func (f *Field) Rows() [][]float64 { return f.elev.Rows() }

// normalize linearly rescales g in place to [0,1]. A constant surface maps
// to all zeros.
func normalize(g *grid.Floats) {
	vals := g.Values()
	if len(vals) == 0 {
		return
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range vals {
		if span == 0 {
			vals[i] = 0
			continue
		}
		vals[i] = (v - lo) / span
	}
}

package terrain

import (
	"math"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/grid"
)

// Smooth applies a separable Gaussian blur with the given sigma. Borders are
// handled by half-sample reflection (d c b a | a b c d | d c b a), so the
// kernel may be wider than the grid.
func Smooth(src *grid.Floats, sigma float64) *grid.Floats {
	kernel := gaussianKernel(sigma)
	tmp := grid.NewFloats(src.W, src.H)
	out := grid.NewFloats(src.W, src.H)

	// Columns along x, then rows along y.
	convolve(src, tmp, kernel, func(p grid.Point, k int) grid.Point {
		return grid.Pt(reflect(p.X+k, src.W), p.Y)
	})
	convolve(tmp, out, kernel, func(p grid.Point, k int) grid.Point {
		return grid.Pt(p.X, reflect(p.Y+k, src.H))
	})
	return out
}

func convolve(src, dst *grid.Floats, kernel []float64, at func(grid.Point, int) grid.Point) {
	radius := len(kernel) / 2
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			p := grid.Pt(x, y)
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += kernel[k+radius] * src.At(at(p, k))
			}
			dst.Set(p, sum)
		}
	}
}

// gaussianKernel returns normalised weights for offsets -r..r where
// r = round(truncate*sigma).
func gaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(constants.TerrainTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var total float64
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		total += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}

// reflect folds i into [0,n) by repeated half-sample reflection.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

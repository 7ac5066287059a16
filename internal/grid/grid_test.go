package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistances(t *testing.T) {
	for _, tc := range []struct {
		name      string
		a, b      Point
		chebyshev int
		euclid    float64
	}{
		{"same cell", Pt(3, 3), Pt(3, 3), 0, 0},
		{"orthogonal", Pt(0, 0), Pt(0, 1), 1, 1},
		{"diagonal", Pt(0, 0), Pt(1, 1), 1, math.Sqrt2},
		{"long", Pt(0, 0), Pt(4, 4), 4, 4 * math.Sqrt2},
		{"asymmetric", Pt(2, 7), Pt(5, 3), 4, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.chebyshev, Chebyshev(tc.a, tc.b))
			assert.InDelta(t, tc.euclid, Euclidean(tc.a, tc.b), 1e-12)
			assert.Equal(t, Chebyshev(tc.a, tc.b), Chebyshev(tc.b, tc.a))
		})
	}
}

func TestNeighbors(t *testing.T) {
	s := Size{W: 5, H: 5}

	t.Run("interior has eight in fixed order", func(t *testing.T) {
		got := s.Neighbors(nil, Pt(2, 2))
		require.Len(t, got, 8)
		for i, off := range MooreOffsets {
			assert.Equal(t, Pt(2, 2).Add(off), got[i])
		}
	})

	t.Run("corner is clipped", func(t *testing.T) {
		got := s.Neighbors(nil, Pt(0, 0))
		assert.Equal(t, []Point{Pt(0, 1), Pt(1, 0), Pt(1, 1)}, got)
	})

	t.Run("edge is clipped", func(t *testing.T) {
		got := s.Neighbors(nil, Pt(4, 2))
		assert.Len(t, got, 5)
		for _, p := range got {
			assert.True(t, s.Contains(p), "%v out of bounds", p)
			assert.NotEqual(t, Pt(4, 2), p)
		}
	})

	t.Run("single cell grid has none", func(t *testing.T) {
		assert.Empty(t, Size{W: 1, H: 1}.Neighbors(nil, Pt(0, 0)))
	})
}

func TestFloatsRows(t *testing.T) {
	g := NewFloats(3, 2)
	g.Set(Pt(2, 1), 0.5)
	rows := g.Rows()
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 3)
	assert.Equal(t, 0.5, rows[1][2])

	rows[1][2] = 9
	assert.Equal(t, 0.5, g.At(Pt(2, 1)), "Rows must copy")
}

func TestBoolsAnyWithin(t *testing.T) {
	g := NewBools(10, 10)
	g.Set(Pt(5, 5), true)

	assert.True(t, g.AnyWithin(Pt(7, 7), 2))
	assert.True(t, g.AnyWithin(Pt(3, 5), 2))
	assert.False(t, g.AnyWithin(Pt(8, 5), 2))
	assert.False(t, g.AnyWithin(Pt(0, 0), 2))
	assert.True(t, g.AnyWithin(Pt(5, 5), 0))
}

func TestSizeIndexRoundTrip(t *testing.T) {
	s := Size{W: 7, H: 4}
	for i := 0; i < s.Cells(); i++ {
		assert.Equal(t, i, s.Index(s.At(i)))
	}
}

package trail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/desirepath/internal/grid"
)

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New(3, 3, -0.1, 1)
	assert.Error(t, err)
	_, err = New(3, 3, 0.1, 1.5)
	assert.Error(t, err)
	_, err = New(3, 3, 0.1, -1)
	assert.Error(t, err)
}

func TestDepositSaturates(t *testing.T) {
	f, err := New(3, 3, 0.1, 1.0)
	require.NoError(t, err)
	p := grid.Pt(1, 1)

	prev := 0.0
	for i := 0; i < 25; i++ {
		v := f.Deposit(p)
		assert.GreaterOrEqual(t, v, prev, "deposit %d decreased wear", i)
		assert.LessOrEqual(t, v, 1.0)
		prev = v
	}
	assert.Equal(t, 1.0, f.Strength(p))
	assert.Equal(t, 0.0, f.Strength(grid.Pt(0, 0)))
}

func TestDepositLowCap(t *testing.T) {
	f, err := New(2, 2, 0.3, 0.5)
	require.NoError(t, err)
	f.Deposit(grid.Pt(0, 0))
	assert.InDelta(t, 0.3, f.Strength(grid.Pt(0, 0)), 1e-12)
	assert.Equal(t, 0.5, f.Deposit(grid.Pt(0, 0)))
}

func TestAggregates(t *testing.T) {
	f, err := New(2, 2, 0.5, 1.0)
	require.NoError(t, err)
	assert.Zero(t, f.Mean())
	assert.Zero(t, f.Covered())

	f.Deposit(grid.Pt(0, 0))
	f.Deposit(grid.Pt(0, 0))
	f.Deposit(grid.Pt(1, 1))

	assert.InDelta(t, 1.5/4, f.Mean(), 1e-12)
	assert.Equal(t, 1.0, f.Max())
	assert.Equal(t, 2, f.Covered())

	rows := f.Rows()
	assert.Equal(t, [][]float64{{1, 0}, {0, 0.5}}, rows)
}

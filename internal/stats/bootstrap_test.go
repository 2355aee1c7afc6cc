package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePool(n int) []float64 {
	pool := make([]float64, n)
	for i := range pool {
		if i%2 == 0 {
			pool[i] = 0.001
		} else {
			pool[i] = -0.0008
		}
	}
	return pool
}

func TestBootstrapAnnualReturns_RequiresMinimumPool(t *testing.T) {
	_, err := BootstrapAnnualReturns(samplePool(49), 100, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBootstrapAnnualReturns_Deterministic(t *testing.T) {
	pool := samplePool(252)

	d1, err := BootstrapAnnualReturns(pool, 500, 42)
	require.NoError(t, err)
	d2, err := BootstrapAnnualReturns(pool, 500, 42)
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "identical seed and inputs must reproduce identical percentiles")
}

func TestBootstrapAnnualReturns_MonotonePercentiles(t *testing.T) {
	pool := samplePool(300)
	d, err := BootstrapAnnualReturns(pool, 1000, 7)
	require.NoError(t, err)

	assert.LessOrEqual(t, d.P5, d.P25)
	assert.LessOrEqual(t, d.P25, d.P50)
	assert.LessOrEqual(t, d.P50, d.P75)
	assert.LessOrEqual(t, d.P75, d.P95)
}

func TestBootstrapAnnualReturns_ClampsIterationsToMax(t *testing.T) {
	pool := samplePool(100)
	d, err := BootstrapAnnualReturns(pool, 10_000, 1)
	require.NoError(t, err)
	assert.Equal(t, maxBootstrapIters, d.Iterations)
}

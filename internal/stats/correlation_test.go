package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonCorrelation_PerfectPositive(t *testing.T) {
	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i) * 2
	}
	assert.InDelta(t, 1.0, PearsonCorrelation(x, y), 1e-9)
}

func TestPearsonCorrelation_BelowMinimumOverlapIsZero(t *testing.T) {
	x := make([]float64, 10)
	y := make([]float64, 10)
	assert.Equal(t, 0.0, PearsonCorrelation(x, y))
}

func TestPearsonCorrelation_ZeroVarianceIsZero(t *testing.T) {
	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = 1.0
		y[i] = float64(i)
	}
	assert.Equal(t, 0.0, PearsonCorrelation(x, y))
}

func datedSeries(n int, lagDays int, rng *rand.Rand) ([]DatedReturn, []DatedReturn) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bench := make([]DatedReturn, n)
	pos := make([]DatedReturn, n)
	for i := 0; i < n; i++ {
		date := base.AddDate(0, 0, i)
		r := rng.Float64()*0.02 - 0.01
		bench[i] = DatedReturn{Date: date, Return: r}
		pos[i] = DatedReturn{Date: date.AddDate(0, 0, -lagDays), Return: r}
	}
	return pos, bench
}

func TestCorrelationWithLagSearch_FindsInjectedLag(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pos, bench := datedSeries(80, -1, rng)

	result := CorrelationWithLagSearch(pos, bench)
	assert.Equal(t, -1, result.Lag)
	assert.Greater(t, result.Correlation, 0.9)
}

func TestCorrelationWithLagSearch_ZeroLagWhenAligned(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pos, bench := datedSeries(80, 0, rng)

	result := CorrelationWithLagSearch(pos, bench)
	assert.Equal(t, 0, result.Lag)
}

func TestBeta_SelfCorrelationIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	_, bench := datedSeries(80, 0, rng)

	beta, lag, err := Beta(bench, bench)
	require.NoError(t, err)
	assert.Equal(t, 0, lag)
	assert.InDelta(t, 1.0, beta, 1e-9)
}

func TestBeta_InsufficientOverlap(t *testing.T) {
	_, _, err := Beta(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

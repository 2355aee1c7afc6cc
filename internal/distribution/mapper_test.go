package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_MuIsMedian(t *testing.T) {
	p := Derive(Quintuple{P5: -0.3, P25: -0.05, P50: 0.08, P75: 0.22, P95: 0.45})
	assert.Equal(t, 0.08, p.Mu)
}

func TestDerive_SigmaClampedToMinimum(t *testing.T) {
	p := Derive(Quintuple{P5: 0, P25: 0.10, P50: 0.10, P75: 0.10, P95: 0.10})
	assert.Equal(t, 0.01, p.Sigma)
}

func TestDerive_SkewWithinBounds(t *testing.T) {
	p := Derive(Quintuple{P5: -0.9, P25: -0.1, P50: 0.05, P75: 0.15, P95: 0.95})
	assert.GreaterOrEqual(t, p.Skew, -1.0)
	assert.LessOrEqual(t, p.Skew, 1.0)
}

func TestDerive_TailDfWithinBounds(t *testing.T) {
	p := Derive(Quintuple{P5: -0.5, P25: -0.1, P50: 0.1, P75: 0.25, P95: 0.6})
	assert.GreaterOrEqual(t, p.TailDf, 3.0)
	assert.LessOrEqual(t, p.TailDf, 30.0)
}

func TestDerive_SymmetricQuintupleHasZeroSkew(t *testing.T) {
	p := Derive(Quintuple{P5: -0.4, P25: -0.1, P50: 0.1, P75: 0.3, P95: 0.6})
	assert.InDelta(t, 0.0, p.Skew, 1e-9)
}

func TestDerive_DegenerateQuintupleFallsBackToDefaults(t *testing.T) {
	p := Derive(Quintuple{P5: math.NaN(), P25: math.NaN(), P50: math.NaN(), P75: math.NaN(), P95: math.NaN()})
	assert.Equal(t, DefaultMu, p.Mu)
	assert.Equal(t, DefaultSigma, p.Sigma)
	assert.Equal(t, DefaultSkew, p.Skew)
	assert.Equal(t, DefaultTailDf, p.TailDf)
}

package simulate

import (
	"math/rand"
	"testing"

	"github.com/aristath/portfolio-risk-engine/internal/distribution"
	"github.com/stretchr/testify/assert"
)

func TestSample_ZeroSigmaSingleAssetReturnsExactMu(t *testing.T) {
	cholesky := [][]float64{{1}}
	params := []distribution.Params{{Mu: 0.15, Sigma: 0, Skew: 0, TailDf: 30}}
	stream := &pseudoRandomStream{rng: rand.New(rand.NewSource(1))}

	sampler := NewPathSampler(cholesky, params, FatTailGaussian, []float64{1}, 0, 0, 0.1, stream)

	for i := 0; i < 20; i++ {
		result := sampler.Sample()
		assert.InDelta(t, 0.15, result.TerminalReturn, 1e-12)
	}
}

func TestSample_ZeroSigmaMultiAssetReturnsWeightedMu(t *testing.T) {
	cholesky := [][]float64{
		{1, 0},
		{0.3, 0.95393920141694566},
	}
	params := []distribution.Params{
		{Mu: 0.10, Sigma: 0, Skew: 0, TailDf: 30},
		{Mu: 0.20, Sigma: 0, Skew: 0, TailDf: 30},
	}
	stream := &pseudoRandomStream{rng: rand.New(rand.NewSource(7))}
	sampler := NewPathSampler(cholesky, params, FatTailGaussian, []float64{0.5, 0.5}, 0, 0, 0.1, stream)

	for i := 0; i < 20; i++ {
		result := sampler.Sample()
		assert.InDelta(t, 0.15, result.TerminalReturn, 1e-12)
	}
}

func TestSample_IncludesCashContribution(t *testing.T) {
	cholesky := [][]float64{{1}}
	params := []distribution.Params{{Mu: 0.10, Sigma: 0, Skew: 0, TailDf: 30}}
	stream := &pseudoRandomStream{rng: rand.New(rand.NewSource(3))}

	sampler := NewPathSampler(cholesky, params, FatTailGaussian, []float64{0.5}, 0.5, 0.04, 0.1, stream)
	result := sampler.Sample()

	assert.InDelta(t, 0.5*0.10+0.5*0.04, result.TerminalReturn, 1e-12)
}

func TestSample_ResultsStayWithinClipBounds(t *testing.T) {
	cholesky := [][]float64{{1}}
	params := []distribution.Params{{Mu: 0.10, Sigma: 5, Skew: 0.5, TailDf: 5}}
	stream := &pseudoRandomStream{rng: rand.New(rand.NewSource(11))}

	sampler := NewPathSampler(cholesky, params, FatTailMultivariateT, []float64{1}, 0, 0, 0.2, stream)

	for i := 0; i < 200; i++ {
		result := sampler.Sample()
		assert.GreaterOrEqual(t, result.TerminalReturn, -1.0)
		assert.LessOrEqual(t, result.TerminalReturn, 10.0)
		assert.GreaterOrEqual(t, result.MaxDrawdown, 0.0)
		assert.LessOrEqual(t, result.MaxDrawdown, 1.0)
	}
}

func TestSample_DeterministicForSameSeed(t *testing.T) {
	cholesky := [][]float64{{1, 0}, {0.2, 0.98}}
	params := []distribution.Params{
		{Mu: 0.08, Sigma: 0.18, Skew: -0.2, TailDf: 8},
		{Mu: 0.12, Sigma: 0.25, Skew: 0.1, TailDf: 12},
	}

	run := func() []PathResult {
		stream := &pseudoRandomStream{rng: rand.New(rand.NewSource(99))}
		sampler := NewPathSampler(cholesky, params, FatTailMultivariateT, []float64{0.6, 0.4}, 0, 0, 0.15, stream)
		results := make([]PathResult, 50)
		for i := range results {
			results[i] = sampler.Sample()
		}
		return results
	}

	assert.Equal(t, run(), run())
}

func TestUniformsPerPath_ReservesExtraForMultivariateT(t *testing.T) {
	gaussian := uniformsPerPath(3, FatTailGaussian)
	studentT := uniformsPerPath(3, FatTailMultivariateT)

	assert.Equal(t, 2*3+2, gaussian)
	assert.Equal(t, 2*3+2+2*maxChiSquaredWhole, studentT)
}

func TestSkewTransform_ZeroSkewIsIdentity(t *testing.T) {
	assert.InDelta(t, 1.23, skewTransform(1.23, 0), 1e-9)
}

func TestClampFloat_NaNBecomesZero(t *testing.T) {
	assert.Equal(t, 0.0, clampFloat(nanValue(), -1, 1))
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

package simulate

import (
	"math"
	"math/rand"

	"github.com/aristath/portfolio-risk-engine/internal/distribution"
)

// PathResult is the output of a single simulated path.
type PathResult struct {
	TerminalReturn float64
	MaxDrawdown    float64
}

// uniformStream produces successive batches of independent U(0,1) draws.
// PseudoRandom and QMC sampling modes are both expressed through this
// interface so the sampler's algorithm is identical either way.
type uniformStream interface {
	Floats(n int) []float64
}

type pseudoRandomStream struct {
	rng *rand.Rand
}

func (s *pseudoRandomStream) Floats(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.rng.Float64()
	}
	return out
}

type sobolStream struct {
	seq *SobolSequence
}

func (s *sobolStream) Floats(n int) []float64 {
	return s.seq.Next()
}

// maxChiSquaredWhole bounds the degrees of freedom the Student-t scaling
// step ever sums over (tailDf is clamped to [3,30] by the distribution
// mapper), so a fixed uniform budget can be reserved for it per path
// without breaking determinism by reaching for an unseeded global RNG.
const maxChiSquaredWhole = 30

// uniformsPerPath is 2N for the Box-Muller pairs that build the N
// correlated normals, plus 2 more for the independent drawdown-proxy
// draw, plus a fixed reserve for the Student-t chi-squared draw when the
// run uses multivariate-t tails.
func uniformsPerPath(n int, fatTailMode FatTailMode) int {
	base := 2*n + 2
	if fatTailMode == FatTailMultivariateT {
		base += 2 * maxChiSquaredWhole
	}
	return base
}

// PathSampler draws terminal-return / max-drawdown pairs for one asset
// set, given its Cholesky factor and per-asset distribution parameters.
type PathSampler struct {
	n               int
	cholesky        [][]float64
	params          []distribution.Params
	fatTailMode     FatTailMode
	positionWeights []float64
	cashWeight      float64
	cashRate        float64
	portfolioVol    float64
	stream          uniformStream
}

// NewPathSampler builds a sampler for a fixed asset set and run config.
// stream supplies the uniform draws; construct a pseudoRandomStream or
// sobolStream sized for uniformsPerPath(n, fatTailMode) floats per call.
func NewPathSampler(
	cholesky [][]float64,
	params []distribution.Params,
	fatTailMode FatTailMode,
	positionWeights []float64,
	cashWeight, cashRate, portfolioVol float64,
	stream uniformStream,
) *PathSampler {
	return &PathSampler{
		n:               len(params),
		cholesky:        cholesky,
		params:          params,
		fatTailMode:     fatTailMode,
		positionWeights: positionWeights,
		cashWeight:      cashWeight,
		cashRate:        cashRate,
		portfolioVol:    portfolioVol,
		stream:          stream,
	}
}

// clipRange returns the step-4 clip bounds, which differ by fat-tail mode.
func (p *PathSampler) clipRange() (lo, hi float64) {
	if p.fatTailMode == FatTailMultivariateT {
		return -8, 8
	}
	return -6, 6
}

// Sample draws one path and returns its terminal return and drawdown proxy.
func (p *PathSampler) Sample() PathResult {
	n := p.n
	u := p.stream.Floats(uniformsPerPath(n, p.fatTailMode))

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		z0, _ := boxMuller(u[2*i], u[2*i+1])
		z[i] = z0
	}

	x := correlate(p.cholesky, z)

	if p.fatTailMode == FatTailMultivariateT {
		chiUniforms := u[2*n+2:]
		x = applyStudentT(x, p.params, chiUniforms)
	}

	lo, hi := p.clipRange()
	for i := range x {
		x[i] = clampFloat(x[i], lo, hi)
	}

	for i := range x {
		skew := p.params[i].Skew
		if math.Abs(skew) > 0.01 {
			x[i] = skewTransform(x[i], skew)
		}
	}

	returns := make([]float64, n)
	for i := range x {
		r := p.params[i].Mu + x[i]*p.params[i].Sigma
		returns[i] = clampFloat(r, -1, 10)
	}

	var portfolioReturn float64
	for i, w := range p.positionWeights {
		portfolioReturn += w * returns[i]
	}
	portfolioReturn += p.cashWeight * p.cashRate
	portfolioReturn = clampFloat(portfolioReturn, -1, 10)

	ddZ0, _ := boxMuller(u[2*n], u[2*n+1])
	drawdown := clampFloat(p.portfolioVol*math.Abs(ddZ0)*0.8, 0, 1)

	return PathResult{TerminalReturn: portfolioReturn, MaxDrawdown: drawdown}
}

// boxMuller converts two U(0,1) draws into two independent standard
// normals. A u1 <= 0 is floored to 1e-12 here to avoid log(0).
func boxMuller(u1, u2 float64) (z0, z1 float64) {
	if u1 <= 0 {
		u1 = 1e-12
	}
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	return r * math.Cos(theta), r * math.Sin(theta)
}

// correlate applies x = L*z for lower-triangular L.
func correlate(l [][]float64, z []float64) []float64 {
	n := len(z)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += l[i][j] * z[j]
		}
		x[i] = sum
	}
	return x
}

// applyStudentT scales x by the multivariate Student-t factor for the
// minimum finite tailDf below 30. The joint product of the chi-squared
// scale and the variance-correction term slightly biases the resulting
// variance; preserved here for contract fidelity with the documented
// per-asset return bounds rather than "corrected" to a cleaner formula.
func applyStudentT(x []float64, params []distribution.Params, chiUniforms []float64) []float64 {
	minDf := math.Inf(1)
	for _, p := range params {
		if p.TailDf < minDf {
			minDf = p.TailDf
		}
	}
	if minDf >= 30 {
		return x
	}

	df := minDf
	chi2 := sampleChiSquared(df, chiUniforms)
	if chi2 <= 0 {
		return x
	}

	scale := math.Sqrt(df / chi2)
	varianceCorrection := 1.0
	if df > 2 {
		varianceCorrection = math.Sqrt((df - 2) / df)
	}

	factor := scale * varianceCorrection
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * factor
	}
	return out
}

// sampleChiSquared draws one chi-squared variate with the given degrees
// of freedom, as a sum of df squared standard normals drawn from the
// path's own uniform stream (never an unseeded global source, so shard
// determinism holds). For df > 100 a Gaussian approximation
// df + sqrt(2df)*z is used instead; tailDf is clamped to [3,30] upstream
// so that branch is unreachable in practice but kept for contract fidelity.
func sampleChiSquared(df float64, uniforms []float64) float64 {
	if df > 100 {
		z0, _ := boxMuller(uniforms[0], uniforms[1])
		return df + math.Sqrt(2*df)*z0
	}
	var sum float64
	whole := int(df)
	for i := 0; i < whole; i++ {
		z0, _ := boxMuller(uniforms[2*i], uniforms[2*i+1])
		sum += z0 * z0
	}
	return sum
}

// skewTransform applies the documented skew transform for delta derived
// from the asset's skew parameter.
func skewTransform(v, skew float64) float64 {
	delta := skew / math.Sqrt(1+skew*skew)
	return v*math.Sqrt(1-delta*delta) + delta*math.Abs(v) - delta*math.Sqrt(2/math.Pi)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

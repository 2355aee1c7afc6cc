// Package distribution derives the per-asset (μ,σ,skew,tailDf) parameters
// the path sampler needs, from either a user-supplied percentile quintuple
// or a bootstrapped annual-return distribution.
package distribution

import (
	"math"

	"github.com/aristath/portfolio-risk-engine/internal/stats"
)

// Default fallback parameters, used whenever an intermediate computation
// is non-finite.
const (
	DefaultMu     = 0.10
	DefaultSigma  = 0.20
	DefaultSkew   = 0.0
	DefaultTailDf = 30.0
)

// MinSigma is the lower clamp bound Derive enforces on σ; it doubles as
// the near-zero volatility used for positions treated as cash (see
// Config.GldAsCash).
const MinSigma = 0.01

// Params are the path sampler's per-asset inputs.
type Params struct {
	Mu     float64
	Sigma  float64
	Skew   float64
	TailDf float64
}

// Quintuple is a user- or bootstrap-derived percentile summary.
type Quintuple struct {
	P5, P25, P50, P75, P95 float64
}

// FromBootstrap converts a bootstrap distribution into a Quintuple.
func FromBootstrap(d stats.BootstrapDistribution) Quintuple {
	return Quintuple{P5: d.P5, P25: d.P25, P50: d.P50, P75: d.P75, P95: d.P95}
}

// Derive maps a percentile quintuple to path-sampler parameters, clamping
// each output to its contractual bound and falling back to the documented
// defaults when an intermediate value is non-finite.
func Derive(q Quintuple) Params {
	mu := clamp(q.P50, -1, 5)

	sigma := clamp(math.Abs(q.P75-q.P25)/1.35, 0.01, 2)

	skewDenominator := (q.P95 - q.P50) + (q.P50 - q.P5) + 1e-3
	skew := 1.5 * ((q.P95 - q.P50) - (q.P50 - q.P5)) / skewDenominator
	skew = clamp(skew, -1, 1)

	tailDf := DefaultTailDf
	denom := math.Max(0.8, (q.P95-q.P5)/(2*1.645*sigma))
	if denom > 0 {
		tailDf = clamp(math.Round(30/denom), 3, 30)
	}

	p := Params{Mu: mu, Sigma: sigma, Skew: skew, TailDf: tailDf}
	return fallbackNonFinite(p)
}

func fallbackNonFinite(p Params) Params {
	if !finite(p.Mu) {
		p.Mu = DefaultMu
	}
	if !finite(p.Sigma) {
		p.Sigma = DefaultSigma
	}
	if !finite(p.Skew) {
		p.Skew = DefaultSkew
	}
	if !finite(p.TailDf) {
		p.TailDf = DefaultTailDf
	}
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package matrix builds, shrinks, repairs, and factorises the portfolio
// correlation matrix that feeds the path sampler.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/portfolio-risk-engine/internal/stats"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch means the matrix size does not match the number of
// positions it is supposed to describe.
var ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

// minTargetOverlap is the 1-year trading-day count used as the
// "adequate overlap" target when annotating pairwise coverage.
const minTargetOverlap = 252

// Matrix is an N×N correlation matrix in portfolio-position order.
type Matrix struct {
	N        int
	Values   [][]float64
	Overlaps [][]int // pairwise sample count used to build each cell
}

// Build constructs the correlation matrix from each position's lag-aligned
// daily returns, using pairwise maximum overlap between every pair.
func Build(returns [][]float64) (*Matrix, []string) {
	n := len(returns)
	values := make([][]float64, n)
	overlaps := make([][]int, n)
	var warnings []string

	for i := range values {
		values[i] = make([]float64, n)
		overlaps[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		values[i][i] = 1.0
		overlaps[i][i] = len(returns[i])
		for j := i + 1; j < n; j++ {
			corr := stats.PearsonCorrelation(returns[i], returns[j])
			overlap := len(returns[i])
			if len(returns[j]) < overlap {
				overlap = len(returns[j])
			}
			if overlap < minTargetOverlap {
				warnings = append(warnings, fmt.Sprintf(
					"pair (%d,%d) overlap %d below target %d", i, j, overlap, minTargetOverlap))
			}
			values[i][j] = corr
			values[j][i] = corr
			overlaps[i][j] = overlap
			overlaps[j][i] = overlap
		}
	}

	return &Matrix{N: n, Values: values, Overlaps: overlaps}, warnings
}

// ewmaLambda is the standard RiskMetrics daily decay factor: each
// observation is weighted lambda^age relative to the most recent one.
const ewmaLambda = 0.94

// BuildEWMA is Build's recency-weighted counterpart: every pairwise
// correlation is computed with stats.EWMACorrelation instead of an
// equal-weighted Pearson coefficient, so a recent correlation regime
// shift dominates the matrix instead of being diluted by the full
// lookback window.
func BuildEWMA(returns [][]float64) (*Matrix, []string) {
	n := len(returns)
	values := make([][]float64, n)
	overlaps := make([][]int, n)
	var warnings []string

	for i := range values {
		values[i] = make([]float64, n)
		overlaps[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		values[i][i] = 1.0
		overlaps[i][i] = len(returns[i])
		for j := i + 1; j < n; j++ {
			corr := stats.EWMACorrelation(returns[i], returns[j], ewmaLambda)
			overlap := len(returns[i])
			if len(returns[j]) < overlap {
				overlap = len(returns[j])
			}
			if overlap < minTargetOverlap {
				warnings = append(warnings, fmt.Sprintf(
					"pair (%d,%d) overlap %d below target %d", i, j, overlap, minTargetOverlap))
			}
			values[i][j] = corr
			values[j][i] = corr
			overlaps[i][j] = overlap
			overlaps[j][i] = overlap
		}
	}

	return &Matrix{N: n, Values: values, Overlaps: overlaps}, warnings
}

// Shrink applies Σ̂ = (1-α)·S + α·I, pulling every off-diagonal entry
// toward zero by the fixed factor α. Per the spec, α = 0.3 is used when no
// Ledoit-Wolf estimator is supplied; that is the only estimator this
// module implements, since no ecosystem package in the corpus provides
// one.
func (m *Matrix) Shrink(alpha float64) {
	if alpha <= 0 {
		return
	}
	for i := 0; i < m.N; i++ {
		for j := 0; j < m.N; j++ {
			if i == j {
				continue
			}
			m.Values[i][j] = (1 - alpha) * m.Values[i][j]
		}
	}
}

// SetLowerTriangle writes a user edit to cell (i,j), i>j, and mirrors it
// to (j,i). The diagonal is never editable.
func (m *Matrix) SetLowerTriangle(i, j int, value float64) error {
	if i == j {
		return fmt.Errorf("matrix: diagonal is fixed at 1.0")
	}
	if i < j {
		i, j = j, i
	}
	if i >= m.N || j < 0 {
		return ErrDimensionMismatch
	}
	m.Values[i][j] = value
	m.Values[j][i] = value
	return nil
}

// Repair projects the matrix to the nearest symmetric positive-semidefinite
// matrix by eigen-decomposition, clamping negative eigenvalues to zero,
// then clamps off-diagonal entries into [-0.99, 0.99].
func (m *Matrix) Repair() error {
	n := m.N
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.Values[i][j])
		}
	}

	var eigen mat.EigenSym
	if ok := eigen.Factorize(sym, true); !ok {
		return fmt.Errorf("matrix: eigen decomposition failed")
	}

	values := eigen.Values(nil)
	clamped := false
	for i, v := range values {
		if v < 0 {
			values[i] = 0
			clamped = true
		}
	}

	if clamped {
		var vectors mat.Dense
		eigen.VectorsTo(&vectors)

		diag := mat.NewDiagDense(n, values)
		var tmp, repaired mat.Dense
		tmp.Mul(&vectors, diag)
		repaired.Mul(&tmp, vectors.T())

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m.Values[i][j] = repaired.At(i, j)
			}
		}
	}

	for i := 0; i < n; i++ {
		m.Values[i][i] = 1.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.Values[i][j] = clampFloat(m.Values[i][j], -0.99, 0.99)
		}
	}

	return nil
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

// Cholesky factorises the (already-repaired) matrix into a lower
// triangular L such that L·Lᵀ ≈ Σ. Callers must re-repair and retry if
// this returns an error.
func (m *Matrix) Cholesky() ([][]float64, error) {
	n := m.N
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.Values[i][j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("matrix: cholesky factorization failed, repair required")
	}

	var lower mat.TriDense
	chol.LTo(&lower)

	l := make([][]float64, n)
	for i := 0; i < n; i++ {
		l[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			l[i][j] = lower.At(i, j)
		}
	}
	return l, nil
}

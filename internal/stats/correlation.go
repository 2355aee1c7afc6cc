package stats

import (
	"math"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"gonum.org/v1/gonum/stat"
)

const minCorrelationOverlap = 30

// DatedReturn pairs a daily return with the date of its later price.
type DatedReturn struct {
	Date   time.Time
	Return float64
}

// DailyReturnsDated is DailyReturns with the date of each return attached,
// needed to align two series by calendar date rather than by index.
func DailyReturnsDated(points []provider.PricePoint) []DatedReturn {
	if len(points) < 2 {
		return nil
	}
	out := make([]DatedReturn, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Close, points[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, DatedReturn{
			Date:   points[i].Timestamp,
			Return: (cur - prev) / prev,
		})
	}
	return out
}

// PearsonCorrelation aligns x and y by their longest common trailing
// window and returns the Pearson coefficient. Requires at least 30
// overlapping points; returns 0 when either series has zero variance.
func PearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < minCorrelationOverlap {
		return 0
	}
	xs := x[len(x)-n:]
	ys := y[len(y)-n:]
	if stat.StdDev(xs, nil) == 0 || stat.StdDev(ys, nil) == 0 {
		return 0
	}
	return stat.Correlation(xs, ys, nil)
}

// EWMACorrelation is PearsonCorrelation's recency-weighted counterpart:
// the same trailing-window alignment and minimum-overlap rule, but each
// observation is weighted by lambda^age (age 0 = most recent) before the
// weighted means, variances, and covariance are formed, so a recent
// regime shift dominates a correlation built over a long lookback window.
func EWMACorrelation(x, y []float64, lambda float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < minCorrelationOverlap {
		return 0
	}
	xs := x[len(x)-n:]
	ys := y[len(y)-n:]

	weights := make([]float64, n)
	var wSum float64
	w := 1.0
	for age := 0; age < n; age++ {
		weights[n-1-age] = w
		wSum += w
		w *= lambda
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += weights[i] * xs[i]
		meanY += weights[i] * ys[i]
	}
	meanX /= wSum
	meanY /= wSum

	var varX, varY, cov float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		varX += weights[i] * dx * dx
		varY += weights[i] * dy * dy
		cov += weights[i] * dx * dy
	}
	if varX <= 0 || varY <= 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// LaggedCorrelationResult reports the lag that produced the strongest
// correlation between a position's returns and the benchmark's.
type LaggedCorrelationResult struct {
	Correlation float64
	Lag         int // -1, 0, or +1
	Overlap     int
}

// CorrelationWithLagSearch aligns position and benchmark returns by
// calendar date, then tries lag in {-1, 0, +1} — lag -1 means the position
// reacts to the benchmark's prior-day close — and returns the lag with
// the highest absolute correlation.
func CorrelationWithLagSearch(position, benchmark []DatedReturn) LaggedCorrelationResult {
	benchByDate := make(map[string]float64, len(benchmark))
	for _, b := range benchmark {
		benchByDate[dateKey(b.Date)] = b.Return
	}

	var best LaggedCorrelationResult
	for _, lag := range []int{-1, 0, 1} {
		var xs, ys []float64
		for _, p := range position {
			shifted := p.Date.AddDate(0, 0, lag)
			if br, ok := benchByDate[dateKey(shifted)]; ok {
				xs = append(xs, p.Return)
				ys = append(ys, br)
			}
		}
		if len(xs) < minCorrelationOverlap {
			continue
		}
		corr := PearsonCorrelation(xs, ys)
		if math.Abs(corr) > math.Abs(best.Correlation) || best.Overlap == 0 {
			best = LaggedCorrelationResult{Correlation: corr, Lag: lag, Overlap: len(xs)}
		}
	}
	return best
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Beta computes cov(position, benchmark)/var(benchmark) on lag-aligned,
// date-matched return arrays. A benchmark correlated with itself always
// returns beta 1.
func Beta(position, benchmark []DatedReturn) (float64, int, error) {
	result := CorrelationWithLagSearch(position, benchmark)
	if result.Overlap < minCorrelationOverlap {
		return 0, 0, ErrInsufficientData
	}

	benchByDate := make(map[string]float64, len(benchmark))
	for _, b := range benchmark {
		benchByDate[dateKey(b.Date)] = b.Return
	}

	var xs, ys []float64
	for _, p := range position {
		shifted := p.Date.AddDate(0, 0, result.Lag)
		if br, ok := benchByDate[dateKey(shifted)]; ok {
			xs = append(xs, p.Return)
			ys = append(ys, br)
		}
	}

	variance := stat.Variance(ys, nil)
	if variance == 0 {
		return 0, result.Lag, ErrInsufficientData
	}

	return stat.Covariance(xs, ys, nil) / variance, result.Lag, nil
}

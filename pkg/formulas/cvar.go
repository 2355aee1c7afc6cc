package formulas

import "sort"

// CalculateCVaR calculates Conditional Value at Risk (CVaR) at the
// specified confidence level: the average return across the worst
// (1-confidence) tail of the sample.
//
// Args:
//
//	returns: Historical returns (can be negative for losses)
//	confidence: Confidence level (e.g., 0.95 for 95%)
//
// Returns:
//
//	CVaR value (negative for losses)
func CalculateCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}
	if len(returns) == 1 {
		return returns[0]
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	tailProbability := 1.0 - confidence
	tailCount := int(float64(len(sorted))*tailProbability + 0.999999)
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	tailReturns := sorted[:tailCount]
	var sum float64
	for _, r := range tailReturns {
		sum += r
	}

	return sum / float64(len(tailReturns))
}

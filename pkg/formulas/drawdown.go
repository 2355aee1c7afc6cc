package formulas

import "math"

// CalculateMaxDrawdown calculates the maximum drawdown from a price series
//
// Drawdown Formula:
//   Drawdown = (Peak Value - Current Value) / Peak Value
//   Max Drawdown = Maximum of all drawdowns
//
// Args:
//   prices: Array of prices (daily, adjusted close)
//
// Returns:
//   Maximum drawdown as positive percentage (0.25 = 25% loss from peak) or nil
func CalculateMaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		// Update peak
		if price > peak {
			peak = price
		}

		// Calculate drawdown from peak
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return &maxDrawdown
}

// CalculateUlcerIndex calculates the Ulcer Index (downside risk measure)
// Measures depth and duration of drawdowns
func CalculateUlcerIndex(prices []float64, period int) *float64 {
	if len(prices) < period {
		return nil
	}

	// Get last 'period' prices
	window := prices[len(prices)-period:]

	// Calculate squared drawdowns
	peak := window[0]
	sumSquaredDrawdowns := 0.0

	for _, price := range window {
		if price > peak {
			peak = price
		}

		if peak > 0 {
			drawdown := (peak - price) / peak
			sumSquaredDrawdowns += drawdown * drawdown
		}
	}

	// Ulcer Index is the square root of the mean of squared drawdowns
	ulcer := math.Sqrt(sumSquaredDrawdowns / float64(period))
	return &ulcer
}

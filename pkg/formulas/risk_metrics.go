package formulas

// RiskMetrics is the per-symbol enrichment reported by /api/risk-metrics,
// combining the Sharpe/Sortino/CVaR/Ulcer Index helpers in this package.
// Every field is nil when the underlying price history is too short.
type RiskMetrics struct {
	Symbol      string   `json:"symbol"`
	Sharpe      *float64 `json:"sharpe"`
	Sortino     *float64 `json:"sortino"`
	CVaR95      *float64 `json:"cvar95"`
	MaxDrawdown *float64 `json:"maxDrawdown"`
	UlcerIndex  *float64 `json:"ulcerIndex"`
}

const riskMetricsRiskFreeRate = 0.0

// ComputeRiskMetrics derives Sharpe, Sortino, CVaR(95%), max drawdown, and
// the Ulcer Index from an ordered, adjusted-close price series.
func ComputeRiskMetrics(symbol string, prices []float64) RiskMetrics {
	m := RiskMetrics{Symbol: symbol}

	m.Sharpe = CalculateSharpeFromPrices(prices, riskMetricsRiskFreeRate)

	if len(prices) >= 2 {
		returns := CalculateReturns(prices)
		sortino := CalculateSortinoRatio(returns, riskMetricsRiskFreeRate, 0, 252)
		m.Sortino = sortino

		cvar := CalculateCVaR(returns, 0.95)
		m.CVaR95 = &cvar
	}

	m.MaxDrawdown = CalculateMaxDrawdown(prices)

	ulcerPeriod := len(prices)
	if ulcerPeriod > 252 {
		ulcerPeriod = 252
	}
	if ulcerPeriod >= 2 {
		m.UlcerIndex = CalculateUlcerIndex(prices, ulcerPeriod)
	}

	return m
}

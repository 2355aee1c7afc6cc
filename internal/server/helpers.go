package server

import (
	"hash/fnv"
	"strconv"
	"time"

	"github.com/aristath/portfolio-risk-engine/pkg/formulas"
)

// timeNow is the injection point for "now" in volatility/YTD calculations.
func timeNow() time.Time {
	return time.Now().UTC()
}

// symbolSeed derives a stable PRNG seed from a symbol so that bootstrap
// distributions for the same symbol are reproducible across requests
// without a caller-supplied seed, yet differ across symbols.
func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64())
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// formulasRiskMetrics adapts pkg/formulas.ComputeRiskMetrics to the JSON
// envelope /api/risk-metrics returns.
func formulasRiskMetrics(symbol string, prices []float64) formulas.RiskMetrics {
	return formulas.ComputeRiskMetrics(symbol, prices)
}

package server

import (
	"net/http"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/matrix"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"github.com/aristath/portfolio-risk-engine/internal/stats"
)

// correlationResult is the cached, JSON-encodable shape behind
// /api/correlation; it is what cache.GetOrCompute persists.
type correlationResult struct {
	Symbols    []string    `json:"symbols"`
	Matrix     [][]float64 `json:"matrix"`
	Warnings   []string    `json:"warnings,omitempty"`
	PointsUsed int         `json:"pointsUsed"`
	AsOf       time.Time   `json:"asOf"`
}

// handleCorrelation implements
// GET /api/correlation?symbols=<csv>&range=5y&interval=1d.
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if len(symbols) < 2 {
		s.writeError(w, http.StatusBadRequest, "correlation requires at least 2 symbols")
		return
	}

	rng := provider.Range(queryOr(r, "range", string(provider.Range5Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}
	interval := queryOr(r, "interval", "1d")

	canonical := cache.CanonicalSymbols(symbols)
	key := cache.Key(cache.NSCorrelationMatrix, string(rng), interval, cache.JoinSymbols(canonical))

	result, source, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSCorrelationMatrix),
		func() (correlationResult, error) {
			return s.computeCorrelation(canonical, rng)
		})
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":    result.Symbols,
		"matrix":     result.Matrix,
		"range":      string(rng),
		"interval":   interval,
		"pointsUsed": result.PointsUsed,
		"asOf":       result.AsOf,
		"cached":     source == cache.SourceCache,
		"source":     string(source),
	})
}

func (s *Server) computeCorrelation(symbols []string, rng provider.Range) (correlationResult, error) {
	returns := make([][]float64, len(symbols))
	minPoints := -1

	for i, symbol := range symbols {
		series, _, err := s.provider.FetchSeries(symbol, rng)
		if err != nil {
			return correlationResult{}, err
		}
		daily := stats.DailyReturns(series.Points)
		returns[i] = daily
		if minPoints == -1 || len(daily) < minPoints {
			minPoints = len(daily)
		}
	}

	m, warnings := matrix.Build(returns)

	return correlationResult{
		Symbols:    symbols,
		Matrix:     m.Values,
		Warnings:   warnings,
		PointsUsed: minPoints,
		AsOf:       time.Now().UTC(),
	}, nil
}

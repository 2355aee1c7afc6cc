package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"github.com/aristath/portfolio-risk-engine/internal/stats"
	"github.com/aristath/portfolio-risk-engine/pkg/formulas"
)

// handleFx implements GET /api/fx?pairs=<csv of 6-letter pairs>.
func (s *Server) handleFx(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("pairs")
	if strings.TrimSpace(raw) == "" {
		s.writeError(w, http.StatusBadRequest, "missing required parameter: pairs")
		return
	}

	out := make([]map[string]interface{}, 0)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.ToUpper(strings.TrimSpace(pair))
		if len(pair) != 6 {
			out = append(out, map[string]interface{}{"pair": pair, "error": "pair must be 6 letters, e.g. EURUSD"})
			continue
		}
		from, to := pair[:3], pair[3:]

		rate, err := s.provider.FetchFx(from, to)
		if err != nil {
			out = append(out, map[string]interface{}{"pair": pair, "error": err.Error()})
			continue
		}
		out = append(out, map[string]interface{}{
			"pair":          pair,
			"from":          rate.From,
			"to":            rate.To,
			"rate":          rate.Rate,
			"previousClose": rate.Rate,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

// betaResult is the cached, JSON-encodable shape behind /api/beta.
type betaResult struct {
	Beta        float64   `json:"beta"`
	Correlation float64   `json:"correlation"`
	PointsUsed  int       `json:"pointsUsed"`
	AsOf        time.Time `json:"asOf"`
}

// handleBeta implements GET /api/beta?symbols=<csv>&benchmark=SPY&range=1y.
func (s *Server) handleBeta(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	benchmark := queryOr(r, "benchmark", defaultBenchmark)
	rng := provider.Range(queryOr(r, "range", string(provider.Range1Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		key := cache.Key(cache.NSBeta, string(rng), benchmark, symbol)
		result, _, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSBeta), func() (betaResult, error) {
			return s.computeBeta(symbol, benchmark, rng)
		})
		if errors.Is(err, stats.ErrInsufficientData) {
			out = append(out, map[string]interface{}{
				"symbol": symbol, "error": "insufficient overlapping data", "minRequired": 30,
			})
			continue
		}
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}

		out = append(out, map[string]interface{}{
			"symbol":      symbol,
			"benchmark":   benchmark,
			"beta":        result.Beta,
			"correlation": result.Correlation,
			"range":       string(rng),
			"interval":    "1d",
			"pointsUsed":  result.PointsUsed,
			"asOf":        result.AsOf,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) computeBeta(symbol, benchmark string, rng provider.Range) (betaResult, error) {
	benchSeries, _, err := s.provider.FetchSeries(benchmark, rng)
	if err != nil {
		return betaResult{}, err
	}
	benchReturns := stats.DailyReturnsDated(benchSeries.Points)

	series, _, err := s.provider.FetchSeries(symbol, rng)
	if err != nil {
		return betaResult{}, err
	}
	posReturns := stats.DailyReturnsDated(series.Points)

	beta, overlap, err := stats.Beta(posReturns, benchReturns)
	if err != nil {
		return betaResult{}, err
	}

	lagged := stats.CorrelationWithLagSearch(posReturns, benchReturns)

	return betaResult{
		Beta:        beta,
		Correlation: lagged.Correlation,
		PointsUsed:  overlap,
		AsOf:        time.Now().UTC(),
	}, nil
}

// volatilityResult is the cached, JSON-encodable shape behind
// /api/volatility.
type volatilityResult struct {
	AnnualizedVol   float64   `json:"annualizedVol"`
	YTDReturn       float64   `json:"ytdReturn"`
	OneYearReturn   float64   `json:"oneYearReturn"`
	ThirtyDayReturn float64   `json:"thirtyDayReturn"`
	PointsUsed      int       `json:"pointsUsed"`
	AsOf            time.Time `json:"asOf"`
}

// handleVolatility implements GET /api/volatility?symbols=<csv>&range=1y.
func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	rng := provider.Range(queryOr(r, "range", string(provider.Range1Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		key := cache.Key(cache.NSVolatility, string(rng), symbol)
		result, _, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSVolatility), func() (volatilityResult, error) {
			return s.computeVolatility(symbol, rng)
		})
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}

		out = append(out, map[string]interface{}{
			"symbol":          symbol,
			"annualizedVol":   result.AnnualizedVol,
			"ytdReturn":       result.YTDReturn,
			"oneYearReturn":   result.OneYearReturn,
			"thirtyDayReturn": result.ThirtyDayReturn,
			"pointsUsed":      result.PointsUsed,
			"asOf":            result.AsOf,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) computeVolatility(symbol string, rng provider.Range) (volatilityResult, error) {
	series, _, err := s.provider.FetchSeries(symbol, rng)
	if err != nil {
		return volatilityResult{}, err
	}

	daily := stats.DailyReturns(series.Points)
	annualVol, err := stats.AnnualizedVolatility(daily)
	if err != nil {
		return volatilityResult{}, errors.New("insufficient data for volatility")
	}

	ytd, _ := stats.YTDReturn(series.Points, timeNow())
	oneYear, _ := stats.OneYearReturn(series.Points)
	thirtyDay, _ := stats.ThirtyDayReturn(series.Points)

	return volatilityResult{
		AnnualizedVol:   annualVol,
		YTDReturn:       ytd,
		OneYearReturn:   oneYear,
		ThirtyDayReturn: thirtyDay,
		PointsUsed:      len(series.Points),
		AsOf:            time.Now().UTC(),
	}, nil
}

// distributionResult is the cached, JSON-encodable shape behind
// /api/distribution.
type distributionResult struct {
	P5, P25, P50, P75, P95 float64
	BootstrapCount         int
	PointsUsed             int
	AsOf                   time.Time
}

// handleDistribution implements
// GET /api/distribution?symbols=<csv>&range=5y&bootstrap=<1..2000>.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	rng := provider.Range(queryOr(r, "range", string(provider.Range5Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}
	iterations := queryInt(r, "bootstrap", s.cfg.DefaultBootstrapIterations)

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		key := cache.Key(cache.NSDistribution, string(rng), symbol, strconv.Itoa(iterations))
		result, _, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSDistribution), func() (distributionResult, error) {
			return s.computeDistribution(symbol, rng, iterations)
		})
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}

		out = append(out, map[string]interface{}{
			"symbol":         symbol,
			"p5":             result.P5,
			"p25":            result.P25,
			"p50":            result.P50,
			"p75":            result.P75,
			"p95":            result.P95,
			"bootstrapCount": result.BootstrapCount,
			"pointsUsed":     result.PointsUsed,
			"asOf":           result.AsOf,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) computeDistribution(symbol string, rng provider.Range, iterations int) (distributionResult, error) {
	series, _, err := s.provider.FetchSeries(symbol, rng)
	if err != nil {
		return distributionResult{}, err
	}

	pool := stats.LogReturns(series.Points)
	dist, err := stats.BootstrapAnnualReturns(pool, iterations, symbolSeed(symbol))
	if err != nil {
		return distributionResult{}, errors.New("insufficient data for bootstrap")
	}

	return distributionResult{
		P5: dist.P5, P25: dist.P25, P50: dist.P50, P75: dist.P75, P95: dist.P95,
		BootstrapCount: dist.Iterations,
		PointsUsed:     len(pool),
		AsOf:           time.Now().UTC(),
	}, nil
}

// calendarReturnsResult is the cached, JSON-encodable shape behind
// /api/calendar-returns.
type calendarReturnsResult struct {
	Years      map[string]float64 `json:"years"`
	PointsUsed int                `json:"pointsUsed"`
	AsOf       time.Time          `json:"asOf"`
}

// handleCalendarReturns implements
// GET /api/calendar-returns?symbols=<csv>&range=10y.
func (s *Server) handleCalendarReturns(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	rng := provider.Range(queryOr(r, "range", string(provider.Range10Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		key := cache.Key(cache.NSCalendarReturns, string(rng), symbol)
		result, _, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSCalendarReturns), func() (calendarReturnsResult, error) {
			return s.computeCalendarReturns(symbol, rng)
		})
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}

		out = append(out, map[string]interface{}{
			"symbol":     symbol,
			"years":      result.Years,
			"pointsUsed": result.PointsUsed,
			"asOf":       result.AsOf,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) computeCalendarReturns(symbol string, rng provider.Range) (calendarReturnsResult, error) {
	series, _, err := s.provider.FetchSeries(symbol, rng)
	if err != nil {
		return calendarReturnsResult{}, err
	}

	years := make(map[string]float64)
	for _, cy := range stats.CalendarYearReturns(series.Points) {
		years[itoa(cy.Year)] = cy.Return
	}

	return calendarReturnsResult{
		Years:      years,
		PointsUsed: len(series.Points),
		AsOf:       time.Now().UTC(),
	}, nil
}

// handleRiskMetrics implements GET /api/risk-metrics?symbols=<csv>&range=1y.
func (s *Server) handleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	rng := provider.Range(queryOr(r, "range", string(provider.Range1Y)))
	if !rng.Valid() {
		s.writeError(w, http.StatusBadRequest, "invalid range parameter")
		return
	}

	out := make([]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		key := cache.Key(cache.NSRiskMetrics, string(rng), symbol)
		result, _, err := cache.GetOrCompute(s.cache, key, cache.TTLFor(cache.NSRiskMetrics), func() (formulas.RiskMetrics, error) {
			return s.computeRiskMetrics(symbol, rng)
		})
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		out = append(out, result)
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) computeRiskMetrics(symbol string, rng provider.Range) (formulas.RiskMetrics, error) {
	series, _, err := s.provider.FetchSeries(symbol, rng)
	if err != nil {
		return formulas.RiskMetrics{}, err
	}
	prices := make([]float64, len(series.Points))
	for i, p := range series.Points {
		prices[i] = p.Close
	}
	return formulasRiskMetrics(symbol, prices), nil
}

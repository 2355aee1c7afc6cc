package server

import (
	"net/http"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
)

// handlePrices implements GET /api/prices?symbols=<csv>&range=<enum>&interval=1d[&currency=USD].
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
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
	targetCurrency := queryOr(r, "currency", "")

	result := make(map[string]interface{}, len(symbols))
	fxSummary := make(map[string]interface{})

	for _, symbol := range symbols {
		series, src, err := s.provider.FetchSeries(symbol, rng)
		if err != nil {
			result[symbol] = map[string]interface{}{"error": err.Error()}
			continue
		}

		timestamps := make([]int64, len(series.Points))
		prices := make([]float64, len(series.Points))
		for i, p := range series.Points {
			timestamps[i] = p.Timestamp.Unix()
			prices[i] = p.Close
		}

		entry := map[string]interface{}{
			"currency":   series.Currency,
			"timestamps": timestamps,
			"prices":     prices,
			"cached":     src == cache.SourceCache,
			"meta": map[string]interface{}{
				"instrumentType": "equity",
			},
		}

		if targetCurrency != "" && targetCurrency != series.Currency {
			fx, fxErr := s.provider.FetchFx(series.Currency, targetCurrency)
			if fxErr != nil {
				entry["fxError"] = fxErr.Error()
			} else {
				converted := make([]float64, len(prices))
				for i, p := range prices {
					converted[i] = p * fx.Rate
				}
				entry["localCurrency"] = series.Currency
				entry["localPrices"] = prices
				entry["prices"] = converted
				entry["currency"] = targetCurrency
				entry["fxRate"] = fx.Rate
				entry["fxTimestamp"] = fx.AsOf.Unix()
				fxSummary[series.Currency+targetCurrency] = fx.Rate
			}
		}

		result[symbol] = entry
	}

	if len(fxSummary) > 0 {
		result["_fx"] = fxSummary
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleQuotes implements GET /api/quotes?symbols=<csv>[&currency=USD].
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		quote, src, err := s.provider.FetchQuote(symbol)
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		out = append(out, map[string]interface{}{
			"symbol":        quote.Symbol,
			"price":         quote.Price,
			"previousClose": quote.PreviousClose,
			"name":          quote.Name,
			"type":          quote.Type,
			"currency":      quote.Currency,
			"cached":        src == cache.SourceCache,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

// handleProfile implements GET /api/profile?symbols=<csv>.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	symbols, errMsg := parseSymbols(r)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	out := make([]map[string]interface{}, 0, len(symbols))
	for _, symbol := range symbols {
		profile, err := s.provider.FetchProfile(symbol)
		if err != nil {
			out = append(out, map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		out = append(out, map[string]interface{}{
			"symbol":    profile.Symbol,
			"sector":    profile.Sector,
			"industry":  profile.Industry,
			"longName":  profile.Name,
			"shortName": profile.Name,
			"quoteType": profile.QuoteType,
			"country":   profile.Country,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

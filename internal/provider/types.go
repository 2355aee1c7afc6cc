// Package provider adapts upstream market-data and FX sources into the
// normalised shapes the statistics and matrix engines consume, with a
// cache sitting inline on every read.
package provider

import (
	"errors"
	"time"
)

// ErrNotFound means the upstream source has no data for the requested
// symbol/range; callers must not retry and must not cache the miss.
var ErrNotFound = errors.New("provider: not found")

// ErrTransient means the upstream call failed for a reason that may
// succeed on retry (timeout, 5xx, rate limit). Never cached.
var ErrTransient = errors.New("provider: transient upstream failure")

// Range enumerates the historical windows fetchSeries accepts.
type Range string

const (
	Range6Mo Range = "6mo"
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
	Range3Y  Range = "3y"
	Range5Y  Range = "5y"
	Range10Y Range = "10y"
)

// Lookback returns the wall-clock duration a Range spans, used to compute
// the `from` bound passed to the upstream chart endpoint.
func (r Range) Lookback() time.Duration {
	const day = 24 * time.Hour
	switch r {
	case Range6Mo:
		return 183 * day
	case Range1Y:
		return 365 * day
	case Range2Y:
		return 2 * 365 * day
	case Range3Y:
		return 3 * 365 * day
	case Range5Y:
		return 5 * 365 * day
	case Range10Y:
		return 10 * 365 * day
	default:
		return 365 * day
	}
}

// Valid reports whether r is one of the enumerated ranges.
func (r Range) Valid() bool {
	switch r {
	case Range6Mo, Range1Y, Range2Y, Range3Y, Range5Y, Range10Y:
		return true
	}
	return false
}

// PricePoint is one day-aligned UTC close.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// PriceSeries is the normalised shape every downstream component consumes.
type PriceSeries struct {
	Symbol   string       `json:"symbol"`
	Currency string       `json:"currency"`
	Points   []PricePoint `json:"points"`
	Meta     SeriesMeta   `json:"meta"`
}

// SeriesMeta carries provenance the statistics kernel does not need but
// callers above it (HTTP facade, logs) find useful.
type SeriesMeta struct {
	Range       Range     `json:"range"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Quote is a real-time price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previousClose"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Currency      string  `json:"currency"`
}

// Profile is slow-changing descriptive metadata.
type Profile struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	Country   string `json:"country"`
	QuoteType string `json:"quoteType"`
}

// FxRate is a spot conversion rate.
type FxRate struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Rate  float64   `json:"rate"`
	AsOf  time.Time `json:"asOf"`
}

package yahoo

import "time"

// HistoricalPrice represents a single OHLCV data point from the chart
// endpoint, used to build the daily/log return series the statistics and
// matrix components depend on.
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// QuoteData represents the subset of a real-time quote the risk engine
// cares about: the price it samples around and the currency it is quoted
// in (needed to align a multi-currency portfolio).
type QuoteData struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice,omitempty"`
	Currency           *string  `json:"currency,omitempty"`
	MarketState        *string  `json:"marketState,omitempty"`
	LongName           *string  `json:"longName,omitempty"`
	ShortName          *string  `json:"shortName,omitempty"`
	QuoteType          *string  `json:"quoteType,omitempty"`
}

// ProfileData is the slow-changing descriptive metadata for a security.
type ProfileData struct {
	Symbol           string  `json:"symbol"`
	LongName         *string `json:"longName,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	Exchange         *string `json:"fullExchangeName,omitempty"`
	Country          *string `json:"country,omitempty"`
	Industry         *string `json:"industry,omitempty"`
	Sector           *string `json:"sector,omitempty"`
	QuoteType        *string `json:"quoteType,omitempty"`
}

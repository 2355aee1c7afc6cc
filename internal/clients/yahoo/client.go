package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// HTTPError is returned when the upstream responds with a non-200 status.
// The status code lets callers distinguish a definitive miss (404) from a
// transient failure (5xx, 429) without string-matching error text.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("yahoo: upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Client is a market-data client speaking the Yahoo Finance chart/quote
// wire format. It is the concrete implementation behind the provider
// package's upstream interface; the provider layer owns caching and
// symbol canonicalization, this client owns nothing but HTTP and JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a client against baseURL (e.g. https://query1.finance.yahoo.com).
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetHistoricalPrices fetches the daily OHLCV series for symbol over
// [from, to]. Bars with a nil close (market holidays inside the range,
// fetched-but-unsettled days) are skipped rather than zero-filled.
func (c *Client) GetHistoricalPrices(symbol string, from, to time.Time) ([]HistoricalPrice, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.Unix()))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	var parsed chartResponse
	if err := c.getJSON(reqURL+"?"+params.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("chart API error for %s: %v", symbol, parsed.Chart.Error)}
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("no chart data for %s", symbol)}
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no OHLCV indicators for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]HistoricalPrice, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := HistoricalPrice{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bar.AdjClose = bar.Close
		if i < len(adjClose) && adjClose[i] != nil {
			bar.AdjClose = *adjClose[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuote fetches a real-time quote snapshot for symbol.
func (c *Client) GetQuote(symbol string) (*QuoteData, error) {
	info, err := c.getQuoteFields(symbol, "symbol,regularMarketPrice,currency,marketState,longName,shortName,quoteType")
	if err != nil {
		return nil, err
	}

	return &QuoteData{
		Symbol:             symbol,
		RegularMarketPrice: getFloat64(info, "regularMarketPrice"),
		Currency:           getStringPtr(info, "currency"),
		MarketState:        getStringPtr(info, "marketState"),
		LongName:           getStringPtr(info, "longName"),
		ShortName:          getStringPtr(info, "shortName"),
		QuoteType:          getStringPtr(info, "quoteType"),
	}, nil
}

// GetProfile fetches slow-changing descriptive metadata for symbol.
func (c *Client) GetProfile(symbol string) (*ProfileData, error) {
	info, err := c.getQuoteFields(symbol,
		"symbol,longName,currency,fullExchangeName,country,industry,sector,quoteType")
	if err != nil {
		return nil, err
	}

	return &ProfileData{
		Symbol:    symbol,
		LongName:  getStringPtr(info, "longName"),
		Currency:  getStringPtr(info, "currency"),
		Exchange:  getStringPtr(info, "fullExchangeName"),
		Country:   getStringPtr(info, "country"),
		Industry:  getStringPtr(info, "industry"),
		Sector:    getStringPtr(info, "sector"),
		QuoteType: getStringPtr(info, "quoteType"),
	}, nil
}

func (c *Client) getQuoteFields(symbol, fields string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("fields", fields)

	var parsed quoteResponse
	reqURL := fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, params.Encode())
	if err := c.getJSON(reqURL, &parsed); err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}

	if parsed.QuoteResponse.Error != nil {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("quote API error for %s: %v", symbol, parsed.QuoteResponse.Error)}
	}
	if len(parsed.QuoteResponse.Result) == 0 {
		return nil, &HTTPError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("no quote data for %s", symbol)}
	}

	return parsed.QuoteResponse.Result[0], nil
}

func (c *Client) getJSON(reqURL string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getStringPtr(m map[string]interface{}, key string) *string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

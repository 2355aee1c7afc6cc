package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FxClient speaks the exchangerate-api.com "latest" wire format:
// GET {baseURL}/{base} -> {"base": "USD", "date": "2024-01-02", "rates": {"EUR": 0.91, ...}}.
type FxClient struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewFxClient creates an FX client against baseURL.
func NewFxClient(baseURL string, log zerolog.Logger) *FxClient {
	return &FxClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.With().Str("client", "fx").Logger(),
	}
}

type fxLatestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// GetRate returns the spot rate to convert 1 unit of from into to.
func (c *FxClient) GetRate(from, to string) (*FxRate, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return &FxRate{From: from, To: to, Rate: 1.0, AsOf: time.Now().UTC()}, nil
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, from)
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fx request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read fx response: %v", ErrTransient, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: no fx rates for base %s", ErrNotFound, from)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fx API returned status %d: %s", ErrTransient, resp.StatusCode, string(body))
	}

	var parsed fxLatestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode fx response: %w", err)
	}

	rate, ok := parsed.Rates[to]
	if !ok {
		return nil, fmt.Errorf("%w: no rate for %s/%s", ErrNotFound, from, to)
	}

	asOf, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		asOf = time.Now().UTC()
	}

	return &FxRate{From: from, To: to, Rate: rate, AsOf: asOf}, nil
}

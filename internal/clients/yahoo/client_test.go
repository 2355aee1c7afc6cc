package yahoo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient(url, zerolog.Nop())
}

func TestGetHistoricalPrices_ParsesBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"chart": map[string]interface{}{
				"result": []map[string]interface{}{
					{
						"timestamp": []int64{1700000000, 1700086400},
						"indicators": map[string]interface{}{
							"quote": []map[string]interface{}{
								{
									"open":   []float64{190.0, 191.0},
									"high":   []float64{192.0, 193.0},
									"low":    []float64{189.0, 190.0},
									"close":  []float64{191.5, 192.5},
									"volume": []int64{1000, 1100},
								},
							},
							"adjclose": []map[string]interface{}{
								{"adjclose": []float64{191.0, 192.0}},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	bars, err := testClient(server.URL).GetHistoricalPrices("AAPL", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 191.0, bars[0].AdjClose)
	assert.Equal(t, 192.5, bars[1].Close)
}

func TestGetHistoricalPrices_SkipsNilCloses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"chart": map[string]interface{}{
				"result": []map[string]interface{}{
					{
						"timestamp": []int64{1700000000, 1700086400},
						"indicators": map[string]interface{}{
							"quote": []map[string]interface{}{
								{"close": []interface{}{nil, 100.0}},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	bars, err := testClient(server.URL).GetHistoricalPrices("AAPL", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 100.0, bars[0].Close)
}

func TestGetHistoricalPrices_NotFoundOnEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"chart": map[string]interface{}{"result": []map[string]interface{}{}},
		})
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetHistoricalPrices("NOPE", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestGetQuote_ParsesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"quoteResponse": map[string]interface{}{
				"result": []map[string]interface{}{
					{"symbol": "AAPL", "regularMarketPrice": 191.25, "currency": "USD"},
				},
			},
		})
	}))
	defer server.Close()

	q, err := testClient(server.URL).GetQuote("AAPL")
	require.NoError(t, err)
	require.NotNil(t, q.RegularMarketPrice)
	assert.Equal(t, 191.25, *q.RegularMarketPrice)
	require.NotNil(t, q.Currency)
	assert.Equal(t, "USD", *q.Currency)
}

func TestGetQuote_UpstreamErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetQuote("AAPL")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

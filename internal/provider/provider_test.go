package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	internalcache "github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/clients/yahoo"
	"github.com/aristath/portfolio-risk-engine/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, yahooURL, fxURL string) *Provider {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	store := internalcache.NewSQLiteStore(db, zerolog.Nop())
	c := internalcache.New(store, zerolog.Nop())

	return New(yahoo.NewClient(yahooURL, zerolog.Nop()), NewFxClient(fxURL, zerolog.Nop()), c, zerolog.Nop())
}

func TestFetchQuote_CachesSecondCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"quoteResponse": map[string]interface{}{
				"result": []map[string]interface{}{
					{"symbol": "AAPL", "regularMarketPrice": 190.0, "currency": "USD"},
				},
			},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "http://unused.invalid")

	q1, src1, err := p.FetchQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, q1.Price)
	assert.Equal(t, internalcache.SourceOrigin, src1)

	q2, src2, err := p.FetchQuote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, q2.Price)
	assert.Equal(t, internalcache.SourceCache, src2, "second FetchQuote must be served from cache")
	assert.Equal(t, 1, calls, "second FetchQuote must be served from cache")
}

func TestFetchSeries_RejectsInvalidRange(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid", "http://unused.invalid")
	_, _, err := p.FetchSeries("AAPL", Range("4y"))
	require.Error(t, err)
}

func TestFetchSeries_NotFoundNotCached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"chart": map[string]interface{}{"result": []map[string]interface{}{}},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "http://unused.invalid")

	_, _, err := p.FetchSeries("GHOST", Range1Y)
	require.Error(t, err)

	_, _, err = p.FetchSeries("GHOST", Range1Y)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "a not-found result must never be cached")
}

func TestFetchFx_DelegatesToFxClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-03-01","rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, "http://unused.invalid", server.URL)
	rate, err := p.FetchFx("USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.92, rate.Rate)
}

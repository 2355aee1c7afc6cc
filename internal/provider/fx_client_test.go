package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFxClient_GetRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/EUR", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-03-01","rates":{"USD":1.08}}`))
	}))
	defer server.Close()

	client := NewFxClient(server.URL, zerolog.Nop())
	rate, err := client.GetRate("eur", "usd")
	require.NoError(t, err)
	assert.Equal(t, 1.08, rate.Rate)
	assert.Equal(t, "EUR", rate.From)
	assert.Equal(t, "USD", rate.To)
}

func TestFxClient_SameCurrencyShortCircuits(t *testing.T) {
	client := NewFxClient("http://unused.invalid", zerolog.Nop())
	rate, err := client.GetRate("USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate.Rate)
}

func TestFxClient_UnknownTargetIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-03-01","rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	client := NewFxClient(server.URL, zerolog.Nop())
	_, err := client.GetRate("USD", "ZZZ")
	require.ErrorIs(t, err, ErrNotFound)
}

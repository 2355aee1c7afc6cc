package stats

import (
	"testing"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(closes ...float64) []provider.PricePoint {
	out := make([]provider.PricePoint, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = provider.PricePoint{Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	return out
}

func TestDailyReturns_SkipsNonPositivePairs(t *testing.T) {
	got := DailyReturns(pts(100, 0, 110, 121))
	require.Len(t, got, 1)
	assert.InDelta(t, 0.1, got[0], 1e-9, "121/110-1")
}

func TestDailyReturns_TooShort(t *testing.T) {
	assert.Nil(t, DailyReturns(pts(100)))
}

func TestLogReturns_Basic(t *testing.T) {
	got := LogReturns(pts(100, 110))
	require.Len(t, got, 1)
	assert.InDelta(t, 0.0953, got[0], 1e-3)
}

func TestAnnualizedVolatility_RequiresThirtyObservations(t *testing.T) {
	daily := make([]float64, 29)
	_, err := AnnualizedVolatility(daily)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnnualizedVolatility_Computes(t *testing.T) {
	daily := make([]float64, 40)
	for i := range daily {
		if i%2 == 0 {
			daily[i] = 0.01
		} else {
			daily[i] = -0.01
		}
	}
	vol, err := AnnualizedVolatility(daily)
	require.NoError(t, err)
	assert.Greater(t, vol, 0.0)
}

func TestCalendarYearReturns_GroupsByYear(t *testing.T) {
	points := []provider.PricePoint{
		{Timestamp: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100},
		{Timestamp: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Close: 110},
		{Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 112},
		{Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Close: 120},
	}
	got := CalendarYearReturns(points)
	require.Len(t, got, 2)
	assert.Equal(t, 2023, got[0].Year)
	assert.InDelta(t, 0.10, got[0].Return, 1e-9)
	assert.Equal(t, 2024, got[1].Year)
	assert.InDelta(t, 120.0/112.0-1, got[1].Return, 1e-9)
}

func TestOneYearReturn_InsufficientWhenShort(t *testing.T) {
	_, err := OneYearReturn(pts(100, 101, 102))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestThirtyDayReturn_Computes(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	ret, err := ThirtyDayReturn(pts(closes...))
	require.NoError(t, err)
	assert.InDelta(t, closes[29]/closes[7]-1, ret, 1e-9)
}

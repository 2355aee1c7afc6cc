// Package stats implements the returns/statistics kernel: daily and log
// returns, annualised volatility, windowed returns, calendar-year returns,
// bootstrap annual distributions, and lag-aligned Pearson correlation/beta.
package stats

import (
	"errors"
	"math"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when a series is too short for the
// requested statistic to be meaningful.
var ErrInsufficientData = errors.New("stats: insufficient data")

const tradingDaysPerYear = 252

// DailyReturns computes simple returns from an ordered close-price series,
// skipping any adjacent pair where either price is non-positive rather
// than emitting a zero at that index.
func DailyReturns(points []provider.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Close, points[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, (cur-prev)/prev)
	}
	return out
}

// LogReturns computes ln(p_t/p_{t-1}) under the same non-positive skip rule.
func LogReturns(points []provider.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Close, points[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// AnnualizedVolatility returns stddev(daily) * sqrt(252). At least 30
// observations are required.
func AnnualizedVolatility(daily []float64) (float64, error) {
	if len(daily) < 30 {
		return 0, ErrInsufficientData
	}
	return stat.StdDev(daily, nil) * math.Sqrt(tradingDaysPerYear), nil
}

// YTDReturn computes the return from the first trading day of the current
// calendar year up to the last observation.
func YTDReturn(points []provider.PricePoint, now time.Time) (float64, error) {
	if len(points) == 0 {
		return 0, ErrInsufficientData
	}
	year := now.Year()
	var first *provider.PricePoint
	for i := range points {
		if points[i].Timestamp.Year() == year {
			first = &points[i]
			break
		}
	}
	if first == nil || first.Close <= 0 {
		return 0, ErrInsufficientData
	}
	last := points[len(points)-1]
	if last.Close <= 0 {
		return 0, ErrInsufficientData
	}
	return last.Close/first.Close - 1, nil
}

// OneYearReturn divides the last close by the close 253 observations
// earlier. Requires at least 200 observations; with fewer than 254 the
// first close in the series is the base.
func OneYearReturn(points []provider.PricePoint) (float64, error) {
	return windowReturn(points, 253, 200)
}

// ThirtyDayReturn divides the last close by the close 22 observations earlier.
func ThirtyDayReturn(points []provider.PricePoint) (float64, error) {
	return windowReturn(points, 22, 23)
}

func windowReturn(points []provider.PricePoint, lookback, minObs int) (float64, error) {
	if len(points) < minObs {
		return 0, ErrInsufficientData
	}
	last := points[len(points)-1]
	idx := len(points) - 1 - lookback
	if idx < 0 {
		idx = 0
	}
	base := points[idx]
	if base.Close <= 0 || last.Close <= 0 {
		return 0, ErrInsufficientData
	}
	return last.Close/base.Close - 1, nil
}

// CalendarYearReturn is one calendar year's (last/first - 1) return.
type CalendarYearReturn struct {
	Year   int     `json:"year"`
	Return float64 `json:"return"`
}

// CalendarYearReturns groups points by calendar year and reports
// (last/first - 1) for each year, including the current partial year.
func CalendarYearReturns(points []provider.PricePoint) []CalendarYearReturn {
	if len(points) == 0 {
		return nil
	}

	type span struct {
		first, last float64
	}
	byYear := make(map[int]*span)
	var years []int

	for _, p := range points {
		if p.Close <= 0 {
			continue
		}
		y := p.Timestamp.Year()
		s, ok := byYear[y]
		if !ok {
			s = &span{first: p.Close}
			byYear[y] = s
			years = append(years, y)
		}
		s.last = p.Close
	}

	out := make([]CalendarYearReturn, 0, len(years))
	for _, y := range years {
		s := byYear[y]
		if s.first <= 0 {
			continue
		}
		out = append(out, CalendarYearReturn{Year: y, Return: s.last/s.first - 1})
	}
	return out
}

package scheduler

import (
	"github.com/aristath/portfolio-risk-engine/internal/provider"
)

// WarmRefreshJob pre-fetches price history for a fixed watchlist so the
// correlation matrix and statistics endpoints serve warm cache entries
// instead of paying the upstream round-trip on the next request after a
// TTL expiry.
type WarmRefreshJob struct {
	provider  *provider.Provider
	symbols   []string
	rangeSpan provider.Range
}

// NewWarmRefreshJob builds a job that refreshes symbols over rangeSpan.
func NewWarmRefreshJob(p *provider.Provider, symbols []string, rangeSpan provider.Range) *WarmRefreshJob {
	return &WarmRefreshJob{provider: p, symbols: symbols, rangeSpan: rangeSpan}
}

// Name identifies the job in scheduler logs.
func (j *WarmRefreshJob) Name() string {
	return "warm-refresh"
}

// Run re-fetches every symbol's series, populating the cache ahead of
// expiry. The first error aborts the remaining symbols for this run; the
// next scheduled tick retries them.
func (j *WarmRefreshJob) Run() error {
	for _, symbol := range j.symbols {
		if _, _, err := j.provider.FetchSeries(symbol, j.rangeSpan); err != nil {
			return err
		}
	}
	return nil
}

package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/clients/yahoo"
	"github.com/rs/zerolog"
)

// Provider is the cache-then-compute facade the statistics, matrix, and
// HTTP layers call through. It never lets a transient upstream error
// populate the cache, and it coalesces concurrent identical requests via
// the underlying cache.Cache.
type Provider struct {
	yahoo *yahoo.Client
	fx    *FxClient
	cache *cache.Cache
	log   zerolog.Logger
}

// New creates a Provider over the given upstream clients and cache.
func New(yahooClient *yahoo.Client, fxClient *FxClient, c *cache.Cache, log zerolog.Logger) *Provider {
	return &Provider{
		yahoo: yahooClient,
		fx:    fxClient,
		cache: c,
		log:   log.With().Str("component", "provider").Logger(),
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient) {
		return err
	}
	var httpErr *yahoo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 404 {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// FetchSeries returns the adjusted daily close series for symbol over
// rng, along with whether it was served from cache. Errors satisfying
// errors.Is(err, ErrNotFound) must not be retried; all other errors
// should be treated as transient.
func (p *Provider) FetchSeries(symbol string, rng Range) (*PriceSeries, cache.Source, error) {
	if symbol == "" {
		return nil, cache.SourceOrigin, fmt.Errorf("%w: empty symbol", ErrNotFound)
	}
	if !rng.Valid() {
		return nil, cache.SourceOrigin, fmt.Errorf("%w: unsupported range %q", ErrNotFound, rng)
	}

	key := cache.Key(cache.NSPrices, symbol, string(rng))
	series, src, err := cache.GetOrCompute(p.cache, key, cache.TTLFor(cache.NSPrices), func() (PriceSeries, error) {
		return p.fetchSeriesUncached(symbol, rng)
	})
	if err != nil {
		return nil, src, classify(err)
	}
	return &series, src, nil
}

func (p *Provider) fetchSeriesUncached(symbol string, rng Range) (PriceSeries, error) {
	to := time.Now().UTC()
	from := to.Add(-rng.Lookback())

	bars, err := p.yahoo.GetHistoricalPrices(symbol, from, to)
	if err != nil {
		return PriceSeries{}, err
	}
	if len(bars) == 0 {
		return PriceSeries{}, fmt.Errorf("%w: empty series for %s", ErrNotFound, symbol)
	}

	points := make([]PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar.AdjClose <= 0 {
			continue
		}
		points = append(points, PricePoint{
			Timestamp: time.Date(bar.Date.Year(), bar.Date.Month(), bar.Date.Day(), 0, 0, 0, 0, time.UTC),
			Close:     bar.AdjClose,
		})
	}

	return PriceSeries{
		Symbol:   symbol,
		Currency: "USD",
		Points:   points,
		Meta: SeriesMeta{
			Range:       rng,
			RequestedAt: time.Now().UTC(),
		},
	}, nil
}

// FetchQuote returns a real-time quote snapshot for symbol, along with
// whether it was served from cache.
func (p *Provider) FetchQuote(symbol string) (*Quote, cache.Source, error) {
	key := cache.Key(cache.NSQuotes, symbol)
	quote, src, err := cache.GetOrCompute(p.cache, key, cache.TTLFor(cache.NSQuotes), func() (Quote, error) {
		qd, err := p.yahoo.GetQuote(symbol)
		if err != nil {
			return Quote{}, err
		}
		q := Quote{Symbol: symbol, Currency: "USD"}
		if qd.RegularMarketPrice != nil {
			q.Price = *qd.RegularMarketPrice
			q.PreviousClose = *qd.RegularMarketPrice
		}
		if qd.Currency != nil {
			q.Currency = *qd.Currency
		}
		if qd.LongName != nil {
			q.Name = *qd.LongName
		} else if qd.ShortName != nil {
			q.Name = *qd.ShortName
		}
		if qd.QuoteType != nil {
			q.Type = *qd.QuoteType
		}
		return q, nil
	})
	if err != nil {
		return nil, src, classify(err)
	}
	return &quote, src, nil
}

// FetchProfile returns slow-changing descriptive metadata for symbol.
func (p *Provider) FetchProfile(symbol string) (*Profile, error) {
	key := cache.Key(cache.NSProfile, symbol)
	profile, _, err := cache.GetOrCompute(p.cache, key, cache.TTLFor(cache.NSProfile), func() (Profile, error) {
		pd, err := p.yahoo.GetProfile(symbol)
		if err != nil {
			return Profile{}, err
		}
		prof := Profile{Symbol: symbol, QuoteType: "EQUITY"}
		if pd.LongName != nil {
			prof.Name = *pd.LongName
		}
		if pd.Sector != nil {
			prof.Sector = *pd.Sector
		}
		if pd.Industry != nil {
			prof.Industry = *pd.Industry
		}
		if pd.Country != nil {
			prof.Country = *pd.Country
		}
		if pd.QuoteType != nil {
			prof.QuoteType = *pd.QuoteType
		}
		return prof, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &profile, nil
}

// FetchFx returns the spot rate to convert from into to.
func (p *Provider) FetchFx(from, to string) (*FxRate, error) {
	key := cache.Key(cache.NSFx, from, to)
	rate, _, err := cache.GetOrCompute(p.cache, key, cache.TTLFor(cache.NSFx), func() (FxRate, error) {
		fx, err := p.fx.GetRate(from, to)
		if err != nil {
			return FxRate{}, err
		}
		return *fx, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &rate, nil
}

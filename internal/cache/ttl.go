package cache

import "time"

// TTLCatalog gives the lifetime of an entry in each namespace. Values come
// from the staleness tolerance of the underlying data: quotes move every
// trade, profiles barely ever change.
var TTLCatalog = map[string]time.Duration{
	NSPrices:            4 * time.Hour,
	NSQuotes:            15 * time.Minute,
	NSProfile:           7 * 24 * time.Hour,
	NSFx:                24 * time.Hour,
	NSBeta:              6 * time.Hour,
	NSVolatility:        6 * time.Hour,
	NSDistribution:      12 * time.Hour,
	NSCalendarReturns:   24 * time.Hour,
	NSCorrelationMatrix: 6 * time.Hour,
	NSRiskMetrics:       6 * time.Hour, // same TTL class as volatility
}

// TTLFor returns the configured TTL for ns, or a conservative 5 minute
// default if ns is not in the catalog.
func TTLFor(ns string) time.Duration {
	if ttl, ok := TTLCatalog[ns]; ok {
		return ttl
	}
	return 5 * time.Minute
}

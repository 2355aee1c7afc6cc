package cache

import (
	"sort"
	"strings"
)

// Namespaces for canonical cache keys. Each maps to an entry in the TTL
// catalog in ttl.go.
const (
	NSPrices            = "prices"
	NSQuotes            = "quotes"
	NSProfile           = "profile"
	NSFx                = "fx"
	NSBeta              = "beta"
	NSVolatility        = "volatility"
	NSDistribution      = "distribution"
	NSCalendarReturns   = "calendar-returns"
	NSCorrelationMatrix = "correlation-matrix"
	NSRiskMetrics       = "risk-metrics"
)

// Key builds a canonical cache key for namespace ns and the given
// arguments. Symbol-like arguments should be canonicalized by the caller
// (upper-cased, sorted, deduplicated) before being passed in, so that
// requests differing only in symbol order or case collapse onto the same
// entry.
func Key(ns string, args ...string) string {
	var b strings.Builder
	b.WriteString(ns)
	for _, a := range args {
		b.WriteByte(':')
		b.WriteString(a)
	}
	return b.String()
}

// CanonicalSymbols upper-cases, trims, deduplicates, and sorts a symbol
// list so that equivalent requests produce the same cache key regardless
// of how the caller ordered or cased them.
func CanonicalSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// JoinSymbols canonicalizes and joins a symbol list for use as a single
// cache key argument.
func JoinSymbols(symbols []string) string {
	return strings.Join(CanonicalSymbols(symbols), "|")
}

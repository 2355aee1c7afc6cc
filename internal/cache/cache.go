package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Store with JSON encoding and single-flight request
// coalescing: concurrent callers asking for the same key while a fetch is
// in flight share the one upstream call instead of issuing N of them.
type Cache struct {
	store Store
	group singleflight.Group
	log   zerolog.Logger
}

// New creates a Cache over the given Store.
func New(store Store, log zerolog.Logger) *Cache {
	return &Cache{
		store: store,
		log:   log.With().Str("component", "cache").Logger(),
	}
}

// Source reports where a GetOrCompute result came from.
type Source string

const (
	SourceCache  Source = "kv"
	SourceOrigin Source = "computed"
)

// GetOrCompute returns the cached value for key if present and unexpired.
// Otherwise it calls fetch, stores the result with ttl, and returns it.
// Concurrent calls for the same key while a fetch is outstanding block on
// the same in-flight call rather than each invoking fetch.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, Source, error) {
	var zero T

	if raw, hit, err := c.store.Get(key); err == nil && hit {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, SourceCache, nil
		}
		c.log.Warn().Str("key", key).Msg("failed to decode cached value, recomputing")
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode cache value for %s: %w", key, err)
		}
		if err := c.store.Put(key, raw, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("failed to persist cache entry")
		}
		return v, nil
	})
	if err != nil {
		return zero, SourceOrigin, err
	}

	return result.(T), SourceOrigin, nil
}

// Invalidate removes key from the underlying store.
func (c *Cache) Invalidate(key string) error {
	return c.store.Delete(key)
}

// Sweep delegates to the underlying store's expiry sweep.
func (c *Cache) Sweep() (int64, error) {
	return c.store.Sweep()
}

package scheduler

import (
	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/events"
)

// CacheSweepJob periodically evicts TTL-expired entries from the KV cache.
type CacheSweepJob struct {
	cache  *cache.Cache
	events *events.Manager
}

// NewCacheSweepJob builds a job bound to the given cache. events may be
// nil, in which case sweep completion is not reported.
func NewCacheSweepJob(c *cache.Cache, em *events.Manager) *CacheSweepJob {
	return &CacheSweepJob{cache: c, events: em}
}

// Name identifies the job in scheduler logs.
func (j *CacheSweepJob) Name() string {
	return "cache-sweep"
}

// Run evicts every expired cache entry.
func (j *CacheSweepJob) Run() error {
	evicted, err := j.cache.Sweep()
	if err != nil {
		return err
	}
	if j.events != nil {
		j.events.Emit(events.CacheSweepCompleted, "scheduler", map[string]interface{}{"evicted": evicted})
	}
	return nil
}

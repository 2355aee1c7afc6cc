package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/database"
	"github.com/aristath/portfolio-risk-engine/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	store := cache.NewSQLiteStore(db, zerolog.Nop())
	return cache.New(store, zerolog.Nop())
}

func TestCacheSweepJob_Name(t *testing.T) {
	job := NewCacheSweepJob(newTestCache(t), nil)
	assert.Equal(t, "cache-sweep", job.Name())
}

func TestCacheSweepJob_RunEvictsExpiredEntries(t *testing.T) {
	c := newTestCache(t)
	_, _, err := cache.GetOrCompute(c, "prices:AAPL", -time.Hour, func() (string, error) {
		return "stale", nil
	})
	require.NoError(t, err)

	job := NewCacheSweepJob(c, nil)
	require.NoError(t, job.Run())

	_, src, err := cache.GetOrCompute(c, "prices:AAPL", time.Hour, func() (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, cache.SourceOrigin, src, "swept entry must be recomputed, not served from the stale cache row")
}

func TestCacheSweepJob_RunWithEventsManagerDoesNotError(t *testing.T) {
	job := NewCacheSweepJob(newTestCache(t), events.NewManager(zerolog.Nop()))
	assert.NoError(t, job.Run())
}

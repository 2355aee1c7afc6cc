package cache

import (
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/database"
	"github.com/rs/zerolog"
)

// Store is a namespaced, TTL-bound key/value store. Values are opaque
// byte slices — callers own their own encoding (JSON is the convention
// used throughout this module).
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Sweep() (int64, error)
}

// SQLiteStore persists entries in the cache_entries table created by
// database.DB.Migrate.
type SQLiteStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLiteStore wraps db as a Store.
func NewSQLiteStore(db *database.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		log: log.With().Str("component", "cache.store").Logger(),
	}
}

// Get returns the stored value for key. The second return is false when
// the key is absent or has expired; an expired row is lazily deleted.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	row := s.db.QueryRow(
		`SELECT value, inserted_at, ttl_seconds FROM cache_entries WHERE key = ?`,
		key,
	)

	var value []byte
	var insertedAt int64
	var ttlSeconds int64
	if err := row.Scan(&value, &insertedAt, &ttlSeconds); err != nil {
		return nil, false, nil
	}

	expiresAt := time.Unix(insertedAt, 0).Add(time.Duration(ttlSeconds) * time.Second)
	if time.Now().After(expiresAt) {
		_ = s.Delete(key)
		return nil, false, nil
	}

	return value, true, nil
}

// Put writes key with the given value and TTL, overwriting any existing
// entry for key.
func (s *SQLiteStore) Put(key string, value []byte, ttl time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO cache_entries (key, value, inserted_at, ttl_seconds)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		   inserted_at = excluded.inserted_at, ttl_seconds = excluded.ttl_seconds`,
		key, value, time.Now().Unix(), int64(ttl.Seconds()),
	)
	return err
}

// Delete removes key, if present.
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// Sweep removes every row whose TTL has elapsed and returns the count
// removed. Intended to run periodically from the scheduler.
func (s *SQLiteStore) Sweep() (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM cache_entries WHERE (inserted_at + ttl_seconds) < ?`,
		time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if n > 0 {
		s.log.Debug().Int64("evicted", n).Msg("cache sweep removed expired entries")
	}
	return n, nil
}

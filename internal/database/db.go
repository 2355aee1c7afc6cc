package database

import (
	"database/sql"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection using the default pure-Go driver.
// Use NewWithDriver to select github.com/mattn/go-sqlite3 (cgo) instead.
func New(dbPath string) (*DB, error) {
	return NewWithDriver(dbPath, DriverPureGo)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate creates the cache_entries schema if it does not already exist.
func (db *DB) Migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key         TEXT PRIMARY KEY,
	value       BLOB NOT NULL,
	inserted_at INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL
);
`
	_, err := db.conn.Exec(schema)
	return err
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

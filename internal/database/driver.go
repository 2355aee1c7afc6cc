package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // cgo driver, selected by NewWithDriver(path, DriverCGO)
	_ "modernc.org/sqlite"          // pure-Go driver (default), registered as "sqlite"
)

// Driver names recognised by NewWithDriver.
const (
	DriverPureGo = "sqlite"  // modernc.org/sqlite, no cgo required
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3, needs cgo
)

// NewWithDriver opens dbPath using the named driver, defaulting to the
// pure-Go driver when driverName is empty. Operators on platforms where cgo
// is unavailable (cross-compiled containers, some CI images) use the
// default; environments that already carry a cgo toolchain and want the
// more mature mattn/go-sqlite3 locking behaviour can pass DriverCGO.
func NewWithDriver(dbPath, driverName string) (*DB, error) {
	if driverName == "" {
		driverName = DriverPureGo
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath
	if driverName == DriverPureGo {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_journal_mode=WAL&_foreign_keys=1"
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database (%s): %w", driverName, err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{conn: conn, path: dbPath}, nil
}

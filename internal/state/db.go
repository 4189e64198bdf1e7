package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private history that disappears on Close.
const MemoryPath = ":memory:"

// busyTimeoutMillis bounds how long a write waits on another manage process
// holding the history lock.
const busyTimeoutMillis = 5000

// DB is the run history database. Every operation manage performs is recorded
// with the outcome of each of its steps.
type DB struct {
	*sql.DB
	path string
}

// DefaultDBPath is where the history lives when MANAGE_STATE_DB is unset:
// orgbook-manage/state.db under $XDG_DATA_HOME, or ~/.local/share without it.
func DefaultDBPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate run history: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "orgbook-manage", "state.db"), nil
}

// Open opens the run history at path, creating it and bringing its schema up
// to date. An empty path means DefaultDBPath.
func Open(path string) (*DB, error) {
	if path == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create run history directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", historyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open run history %s: %w", path, err)
	}
	if path == MemoryPath {
		// A second connection would see an empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open run history %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate run history %s: %w", path, err)
	}
	return db, nil
}

// historyDSN returns the driver DSN for path. File histories use WAL so that
// `manage history` can read while another manage process records a run.
func historyDSN(path string) string {
	if path == MemoryPath {
		return MemoryPath
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeoutMillis)
}

// Path returns the path the history was opened at.
func (db *DB) Path() string {
	return db.path
}

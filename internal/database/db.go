// Package database provides the SQLite connection backing the price cache.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// DatabaseProfile defines different configuration profiles for databases
type DatabaseProfile string

const (
	// ProfileCache - Maximum speed for ephemeral data
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard - Balanced configuration
	ProfileStandard DatabaseProfile = "standard"
)

// cacheSchema holds every client data table. Keys are provider-specific
// strings, data is a msgpack blob.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS price_history (
	cache_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS current_prices (
	cache_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_expires ON price_history(expires_at);
CREATE INDEX IF NOT EXISTS idx_current_prices_expires ON current_prices(expires_at);
`

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Path    string // empty or MemoryPath for an in-memory database
	Profile DatabaseProfile
	Name    string
}

// New opens the database and verifies the connection.
func New(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	memory := cfg.Path == MemoryPath

	if !memory {
		// Resolve to absolute path to avoid relative path issues
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	connStr := cfg.Path
	if !memory {
		connStr = buildConnectionString(cfg.Path, cfg.Profile)
	}

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile, memory)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString creates SQLite connection string with profile-specific PRAGMAs
func buildConnectionString(path string, profile DatabaseProfile) string {
	connStr := path + "?_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileCache:
		connStr += "&_pragma=synchronous(OFF)"   // No fsync (it's cache!)
		connStr += "&_pragma=auto_vacuum(FULL)"  // Auto-reclaim space
		connStr += "&_pragma=temp_store(MEMORY)" // Temp tables in RAM
	default:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}

	connStr += "&_pragma=busy_timeout(5000)"
	connStr += "&_pragma=cache_size(-16000)" // 16MB cache (negative = KB)

	return connStr
}

// configureConnectionPool sets up the connection pool. An in-memory
// database lives inside a single connection, so it is pinned to one.
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile, memory bool) {
	if memory {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
		return
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if profile == ProfileStandard {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying *sql.DB
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name
func (db *DB) Name() string {
	return db.name
}

// Path returns the database path
func (db *DB) Path() string {
	return db.path
}

// Migrate creates the cache tables if they do not exist.
func (db *DB) Migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s schema: %w", db.name, err)
	}

	if _, err := tx.Exec(cacheSchema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema for %s: %w", db.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema for %s: %w", db.name, err)
	}
	return nil
}

// HealthCheck pings the database and runs a quick integrity check.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("quick check query failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("quick check failed for %s: %s", db.name, result)
	}
	return nil
}

// Stats returns database statistics
type Stats struct {
	SizeBytes    int64 `json:"size_bytes"`     // Database file size, 0 in memory
	WALSizeBytes int64 `json:"wal_size_bytes"` // WAL file size
	PageCount    int64 `json:"page_count"`
	PageSize     int64 `json:"page_size"`
}

// GetStats retrieves database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	if db.path != MemoryPath {
		if fileInfo, err := os.Stat(db.path); err == nil {
			stats.SizeBytes = fileInfo.Size()
		}
		if fileInfo, err := os.Stat(db.path + "-wal"); err == nil {
			stats.WALSizeBytes = fileInfo.Size()
		}
	}

	if err := db.conn.QueryRow("PRAGMA page_count").Scan(&stats.PageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.conn.QueryRow("PRAGMA page_size").Scan(&stats.PageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	return stats, nil
}

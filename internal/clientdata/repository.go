// Package clientdata provides persistent caching for external API client responses.
// Data is stored as msgpack blobs with expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache tables.
const (
	TablePriceHistory  = "price_history"
	TableCurrentPrices = "current_prices"
)

// AllTables lists all cache tables for cleanup operations.
var AllTables = []string{
	TablePriceHistory,
	TableCurrentPrices,
}

// ErrCorruptEntry is returned when a stored blob cannot be decoded into the
// requested type.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// validateTable ensures the table name is in our allowed list.
// Table names are interpolated into SQL, so only known names pass.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store saves data with expiration = now + ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	expiresAt := r.now().Add(ttl).Unix()

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (cache_key, data, expires_at) VALUES (?, ?, ?)",
		table,
	)
	if _, err := r.db.Exec(query, key, blob, expiresAt); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// GetIfFresh decodes the entry into out only if it has not expired.
// Reports false when the key is missing or stale.
func (r *Repository) GetIfFresh(table, key string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ? AND expires_at > ?", table)
	return r.load(table, out, query, key, r.now().Unix())
}

// Get decodes the entry into out regardless of expiration status.
// Use this as a fallback when API calls fail - stale data is better than no data.
func (r *Repository) Get(table, key string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ?", table)
	return r.load(table, out, query, key)
}

func (r *Repository) load(table string, out interface{}, query string, args ...interface{}) (bool, error) {
	var blob []byte
	err := r.db.QueryRow(query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal data from %s: %w: %w", table, ErrCorruptEntry, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", table)
	if _, err := r.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)

	result, err := r.db.Exec(query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}

	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}

// Count returns the number of entries in a table, expired ones included.
func (r *Repository) Count(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	var n int64
	if err := r.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Package store provides a SQLite-backed memo cache for pipeline results.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache memoizes serialized pipeline results keyed by (filter, data version).
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the stored payload for a filter at a data version.
func (c *Cache) Get(filter, version string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRow(
		"SELECT payload FROM pipeline_results WHERE filter = ? AND data_version = ?",
		filter, version,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Put stores a payload, replacing any previous entry for the same key.
func (c *Cache) Put(filter, version string, payload []byte) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO pipeline_results
		(filter, data_version, payload, computed_at)
		VALUES (?, ?, ?, ?)`,
		filter, version, payload, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Prune deletes every entry not computed for keepVersion and reports how many were removed.
func (c *Cache) Prune(keepVersion string) (int64, error) {
	res, err := c.db.Exec("DELETE FROM pipeline_results WHERE data_version != ?", keepVersion)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats summarizes cache contents.
type Stats struct {
	Entries  int
	Versions int
	Newest   time.Time
}

// Stats returns entry and version counts.
func (c *Cache) Stats() (Stats, error) {
	var (
		s      Stats
		newest sql.NullString
	)
	err := c.db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT data_version), MAX(computed_at) FROM pipeline_results",
	).Scan(&s.Entries, &s.Versions, &newest)
	if err != nil {
		return s, err
	}
	if newest.Valid && newest.String != "" {
		s.Newest, _ = time.Parse(time.RFC3339, newest.String)
	}
	return s, nil
}

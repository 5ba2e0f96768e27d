// Package cache provides SQLite-backed caching of binding passes.
// The cache is stored in .cl-bindgen/cache.db. A pass is keyed by the input
// path and a hash of everything that can change its output: the file
// content, the compiler arguments and the rendering options.
package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the config directory.
const FileName = "cache.db"

// Cache manages the pass cache database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in dir.
// It initializes the schema if the database is new.
func Open(dir string) (*Cache, error) {
	dbPath := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes every cached pass.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM passes"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Stats returns cache statistics.
type Stats struct {
	Passes      int64 `yaml:"passes" json:"passes"`
	OutputBytes int64 `yaml:"output_bytes" json:"output_bytes"`
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats
	err := c.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(LENGTH(output)), 0) FROM passes").
		Scan(&stats.Passes, &stats.OutputBytes)
	if err != nil {
		return nil, fmt.Errorf("count passes: %w", err)
	}
	return &stats, nil
}

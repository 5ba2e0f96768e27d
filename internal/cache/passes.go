package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hargabyte/cl-bindgen/internal/emit"
)

// Entry is a cached pass.
type Entry struct {
	FilePath  string
	InputHash string
	Output    []byte
	Warnings  []emit.Warning
	StoredAt  time.Time
}

// InputHash hashes the file content together with a fingerprint of the
// options that shape the output.
func InputHash(content []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached pass for path if it was stored with hash.
// A missing or stale entry reports false with a nil error.
func (c *Cache) Lookup(path, hash string) (*Entry, bool, error) {
	var (
		entry    Entry
		warnings string
		storedAt string
	)
	err := c.db.QueryRow(`
		SELECT file_path, input_hash, output, warnings, stored_at FROM passes WHERE file_path = ?`,
		path).Scan(&entry.FilePath, &entry.InputHash, &entry.Output, &warnings, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup pass %s: %w", path, err)
	}
	if entry.InputHash != hash {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(warnings), &entry.Warnings); err != nil {
		return nil, false, fmt.Errorf("decode warnings %s: %w", path, err)
	}
	entry.StoredAt, _ = time.Parse(time.RFC3339, storedAt)
	return &entry, true, nil
}

// Store records the result of a pass, replacing any previous entry for the
// same path.
func (c *Cache) Store(e *Entry) error {
	warnings, err := json.Marshal(e.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings %s: %w", e.FilePath, err)
	}
	if e.Warnings == nil {
		warnings = []byte("[]")
	}
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}
	output := e.Output
	if output == nil {
		output = []byte{}
	}
	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO passes (file_path, input_hash, output, warnings, stored_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.FilePath, e.InputHash, output, string(warnings), storedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store pass %s: %w", e.FilePath, err)
	}
	return nil
}

// Delete removes the entry for path.
func (c *Cache) Delete(path string) error {
	if _, err := c.db.Exec("DELETE FROM passes WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("delete pass %s: %w", path, err)
	}
	return nil
}

// Paths lists the cached input paths in order.
func (c *Cache) Paths() ([]string, error) {
	rows, err := c.db.Query("SELECT file_path FROM passes ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return paths, nil
}

// PruneStaleEntries removes entries for paths no longer in validPaths.
func (c *Cache) PruneStaleEntries(validPaths map[string]bool) (int, error) {
	paths, err := c.Paths()
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, p := range paths {
		if !validPaths[p] {
			if err := c.Delete(p); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

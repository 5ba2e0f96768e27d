package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - passes: the rendered output and warnings of one input file, valid
//     while input_hash matches
const schemaSQL = `
CREATE TABLE IF NOT EXISTS passes (
    file_path TEXT PRIMARY KEY,
    input_hash TEXT NOT NULL,
    output BLOB NOT NULL,
    warnings TEXT NOT NULL DEFAULT '[]',
    stored_at TEXT NOT NULL
);
`

// initSchema creates the database tables if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}

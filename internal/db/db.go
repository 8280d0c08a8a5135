package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB holding the local page cache.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the database location, ":memory:" for in-memory databases.
func (d *DB) Path() string { return d.path }

// migrate creates the schema. The cache holds only derived data, so a file
// written with an older schemaVersion is dropped and rebuilt rather than
// migrated in place.
func (d *DB) migrate() error {
	var version int
	if err := d.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version != 0 && version != schemaVersion {
		if _, err := d.Exec(`DROP TABLE IF EXISTS pages; DROP TABLE IF EXISTS snapshots;`); err != nil {
			return fmt.Errorf("dropping cache tables from version %d: %w", version, err)
		}
	}
	if _, err := d.Exec(schema); err != nil {
		return err
	}
	_, err := d.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

// schemaVersion is bumped whenever the tables or the rendered HTML layout
// change incompatibly.
const schemaVersion = 3

// schema holds rendered pages and the catalog snapshot they were rendered from.
const schema = `
CREATE TABLE IF NOT EXISTS pages (
    lecture_id TEXT PRIMARY KEY,
    html TEXT NOT NULL,
    fingerprint TEXT NOT NULL DEFAULT '',
    settings TEXT NOT NULL DEFAULT '',
    rendered_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshots (
    name TEXT PRIMARY KEY,
    revision TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    etag TEXT NOT NULL DEFAULT '',
    data BLOB NOT NULL,
    fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pages_fingerprint ON pages(fingerprint);
`

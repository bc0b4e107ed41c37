// Package ledger persists the cross-run import ledger in SQLite and decides
// whether a record seen in the current snapshot is new, unchanged, changed,
// or superseded by something already ingested.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	uuid                  TEXT PRIMARY KEY,
	checksum              TEXT NOT NULL,
	date                  TEXT NOT NULL,
	url                   TEXT NOT NULL,
	latest_uuid_for_route TEXT NOT NULL DEFAULT '',
	is_latest             INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entries_url ON entries(url);
`

// Entry is one ledger row: everything a later run needs to recognize an
// already-imported record. Entries are written once and never auto-removed;
// removal is an explicit operation outside this pipeline.
type Entry struct {
	UUID               string
	Checksum           string
	Date               time.Time
	URL                string
	LatestUUIDForRoute string
	IsLatest           bool
}

// Store is the ledger persistence interface the pipeline depends on.
type Store interface {
	Load() (*Snapshot, error)
	CommitRun(entries []Entry) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CommitRun writes every entry of a completed run in a single transaction:
// a partial run must never flush a partial ledger, or the idempotency
// guarantee for the next run is gone.
func (db *DB) CommitRun(entries []Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (uuid, checksum, date, url, latest_uuid_for_route, is_latest)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("ledger: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		isLatest := 0
		if e.IsLatest {
			isLatest = 1
		}
		if _, err := stmt.Exec(e.UUID, e.Checksum, e.Date.UTC().Format(time.RFC3339Nano), e.URL, e.LatestUUIDForRoute, isLatest); err != nil {
			return fmt.Errorf("ledger: insert %s: %w", e.UUID, err)
		}
	}

	return tx.Commit()
}

// Load reads the whole ledger into the in-memory snapshot the comparator
// works against. The snapshot is read-only for the rest of the run.
func (db *DB) Load() (*Snapshot, error) {
	rows, err := db.conn.Query(`SELECT uuid, checksum, date, url, latest_uuid_for_route, is_latest FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("ledger: load: %w", err)
	}
	defer rows.Close()

	snap := &Snapshot{
		ByUUID: make(map[string]Entry),
		ByURL:  make(map[string]string),
	}
	for rows.Next() {
		var e Entry
		var rawDate string
		var isLatest int
		if err := rows.Scan(&e.UUID, &e.Checksum, &rawDate, &e.URL, &e.LatestUUIDForRoute, &isLatest); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		e.Date, err = time.Parse(time.RFC3339Nano, rawDate)
		if err != nil {
			return nil, fmt.Errorf("ledger: entry %s date %q: %w", e.UUID, rawDate, err)
		}
		e.IsLatest = isLatest != 0

		snap.ByUUID[e.UUID] = e
		if e.IsLatest {
			snap.ByURL[e.URL] = e.UUID
		}
		if e.Date.After(snap.Watermark) {
			snap.Watermark = e.Date
		}
	}
	return snap, rows.Err()
}

// Package store provides the SQLite-backed item store. The geodesic
// distance predicate is implemented as a custom SQL function registered on
// the driver connection, so radius filters and distance ordering run
// inside the database with the exact same haversine as every other
// distance computation in the process.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/islandworks/miyako-poi/internal/geo"
)

const driverName = "sqlite3_haversine"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// haversine(lat1, lng1, lat2, lng2) -> meters
			return conn.RegisterFunc("haversine", geo.Distance, true)
		},
	})
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	item_id          INTEGER PRIMARY KEY,
	slug             TEXT NOT NULL DEFAULT '',
	link             TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	subtitle         TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'draft',
	author           INTEGER NOT NULL DEFAULT 0,
	latitude         REAL,
	longitude        REAL,
	address          TEXT NOT NULL DEFAULT '',
	categories       TEXT NOT NULL DEFAULT '[]',
	tags             TEXT NOT NULL DEFAULT '[]',
	phone_number     TEXT NOT NULL DEFAULT '',
	telephone_number TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL DEFAULT '',
	web              TEXT NOT NULL DEFAULT '',
	show_email       INTEGER NOT NULL DEFAULT 1,
	show_web         INTEGER NOT NULL DEFAULT 1,
	featured_image   TEXT NOT NULL DEFAULT '',
	gallery_images   TEXT NOT NULL DEFAULT '[]',
	features         TEXT NOT NULL DEFAULT '[]',
	opening_hours    TEXT,
	social_icons     TEXT,
	custom_fields    TEXT,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	published_at     DATETIME,
	CHECK ((latitude IS NULL) = (longitude IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_items_status  ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_updated ON items(updated_at);

CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	slug        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	item_count  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with item-store operations.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := sql.Open(driverName, dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

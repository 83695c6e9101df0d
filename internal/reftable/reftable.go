// Package reftable provides SQLite-backed joint capacity reference
// tables, loaded from CSV files and kept in sync with the table
// directory. User tables override base tables at the same key.
package reftable

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS capacities (
	joint_type           TEXT NOT NULL,
	section              TEXT NOT NULL,
	species              TEXT NOT NULL,
	grade                TEXT NOT NULL,
	peg_config           TEXT NOT NULL,
	source               TEXT NOT NULL DEFAULT 'base',
	file                 TEXT NOT NULL DEFAULT '',
	allowable_moment     REAL NOT NULL DEFAULT 0,
	allowable_shear      REAL NOT NULL DEFAULT 0,
	rotational_stiffness REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (joint_type, section, species, grade, peg_config, source)
);

CREATE INDEX IF NOT EXISTS idx_capacities_file ON capacities(file);

CREATE TABLE IF NOT EXISTS table_files (
	path     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL DEFAULT ''
);
`

// Tables defines the reference-table operations. Consumers should depend
// on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type Tables interface {
	ReplaceFile(path, checksum, source string, rows []Row) error
	DeleteFile(path string) error
	Lookup(jointType, section, species, grade, pegConfig string) (Row, error)
	AllFileChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Tables at compile time.
var _ Tables = (*DB)(nil)

// DB wraps a sql.DB with reference-table operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("reftable: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reftable: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reftable: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

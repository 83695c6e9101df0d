package reftable

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/joint"
)

// Row is one capacity entry keyed by joint configuration.
type Row struct {
	JointType string
	Section   string
	Species   string
	Grade     string
	PegConfig string
	Source    string // "base" or "user"

	AllowableMoment     float64
	AllowableShear      float64
	RotationalStiffness float64
}

// Table sources.
const (
	SourceBase = "base"
	SourceUser = "user"
)

// ReplaceFile atomically replaces all rows contributed by one table file
// and records its checksum, within a transaction.
func (db *DB) ReplaceFile(path, checksum, source string, rows []Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("reftable: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, _ = tx.Exec(`DELETE FROM capacities WHERE file = ?`, path)

	stmt, err := tx.Prepare(`
		INSERT INTO capacities (joint_type, section, species, grade, peg_config,
			source, file, allowable_moment, allowable_shear, rotational_stiffness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(joint_type, section, species, grade, peg_config, source) DO UPDATE SET
			file                 = excluded.file,
			allowable_moment     = excluded.allowable_moment,
			allowable_shear      = excluded.allowable_shear,
			rotational_stiffness = excluded.rotational_stiffness
	`)
	if err != nil {
		return fmt.Errorf("reftable: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.JointType, r.Section, r.Species, r.Grade, r.PegConfig,
			source, path, r.AllowableMoment, r.AllowableShear, r.RotationalStiffness); err != nil {
			return fmt.Errorf("reftable: insert row: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO table_files (path, checksum) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum
	`, path, checksum)
	if err != nil {
		return fmt.Errorf("reftable: record file: %w", err)
	}

	return tx.Commit()
}

// DeleteFile removes a table file's rows and its checksum record.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("reftable: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM capacities WHERE file = ?`, path)
	_, _ = tx.Exec(`DELETE FROM table_files WHERE path = ?`, path)

	return tx.Commit()
}

// Lookup resolves one capacity row. User entries take precedence over
// base entries at the same key; a miss reports apperr.ErrNotFound.
func (db *DB) Lookup(jointType, section, species, grade, pegConfig string) (Row, error) {
	var r Row
	err := db.conn.QueryRow(`
		SELECT joint_type, section, species, grade, peg_config, source,
			allowable_moment, allowable_shear, rotational_stiffness
		FROM capacities
		WHERE joint_type = ? AND section = ? AND species = ? AND grade = ? AND peg_config = ?
		ORDER BY CASE source WHEN 'user' THEN 0 ELSE 1 END
		LIMIT 1
	`, jointType, section, species, grade, pegConfig).Scan(
		&r.JointType, &r.Section, &r.Species, &r.Grade, &r.PegConfig, &r.Source,
		&r.AllowableMoment, &r.AllowableShear, &r.RotationalStiffness)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("reftable: %s/%s/%s/%s/%s: %w",
			jointType, section, species, grade, pegConfig, apperr.ErrNotFound)
	}
	if err != nil {
		return Row{}, fmt.Errorf("reftable: lookup: %w", err)
	}
	return r, nil
}

// AllFileChecksums returns the checksum of every loaded table file.
func (db *DB) AllFileChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM table_files`)
	if err != nil {
		return nil, fmt.Errorf("reftable: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// CapacityLookup adapts the table to the collaborator signature joint
// definitions consume.
func CapacityLookup(t Tables) joint.CapacityLookup {
	return func(jointTypeID, sectionKey, species, grade, pegConfig string) (joint.Capacities, error) {
		r, err := t.Lookup(jointTypeID, sectionKey, species, grade, pegConfig)
		if err != nil {
			return joint.Capacities{}, err
		}
		return joint.Capacities{
			AllowableMoment:     r.AllowableMoment,
			AllowableShear:      r.AllowableShear,
			RotationalStiffness: r.RotationalStiffness,
		}, nil
	}
}

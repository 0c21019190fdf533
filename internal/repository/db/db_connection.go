package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

const schemaBatches = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    source_name TEXT NOT NULL,
    received_at TIMESTAMP NOT NULL,
    row_count INTEGER NOT NULL,
    heat_count INTEGER NOT NULL,
    excluded_count INTEGER NOT NULL,
    archive_key TEXT
);
`

const schemaHeats = `
CREATE TABLE IF NOT EXISTS heats (
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    heat_id TEXT NOT NULL,
    steel_grade TEXT,
    is_complete BOOLEAN NOT NULL,
    total_duration INTEGER NOT NULL,
    total_idle INTEGER NOT NULL,
    casting_unit TEXT,
    production_day TEXT,
    caster_sequence INTEGER,
    operations TEXT NOT NULL,
    PRIMARY KEY (batch_id, heat_id)
);
`

const schemaHeatsCasterIndex = `
CREATE INDEX IF NOT EXISTS idx_heats_caster ON heats (casting_unit, production_day);
`

const schemaValidationErrors = `
CREATE TABLE IF NOT EXISTS validation_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    heat_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    unit TEXT,
    message TEXT NOT NULL,
    row_index INTEGER
);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaBatches,
		schemaHeats,
		schemaHeatsCasterIndex,
		schemaValidationErrors,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migrate creates all tables if they don't exist and seeds metadata.
func (s *SQLiteStore) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}

	if !bootstrapDone {
		if err := s.runBootstrapDDL(); err != nil {
			return err
		}
	}

	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if !bootstrapDone {
		if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
			return fmt.Errorf("marking bootstrap complete: %w", err)
		}
	}

	// Lookup of earlier parses of the same input.
	if err := s.migrateInputHashIndex(); err != nil {
		return fmt.Errorf("migrating input hash index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// User column configuration, in display order.
		`CREATE TABLE IF NOT EXISTS columns (
			position INTEGER PRIMARY KEY,
			name     TEXT NOT NULL UNIQUE COLLATE NOCASE
		)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			source       TEXT NOT NULL DEFAULT '',
			input_hash   TEXT NOT NULL,
			columns      TEXT NOT NULL,
			min_fields   INTEGER NOT NULL,
			diagnostics  TEXT NOT NULL DEFAULT '{}',
			record_count INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS records (
			run_id      TEXT NOT NULL,
			serial      INTEGER NOT NULL,
			cooperative TEXT NOT NULL DEFAULT '',
			data        TEXT NOT NULL,
			PRIMARY KEY (run_id, serial),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_records_cooperative ON records(cooperative)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning bootstrap: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, stmt)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) isMetaFlagEnabled(key string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (s *SQLiteStore) setMetaFlag(key string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, 'true')", key)
	return err
}

func (s *SQLiteStore) seedMeta() error {
	defaults := map[string]string{
		"schema_version": "1",
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range defaults {
		if _, err := s.db.Exec("INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("seeding meta key %q: %w", k, err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrateInputHashIndex() error {
	done, err := s.isMetaFlagEnabled("input_hash_index_v1")
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_input_hash ON runs(input_hash)`); err != nil {
		return err
	}
	return s.setMetaFlag("input_hash_index_v1")
}

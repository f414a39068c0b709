package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hurttlocker/coopsort/internal/schema"
)

const runColumns = `id, source, input_hash, columns, min_fields, diagnostics, record_count, created_at`

// SaveRun stores run and its records in one transaction. An empty ID gets a
// new UUID; a zero CreatedAt gets the current time. Returns the run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.RecordCount = len(run.Records)

	cols, err := json.Marshal(run.Columns)
	if err != nil {
		return "", fmt.Errorf("encoding columns: %w", err)
	}
	diag, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return "", fmt.Errorf("encoding diagnostics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.InputHash, string(cols), run.MinFields, string(diag),
		run.RecordCount, run.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (run_id, serial, cooperative, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Records {
		data, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encoding record %d: %w", r.Serial(), err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.Serial(), r.Get(schema.FieldCooperative), string(data)); err != nil {
			return "", fmt.Errorf("inserting record %d: %w", r.Serial(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// GetRun loads a run and its records. idOrPrefix may be a unique prefix of
// the run ID, as printed by the history listing.
func (s *SQLiteStore) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, ErrRunNotFound
	}
	runs, err := s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY rowid LIMIT 2`,
		idOrPrefix, escapeLike(idOrPrefix)+"%")
	if err != nil {
		return nil, err
	}
	var run *Run
	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrRunNotFound)
	case len(runs) == 1 || runs[0].ID == idOrPrefix:
		run = runs[0]
	case runs[1].ID == idOrPrefix:
		run = runs[1]
	default:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrAmbiguousRun)
	}

	records, err := s.runRecords(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Records = records
	return run, nil
}

// ListRuns returns runs newest first, without records.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if opts.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, opts.Source)
	}
	query += ` ORDER BY rowid DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)
	return s.queryRuns(ctx, query, args...)
}

// FindRunsByHash returns earlier runs of the same input, newest first.
func (s *SQLiteStore) FindRunsByHash(ctx context.Context, hash string) ([]*Run, error) {
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE input_hash = ? ORDER BY rowid DESC`, hash)
}

// DeleteRun removes a run and its records.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is a per-connection pragma; do not rely on the cascade.
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query string, args ...any) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r          Run
			cols, diag string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.InputHash, &cols, &r.MinFields, &diag,
			&r.RecordCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &r.Columns); err != nil {
			return nil, fmt.Errorf("decoding columns of run %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(diag), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("decoding diagnostics of run %s: %w", r.ID, err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) runRecords(ctx context.Context, runID string) ([]schema.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM records WHERE run_id = ? ORDER BY serial", runID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []schema.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var r schema.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// escapeLike escapes LIKE wildcards in a user-supplied prefix.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

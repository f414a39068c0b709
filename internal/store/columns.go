package store

import (
	"context"
	"fmt"
)

// SaveColumns replaces the saved column configuration.
func (s *SQLiteStore) SaveColumns(ctx context.Context, columns []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM columns"); err != nil {
		return fmt.Errorf("clearing columns: %w", err)
	}
	for i, c := range columns {
		if _, err := tx.ExecContext(ctx, "INSERT INTO columns (position, name) VALUES (?, ?)", i, c); err != nil {
			return fmt.Errorf("saving column %q: %w", c, err)
		}
	}
	return tx.Commit()
}

// LoadColumns returns the saved columns in order, or nil when none are saved.
func (s *SQLiteStore) LoadColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM columns ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("loading columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ResetColumns deletes the saved configuration so the default schema applies.
func (s *SQLiteStore) ResetColumns(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM columns"); err != nil {
		return fmt.Errorf("resetting columns: %w", err)
	}
	return nil
}

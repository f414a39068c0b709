// Package store provides the SQLite storage layer for coopsort.
//
// One database file holds:
// - the saved column configuration
// - parse runs with their source, diagnostics and input hash
// - the records each run produced, as ordered JSON objects
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.coopsort/coopsort.db"

// DefaultListLimit bounds ListRuns when no limit is given.
const DefaultListLimit = 20

var (
	// ErrRunNotFound is returned when no run matches an ID or prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun is returned when an ID prefix matches several runs.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// Run is one saved parse.
type Run struct {
	ID          string
	Source      string // file path, "-" for stdin, "mcp" for tool calls
	InputHash   string
	Columns     []string
	MinFields   int
	Diagnostics assemble.Diagnostics
	RecordCount int
	CreatedAt   time.Time

	// Records is filled by SaveRun callers and by GetRun; ListRuns leaves
	// it empty.
	Records []schema.Record
}

// ListOpts controls pagination for ListRuns.
type ListOpts struct {
	Limit  int
	Offset int
	Source string // exact source filter, empty for all
}

// StoreStats holds counts about the store.
type StoreStats struct {
	RunCount    int64
	RecordCount int64
	DBSizeBytes int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the storage interface.
type Store interface {
	// Columns
	SaveColumns(ctx context.Context, columns []string) error
	LoadColumns(ctx context.Context) ([]string, error)
	ResetColumns(ctx context.Context) error

	// Runs
	SaveRun(ctx context.Context, run *Run) (string, error)
	GetRun(ctx context.Context, idOrPrefix string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)
	FindRunsByHash(ctx context.Context, hash string) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	cfg.DBPath = ExpandPath(cfg.DBPath)

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stats returns row counts and the database file size (0 in memory).
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	st := &StoreStats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&st.RunCount); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&st.RecordCount); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}
	return st, nil
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// Package store persists host-owned state in SQLite: custom voice and brand
// profiles, monthly usage ledger snapshots, and a history of generation runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"contentforge/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the forge database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.StoreDebug("Opened store at %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	-- Custom voice/tone profiles; presets are never stored
	CREATE TABLE IF NOT EXISTS voice_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Brand profiles (each owns its voice inside profile_json)
	CREATE TABLE IF NOT EXISTS brand_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- One ledger snapshot per budget month (YYYY-MM)
	CREATE TABLE IF NOT EXISTS usage_snapshots (
		period TEXT PRIMARY KEY,
		snapshot_json TEXT NOT NULL,
		total_cost REAL NOT NULL,
		total_tokens INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Completed generate/chain/reason runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		provider TEXT,
		model TEXT,
		tokens INTEGER NOT NULL,
		cost REAL NOT NULL,
		output TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

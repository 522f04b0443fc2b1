package store

import (
	"database/sql"
	"fmt"
	"time"

	"contentforge/internal/logging"
)

// Schema versions:
// v1: voice_profiles, brand_profiles, usage_snapshots, runs
// v2: runs.duration_ms, usage_snapshots.calls
const CurrentSchemaVersion = 2

// Migration adds one column to an existing table.
type Migration struct {
	Version int
	Table   string
	Column  string
	Def     string
}

// pendingMigrations lists column additions in version order. Tables created
// by initSchema carry the v1 layout; these bring them forward.
var pendingMigrations = []Migration{
	{2, "runs", "duration_ms", "INTEGER NOT NULL DEFAULT 0"},
	{2, "usage_snapshots", "calls", "INTEGER NOT NULL DEFAULT 0"},
}

// runMigrations applies every pending column addition and records the
// resulting schema version.
func runMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	from := schemaVersion(db)
	if from >= CurrentSchemaVersion {
		logging.StoreDebug("Schema at version %d, nothing to migrate", from)
		return nil
	}

	applied := 0
	for _, m := range pendingMigrations {
		if m.Version <= from {
			continue
		}
		if !tableExists(db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	if err := setSchemaVersion(db, CurrentSchemaVersion); err != nil {
		return err
	}
	logging.Store("Schema migrated v%d -> v%d (%d columns added)", from, CurrentSchemaVersion, applied)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}

// schemaVersion returns the recorded schema version, or 1 for databases
// created before versions were tracked.
func schemaVersion(db *sql.DB) int {
	if !tableExists(db, "schema_versions") {
		return 1
	}
	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&version); err != nil {
		return 1
	}
	return version
}

func setSchemaVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_versions: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		version, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// SchemaVersion reports the database's schema version.
func (s *Store) SchemaVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schemaVersion(s.db)
}

package storage

import (
	"database/sql"
	"fmt"
)

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	if err := createMigrationsTable(db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		sql     string
	}{
		{1, "create_stream_records_table", createStreamRecordsTable},
		{2, "create_stream_records_indices", createStreamRecordsIndices},
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}

		if applied {
			continue
		}

		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}

		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

const createStreamRecordsTable = `
CREATE TABLE stream_records (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	provider TEXT NOT NULL,
	status TEXT NOT NULL,
	token_events INTEGER DEFAULT 0,
	envelopes INTEGER DEFAULT 0,
	output_tokens INTEGER DEFAULT 0,
	relevance_method TEXT NOT NULL DEFAULT 'NONE',
	relevance_score REAL DEFAULT 1.0,
	duration_ns INTEGER DEFAULT 0,
	started_at TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	error_message TEXT
);
`

const createStreamRecordsIndices = `
CREATE INDEX idx_stream_records_started_at ON stream_records(started_at);
CREATE INDEX idx_stream_records_model ON stream_records(model);
`

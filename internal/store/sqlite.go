package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the storage layer for jobs, profiles, advanced matching
// configs and LLM usage. Every query is scoped by user id.
type SQLiteStore struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		site_id      INTEGER NOT NULL,
		external_id  TEXT NOT NULL,
		external_url TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		company_logo TEXT NOT NULL DEFAULT '',
		location     TEXT NOT NULL DEFAULT '',
		salary       TEXT NOT NULL DEFAULT '',
		tags         TEXT NOT NULL DEFAULT '[]',
		job_type     TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		created_at   INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL,
		UNIQUE (user_id, site_id, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_feed_idx ON jobs (user_id, status, updated_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id               TEXT PRIMARY KEY,
		subscription_tier     TEXT NOT NULL,
		subscription_end_date INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS advanced_matching (
		user_id               TEXT PRIMARY KEY,
		chatgpt_prompt        TEXT NOT NULL DEFAULT '',
		blacklisted_companies TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS chatgpt_usage (
		user_id       TEXT PRIMARY KEY,
		calls         INTEGER NOT NULL DEFAULT 0,
		cost          REAL NOT NULL DEFAULT 0,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0
	)`,
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under
	// the concurrent counter queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

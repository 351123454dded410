package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/marcus/taskchat/internal/logging"
)

// Migration represents a single schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: tasks, conversation, messages",
		SQL:         migration001SQL,
	},
	{
		Version:     2,
		Description: "add last_reminded_at to tasks",
		SQL:         migration002SQL,
	},
}

// conversation holds a single row (id = 1): the caller-owned dialogue
// context carried between turns.
const migration001SQL = `
CREATE TABLE tasks (
    id          TEXT PRIMARY KEY,
    position    INTEGER NOT NULL,
    title       TEXT NOT NULL,
    due_date    TEXT NOT NULL,
    due_time    TEXT NOT NULL,
    priority    TEXT NOT NULL,
    reminder    INTEGER NOT NULL DEFAULT 0,
    completed   INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL
);

CREATE TABLE conversation (
    id               INTEGER PRIMARY KEY CHECK (id = 1),
    state            TEXT NOT NULL,
    draft            TEXT,
    selected_task_id TEXT NOT NULL DEFAULT '',
    update_field     TEXT NOT NULL DEFAULT '',
    updated_at       DATETIME NOT NULL
);

CREATE TABLE messages (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    sender      TEXT NOT NULL,
    text        TEXT NOT NULL,
    timestamp   DATETIME NOT NULL
);

CREATE INDEX idx_tasks_position ON tasks(position);
`

const migration002SQL = `
ALTER TABLE tasks ADD COLUMN last_reminded_at DATETIME;
`

// Migrate runs all pending migrations inside transactions.
func Migrate(db *sql.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at DATETIME)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	log := logging.Component("db")
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", migration.Version, err)
		}

		log.InfoCtx("applied migration", map[string]any{
			"version":     migration.Version,
			"description": migration.Description,
		})
		currentVersion = migration.Version
	}

	return nil
}

// CurrentVersion returns the current schema version (0 if no migrations applied).
func CurrentVersion(db *sql.DB) (int, error) {
	if db == nil {
		return 0, errors.New("db is nil")
	}

	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("query schema_version: %w", err)
	}
	return version, nil
}

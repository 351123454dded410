// Package db owns the taskchat SQLite file. Everything a chat needs to
// resume lives here: the ordered task list, the single conversation row
// holding the dialogue state and draft, and the message transcript.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/marcus/taskchat/internal/config"
)

// busyTimeoutMS lets the TUI and a reminder daemon share the file without
// failing on brief write locks.
const busyTimeoutMS = 5000

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMS),
	"PRAGMA foreign_keys=ON;",
}

// DB is an open taskchat database.
type DB struct {
	sql  *sql.DB
	path string
}

// DefaultPath is where the task store lives when storage.db_path is unset.
func DefaultPath() string {
	return filepath.Join(config.DefaultDataDir(), "taskchat.db")
}

// Open opens the task store at dbPath, creating the file and its directory
// on first use, and brings the schema up to date. A leading ~ is expanded.
//
// After Open returns, the tasks, conversation and messages tables exist
// and the conversation table holds at most one row.
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		dbPath = DefaultPath()
	}
	resolved := config.ExpandPath(dbPath)

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	for _, step := range []func(*sql.DB) error{ping, applyPragmas, Migrate} {
		if err := step(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return &DB{sql: sqlDB, path: resolved}, nil
}

// Close releases the file. Safe on a nil DB.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SQL exposes the handle for the state package's queries.
func (d *DB) SQL() *sql.DB {
	if d == nil {
		return nil
	}
	return d.sql
}

// Path is the expanded file path the store was opened at.
func (d *DB) Path() string {
	if d == nil {
		return ""
	}
	return d.path
}

func ping(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return nil
}

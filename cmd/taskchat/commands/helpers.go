package commands

import (
	"fmt"
	"io"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/config"
	"github.com/marcus/taskchat/internal/db"
	"github.com/marcus/taskchat/internal/logging"
	"github.com/marcus/taskchat/internal/session"
	"github.com/marcus/taskchat/internal/state"
)

// app bundles everything a command needs to talk to the task store.
type app struct {
	cfg     *config.Config
	db      *db.DB
	state   *state.State
	session *session.Session
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathFlag != "" {
		cfg.Storage.DBPath = dbPathFlag
	}
	if verboseFlag {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// initLogging sets up the global logger. fallback receives log output
// when no log directory is configured.
func initLogging(cfg *config.Config, fallback io.Writer) error {
	return logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Path:   cfg.ExpandedLogPath(),
		Format: cfg.Logging.Format,
		Output: fallback,
	})
}

// openApp loads config, starts logging, and opens the store.
func openApp(logFallback io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg, logFallback); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	database, err := db.Open(cfg.ExpandedDBPath())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st, err := state.New(database)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init state: %w", err)
	}

	sess, err := session.New(assistant.New(), st)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init session: %w", err)
	}

	return &app{cfg: cfg, db: database, state: st, session: sess}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

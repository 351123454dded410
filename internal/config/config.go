// Package config handles loading and validating taskchat configuration.
// Supports YAML config files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all taskchat configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// StorageConfig controls where tasks and the conversation are persisted.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Path   string `mapstructure:"path"`   // log directory
	Format string `mapstructure:"format"` // json, text
}

// RemindersConfig controls the reminder digest schedule.
type RemindersConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"` // standard 5-field expression
}

// ChatConfig controls the interactive chat surface.
type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"` // transcript messages loaded on start
}

const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultReminderCron  = "0 9 * * *"
	DefaultHistoryLimit  = 200
	projectConfigName    = "taskchat.yaml"
	envPrefix            = "TASKCHAT"
	globalConfigDirName  = "taskchat"
	globalConfigFileName = "config.yaml"
)

var (
	ErrInvalidLogLevel     = errors.New("logging.level must be one of debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be json or text")
	ErrNoReminderSchedule  = errors.New("reminders.cron is required when reminders are enabled")
	ErrInvalidCron         = errors.New("reminders.cron is not a valid cron expression")
	ErrInvalidHistoryLimit = errors.New("chat.history_limit must not be negative")
)

// DefaultDataDir returns the directory holding the database and logs.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "taskchat")
}

// GlobalConfigPath returns the path of the user-wide config file.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", globalConfigDirName, globalConfigFileName)
}

func setDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()
	v.SetDefault("storage.db_path", filepath.Join(dataDir, "taskchat.db"))
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", filepath.Join(dataDir, "logs"))
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.cron", DefaultReminderCron)
	v.SetDefault("chat.history_limit", DefaultHistoryLimit)
}

// Load reads configuration from the global config, a taskchat.yaml in the
// working directory, and TASKCHAT_* environment variables.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	return LoadFromPaths(cwd, GlobalConfigPath())
}

// LoadFromPaths loads the global config at globalPath, then merges the
// project config found in projectDir over it. Missing files are skipped.
func LoadFromPaths(projectDir, globalPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if globalPath == "" {
		globalPath = GlobalConfigPath()
	}
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if projectDir != "" {
		projectPath := filepath.Join(projectDir, projectConfigName)
		if fileExists(projectPath) {
			v.SetConfigFile(projectPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("reading project config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config values for consistency.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return ErrInvalidLogFormat
	}

	if cfg.Reminders.Enabled && cfg.Reminders.Cron == "" {
		return ErrNoReminderSchedule
	}
	if cfg.Reminders.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Reminders.Cron); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCron, err)
		}
	}

	if cfg.Chat.HistoryLimit < 0 {
		return ErrInvalidHistoryLimit
	}
	return nil
}

// Set writes a single key to the config file at path, creating it if needed.
// The resulting file must still validate.
func Set(path, key, value string) error {
	if path == "" {
		path = GlobalConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if fileExists(path) {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	v.Set(key, value)

	check := viper.New()
	setDefaults(check)
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("merge config: %w", err)
	}
	var cfg Config
	if err := check.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return err
	}

	if err := v.WriteConfig(); err != nil {
		if os.IsNotExist(err) {
			return v.SafeWriteConfig()
		}
		return err
	}
	return nil
}

// ExpandedDBPath returns the database path with ~ expanded.
func (c *Config) ExpandedDBPath() string {
	return ExpandPath(c.Storage.DBPath)
}

// ExpandedLogPath returns the log directory with ~ expanded.
func (c *Config) ExpandedLogPath() string {
	return ExpandPath(c.Logging.Path)
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

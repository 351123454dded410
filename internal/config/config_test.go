package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level: "verbose",
		},
	}
	err := Validate(cfg)
	if err != ErrInvalidLogLevel {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Format: "xml",
		},
	}
	err := Validate(cfg)
	if err != ErrInvalidLogFormat {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}

func TestValidate_RemindersWithoutCron(t *testing.T) {
	cfg := &Config{
		Reminders: RemindersConfig{Enabled: true},
	}
	err := Validate(cfg)
	if err != ErrNoReminderSchedule {
		t.Errorf("expected ErrNoReminderSchedule, got %v", err)
	}
}

func TestValidate_InvalidCron(t *testing.T) {
	cfg := &Config{
		Reminders: RemindersConfig{Enabled: true, Cron: "every morning"},
	}
	err := Validate(cfg)
	if !errors.Is(err, ErrInvalidCron) {
		t.Errorf("expected ErrInvalidCron, got %v", err)
	}
}

func TestValidate_NegativeHistoryLimit(t *testing.T) {
	cfg := &Config{
		Chat: ChatConfig{HistoryLimit: -1},
	}
	err := Validate(cfg)
	if err != ErrInvalidHistoryLimit {
		t.Errorf("expected ErrInvalidHistoryLimit, got %v", err)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Reminders: RemindersConfig{
			Enabled: true,
			Cron:    "30 8 * * 1-5",
		},
		Chat: ChatConfig{HistoryLimit: 50},
	}
	err := Validate(cfg)
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	t.Setenv("TASKCHAT_TEST_DIR", "/srv/taskchat")
	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"$TASKCHAT_TEST_DIR/db", "/srv/taskchat/db"},
		{"", ""},
	}
	for _, tc := range tests {
		result := ExpandPath(tc.input)
		if result != tc.expected {
			t.Errorf("ExpandPath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestLoadFromPaths_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if !cfg.Reminders.Enabled || cfg.Reminders.Cron != DefaultReminderCron {
		t.Errorf("Reminders = %+v, want enabled with %q", cfg.Reminders, DefaultReminderCron)
	}
	if cfg.Chat.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("Chat.HistoryLimit = %d, want %d", cfg.Chat.HistoryLimit, DefaultHistoryLimit)
	}
	wantDB := filepath.Join(tmpDir, ".local", "share", "taskchat", "taskchat.db")
	if cfg.Storage.DBPath != wantDB {
		t.Errorf("Storage.DBPath = %q, want %q", cfg.Storage.DBPath, wantDB)
	}
}

func TestLoadFromPaths_WithYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "taskchat.yaml")

	configContent := `
storage:
  db_path: /tmp/tasks.db
reminders:
  cron: "0 7 * * *"
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "nonexistent", "global.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.Storage.DBPath != "/tmp/tasks.db" {
		t.Errorf("Storage.DBPath = %q, want /tmp/tasks.db", cfg.Storage.DBPath)
	}
	if cfg.Reminders.Cron != "0 7 * * *" {
		t.Errorf("Reminders.Cron = %q, want %q", cfg.Reminders.Cron, "0 7 * * *")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}
}

func TestLoadFromPaths_MergeConfigs(t *testing.T) {
	tmpDir := t.TempDir()

	globalDir := filepath.Join(tmpDir, "global")
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatal(err)
	}
	globalConfig := filepath.Join(globalDir, "config.yaml")
	globalContent := `
chat:
  history_limit: 75
logging:
  level: info
`
	if err := os.WriteFile(globalConfig, []byte(globalContent), 0644); err != nil {
		t.Fatal(err)
	}

	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	projectContent := `
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(projectDir, "taskchat.yaml"), []byte(projectContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPaths(projectDir, globalConfig)
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug (project override)", cfg.Logging.Level)
	}
	if cfg.Chat.HistoryLimit != 75 {
		t.Errorf("Chat.HistoryLimit = %d, want 75 (from global)", cfg.Chat.HistoryLimit)
	}
}

func TestLoadFromPaths_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TASKCHAT_LOGGING_LEVEL", "warn")
	t.Setenv("TASKCHAT_REMINDERS_ENABLED", "false")

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Reminders.Enabled {
		t.Error("Reminders.Enabled = true, want false from env")
	}
}

func TestLoadFromPaths_InvalidFileRejected(t *testing.T) {
	tmpDir := t.TempDir()
	content := "logging:\n  level: loud\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "taskchat.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "none.yaml"))
	if err != ErrInvalidLogLevel {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestSet(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "conf", "config.yaml")

	if err := Set(path, "logging.level", "debug"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(path, "reminders.cron", "15 18 * * *"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cfg, err := LoadFromPaths("", path)
	if err != nil {
		t.Fatalf("LoadFromPaths: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Reminders.Cron != "15 18 * * *" {
		t.Errorf("Reminders.Cron = %q", cfg.Reminders.Cron)
	}

	if err := Set(path, "logging.format", "xml"); err != ErrInvalidLogFormat {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}

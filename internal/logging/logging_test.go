package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "json file",
			cfg:     Config{Path: tmpDir, Level: "info", Format: "json"},
			wantErr: false,
		},
		{
			name:    "text format",
			cfg:     Config{Path: tmpDir, Level: "debug", Format: "text"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			cfg:     Config{Path: tmpDir, Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "writer only",
			cfg:     Config{Level: "info", Output: &bytes.Buffer{}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && logger != nil {
				_ = logger.Close()
			}
		})
	}
}

func TestLoggerWritesFile(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{Path: tmpDir, Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Debug("debug msg")
	logger.Infof("info %s", "formatted")
	logger.WarnCtx("warn ctx", map[string]any{"key": "value"})

	logFile := FilePath(tmpDir, time.Now())
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not readable: %v", err)
	}
	if strings.Count(string(data), "\n") != 3 {
		t.Errorf("expected 3 log lines, got:\n%s", data)
	}
	if logger.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", logger.Dir(), tmpDir)
	}
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	comp := logger.WithComponent("session")
	if comp.component != "session" {
		t.Errorf("component = %q, want session", comp.component)
	}
	comp.InfoCtx("turn", map[string]any{"state": "idle"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "session" || entry["state"] != "idle" || entry["message"] != "turn" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level filtering failed: %q", buf.String())
	}
}

func TestLogRotation(t *testing.T) {
	tmpDir := t.TempDir()

	for _, daysAgo := range []int{10, 8, 3} {
		name := FilePath(tmpDir, time.Now().AddDate(0, 0, -daysAgo))
		if err := os.WriteFile(name, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test log file: %v", err)
		}
	}

	logger, err := New(Config{Path: tmpDir, Level: "info", RetentionDays: 7})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	// Wait for cleanup goroutine
	time.Sleep(100 * time.Millisecond)

	cutoff := time.Now().AddDate(0, 0, -7)
	entries, _ := os.ReadDir(tmpDir)
	for _, entry := range entries {
		if logDate, ok := FileDate(entry.Name()); ok && logDate.Before(cutoff) {
			t.Errorf("old log file should have been deleted: %s", entry.Name())
		}
	}
}

func TestListFiles(t *testing.T) {
	tmpDir := t.TempDir()

	for _, daysAgo := range []int{0, 1, 2} {
		name := FilePath(tmpDir, time.Now().AddDate(0, 0, -daysAgo))
		if err := os.WriteFile(name, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test log file: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(tmpDir)
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("expected 3 log files, got %d", len(files))
	}
	if len(files) >= 2 && files[0] < files[1] {
		t.Error("log files not sorted newest first")
	}

	missing, err := ListFiles(filepath.Join(tmpDir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("ListFiles(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestFileDate(t *testing.T) {
	tests := []struct {
		name   string
		wantOK bool
	}{
		{"taskchat-2026-10-15.log", true},
		{"taskchat-yesterday.log", false},
		{"notes-2026-10-15.log", false},
		{"taskchat-2026-10-15.txt", false},
	}
	for _, tt := range tests {
		if _, ok := FileDate(tt.name); ok != tt.wantOK {
			t.Errorf("FileDate(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	tmpDir := t.TempDir()

	if err := Init(Config{Path: tmpDir, Level: "info"}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	compLogger := Component("test")
	if compLogger.component != "test" {
		t.Errorf("Component() returned wrong component")
	}
	compLogger.Info("hello")

	if Get().Dir() != tmpDir {
		t.Errorf("Get().Dir() = %q, want %q", Get().Dir(), tmpDir)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"DEBUG", false},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := ParseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

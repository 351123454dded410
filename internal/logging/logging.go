// Package logging provides structured logging for taskchat.
// Logs go to date-named files in a log directory (JSON or text) with
// retention cleanup, or to a fallback writer when no directory is set.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcus/taskchat/internal/config"
)

// FilePrefix and fileSuffix bracket the date in log file names:
// taskchat-2006-01-02.log.
const (
	FilePrefix = "taskchat-"
	fileSuffix = ".log"
	dateLayout = "2006-01-02"
)

// Logger wraps zerolog with taskchat-specific helpers.
type Logger struct {
	zl        zerolog.Logger
	component string
	logDir    string
	file      *os.File
	mu        sync.Mutex
}

// Config holds logging configuration.
type Config struct {
	Level         string    // debug, info, warn, error
	Path          string    // log directory; empty disables file output
	Format        string    // json, text
	RetentionDays int       // days to keep log files (default 7)
	Output        io.Writer // used when Path is empty (default stderr)
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil && globalLogger.file != nil {
		_ = globalLogger.file.Close()
	}
	globalLogger = logger
	return nil
}

// New creates a new Logger instance.
func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 7
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := &Logger{}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Path != "" {
		logger.logDir = config.ExpandPath(cfg.Path)
		if err := os.MkdirAll(logger.logDir, 0755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}

		f, err := os.OpenFile(FilePath(logger.logDir, time.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.file = f
		output = f

		go logger.cleanOldLogs(cfg.RetentionDays)
	}

	if cfg.Format == "text" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	logger.zl = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, nil
}

// FilePath returns the log file path for the day containing t.
func FilePath(dir string, t time.Time) string {
	return filepath.Join(dir, FilePrefix+t.Format(dateLayout)+fileSuffix)
}

// FileDate extracts the date from a log file name. ok is false for files
// that are not taskchat logs.
func FileDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	dateStr := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), fileSuffix)
	d, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// cleanOldLogs removes log files older than retention days.
func (l *Logger) cleanOldLogs(retentionDays int) {
	entries, err := os.ReadDir(l.logDir)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		logDate, ok := FileDate(entry.Name())
		if ok && logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(l.logDir, entry.Name()))
		}
	}
}

// WithComponent returns a new Logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zl:        l.zl.With().Str("component", component).Logger(),
		component: component,
		logDir:    l.logDir,
		file:      l.file,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

// DebugCtx logs a debug message with fields.
func (l *Logger) DebugCtx(msg string, fields map[string]any) {
	withFields(l.zl.Debug(), fields).Msg(msg)
}

// InfoCtx logs an info message with fields.
func (l *Logger) InfoCtx(msg string, fields map[string]any) {
	withFields(l.zl.Info(), fields).Msg(msg)
}

// WarnCtx logs a warning message with fields.
func (l *Logger) WarnCtx(msg string, fields map[string]any) {
	withFields(l.zl.Warn(), fields).Msg(msg)
}

func withFields(event *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	return event
}

// Err starts an error event carrying err.
func (l *Logger) Err(err error) *zerolog.Event {
	return l.zl.Error().Err(err)
}

// Dir returns the log directory, or "" when logging to a writer.
func (l *Logger) Dir() string {
	return l.logDir
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ListFiles returns taskchat log files in dir sorted newest first.
// A missing directory yields no files.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FileDate(entry.Name()); ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i] > files[j]
	})
	return files, nil
}

// Get returns the global logger, or a stderr logger before Init.
func Get() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return &Logger{
			zl: zerolog.New(os.Stderr).With().Timestamp().Logger(),
		}
	}
	return globalLogger
}

// Component returns a global logger with the specified component.
func Component(name string) *Logger {
	return Get().WithComponent(name)
}

// ParseLevel converts a level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

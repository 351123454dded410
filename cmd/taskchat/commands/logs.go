package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View logs",
	Long: `View taskchat logs.

Displays recent log entries. Use --follow to stream logs in real-time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tail, _ := cmd.Flags().GetInt("tail")
		follow, _ := cmd.Flags().GetBool("follow")
		export, _ := cmd.Flags().GetString("export")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logDir := cfg.ExpandedLogPath()
		if logDir == "" {
			return fmt.Errorf("logging.path is not set; logs are not written to disk")
		}

		out := cmd.OutOrStdout()
		if export != "" {
			return exportLogs(out, logDir, export)
		}
		if follow {
			return followLogs(out, logDir, tail)
		}
		return showLogs(out, logDir, tail)
	},
}

func init() {
	logsCmd.Flags().IntP("tail", "n", 50, "Number of log lines to show")
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().StringP("export", "e", "", "Export logs to file")
	rootCmd.AddCommand(logsCmd)
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Level     string    `json:"level"`
	Time      time.Time `json:"time"`
	Message   string    `json:"message"`
	Component string    `json:"component,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func showLogs(w io.Writer, logDir string, n int) error {
	files, err := logging.ListFiles(logDir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(w, "No log files found.")
		return nil
	}

	for _, line := range readLastLines(files, n) {
		printLogLine(w, line)
	}
	return nil
}

func followLogs(w io.Writer, logDir string, initialLines int) error {
	files, err := logging.ListFiles(logDir)
	if err != nil {
		return err
	}

	if len(files) > 0 && initialLines > 0 {
		for _, line := range readLastLines(files, initialLines) {
			printLogLine(w, line)
		}
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logDir); err != nil {
		return fmt.Errorf("watching log dir: %w", err)
	}

	currentFile := currentLogFile(logDir)
	var file *os.File
	var reader *bufio.Reader

	if currentFile != "" {
		file, err = os.Open(currentFile)
		if err == nil {
			_, _ = file.Seek(0, io.SeekEnd)
			reader = bufio.NewReader(file)
		}
	}
	defer func() {
		if file != nil {
			_ = file.Close()
		}
	}()

	fmt.Fprintln(w, "--- Following logs (Ctrl+C to exit) ---")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Date rollover opens a new file.
			newFile := currentLogFile(logDir)
			if newFile != currentFile {
				if file != nil {
					_ = file.Close()
				}
				currentFile = newFile
				file, err = os.Open(currentFile)
				if err != nil {
					file, reader = nil, nil
					continue
				}
				reader = bufio.NewReader(file)
			}

			if event.Op&fsnotify.Write == fsnotify.Write && reader != nil {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						break
					}
					printLogLine(w, strings.TrimSuffix(line, "\n"))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func exportLogs(w io.Writer, logDir, outFile string) error {
	files, err := logging.ListFiles(logDir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no log files found")
	}

	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	totalLines := 0

	// ListFiles is newest first; export oldest first.
	for i := len(files) - 1; i >= 0; i-- {
		for _, line := range readFileLines(files[i]) {
			if _, err := io.WriteString(out, line+"\n"); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			totalLines++
		}
	}

	fmt.Fprintf(w, "Exported %d log lines to %s\n", totalLines, outFile)
	return nil
}

func currentLogFile(logDir string) string {
	path := logging.FilePath(logDir, time.Now())
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// readLastLines returns the last n lines across files, which are ordered
// newest first.
func readLastLines(files []string, n int) []string {
	var lines []string

	for _, file := range files {
		if len(lines) >= n {
			break
		}

		fileLines := readFileLines(file)
		remaining := n - len(lines)

		if len(fileLines) <= remaining {
			lines = append(fileLines, lines...)
		} else {
			lines = append(fileLines[len(fileLines)-remaining:], lines...)
		}
	}

	return lines
}

func readFileLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func printLogLine(w io.Writer, line string) {
	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Message == "" {
		fmt.Fprintln(w, line)
		return
	}

	level := formatLogLevel(entry.Level)
	ts := entry.Time.Local().Format("15:04:05")

	if entry.Component != "" {
		fmt.Fprintf(w, "%s %s [%s] %s", ts, level, entry.Component, entry.Message)
	} else {
		fmt.Fprintf(w, "%s %s %s", ts, level, entry.Message)
	}
	if entry.Error != "" {
		fmt.Fprintf(w, " error=%s", entry.Error)
	}
	fmt.Fprintln(w)
}

func formatLogLevel(level string) string {
	switch level {
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	}
	if len(level) >= 3 {
		return strings.ToUpper(level[:3])
	}
	return strings.ToUpper(level)
}

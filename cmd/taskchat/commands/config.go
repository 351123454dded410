package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the global config file, or in
./taskchat.yaml with --project. Keys use dotted paths, for example:

  taskchat config set reminders.cron "30 8 * * 1-5"
  taskchat config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetBool("project")

		path := config.GlobalConfigPath()
		if project {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path = filepath.Join(cwd, "taskchat.yaml")
		}

		if err := config.Set(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the global config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GlobalConfigPath())
	},
}

func init() {
	configSetCmd.Flags().Bool("project", false, "Write to ./taskchat.yaml instead of the global config")
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func printConfig(w io.Writer, cfg *config.Config) {
	rows := []struct {
		key   string
		value any
	}{
		{"storage.db_path", cfg.ExpandedDBPath()},
		{"logging.level", cfg.Logging.Level},
		{"logging.path", cfg.ExpandedLogPath()},
		{"logging.format", cfg.Logging.Format},
		{"reminders.enabled", cfg.Reminders.Enabled},
		{"reminders.cron", cfg.Reminders.Cron},
		{"chat.history_limit", cfg.Chat.HistoryLimit},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %v\n", r.key, r.value)
	}
}

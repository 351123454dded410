package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics",
	Long: `Display statistics about your tasks and chat history.

Shows completion, priority mix, reminder coverage, and how long open
tasks have been waiting. Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := openApp(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		result, err := stats.New(a.state).Compute(cmd.Context())
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		renderStatsHuman(out, result)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func renderStatsHuman(w io.Writer, result *stats.StatsResult) {
	fmt.Fprintln(w, "Taskchat Stats")
	fmt.Fprintln(w, "================================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tasks")
	fmt.Fprintf(w, "  Total:        %d\n", result.TotalTasks)
	fmt.Fprintf(w, "  Completed:    %d", result.Completed)
	if result.TotalTasks > 0 {
		fmt.Fprintf(w, " (%.0f%%)", result.CompletionRate)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Pending:      %d\n", result.Pending)
	for _, p := range []assistant.Priority{assistant.PriorityHigh, assistant.PriorityMedium, assistant.PriorityLow} {
		fmt.Fprintf(w, "  %-13s %d\n", string(p)+":", result.ByPriority[string(p)])
	}
	fmt.Fprintln(w)

	if result.Pending > 0 {
		fmt.Fprintln(w, "Waiting")
		fmt.Fprintf(w, "  Avg age:      %s\n", result.AvgPendingAge.String())
		if op := result.OldestPending; op != nil {
			fmt.Fprintf(w, "  Oldest:       #%d %s (%s)\n", op.Number, op.Title, op.Age.String())
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Reminders")
	fmt.Fprintf(w, "  Active:       %d\n", result.WithReminders)
	fmt.Fprintf(w, "  Sent:         %d\n", result.Reminded)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chat")
	fmt.Fprintf(w, "  Messages:     %d (%d from you)\n", result.Messages, result.UserMessages)
	if result.FirstActivity != nil {
		fmt.Fprintf(w, "  Since:        %s\n", result.FirstActivity.Local().Format("Jan 2, 2006"))
	}
	if result.LastActivity != nil {
		fmt.Fprintf(w, "  Last active:  %s\n", humanize.Time(*result.LastActivity))
	}
	fmt.Fprintf(w, "  State:        %s\n", result.ConversationState)
}

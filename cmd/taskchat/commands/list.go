package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/assistant"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks in the same order the chat numbers them.

Use --pending to hide completed tasks and --json for machine-readable output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("pending", false, "Only show incomplete tasks")
	listCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	pending, _ := cmd.Flags().GetBool("pending")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tasks, err := a.state.Tasks(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(numberTasks(tasks, pending))
	}
	writeTaskList(out, tasks, pending, time.Now())
	return nil
}

// writeTaskList prints the table, or a one-line note when the filter
// leaves nothing to show.
func writeTaskList(w io.Writer, tasks []assistant.Task, pendingOnly bool, now time.Time) {
	shown := numberTasks(tasks, pendingOnly)
	switch {
	case len(tasks) == 0:
		fmt.Fprintln(w, "No tasks yet.")
	case len(shown) == 0:
		fmt.Fprintln(w, "No pending tasks. Everything is done.")
	default:
		renderTaskTable(w, shown, now)
	}
}

// numberedTask pairs a task with its 1-based chat position.
type numberedTask struct {
	Number int `json:"number"`
	assistant.Task
}

// numberTasks assigns chat positions before filtering so numbers always
// match what the chat would accept.
func numberTasks(tasks []assistant.Task, pendingOnly bool) []numberedTask {
	out := make([]numberedTask, 0, len(tasks))
	for i, t := range tasks {
		if pendingOnly && t.Completed {
			continue
		}
		out = append(out, numberedTask{Number: i + 1, Task: t})
	}
	return out
}

func renderTaskTable(w io.Writer, tasks []numberedTask, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Status", "Title", "Due", "Priority", "Reminder", "Added"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, t := range tasks {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		reminder := "no"
		if t.Reminder {
			reminder = "yes"
		}
		added := "-"
		if !t.CreatedAt.IsZero() {
			added = humanize.RelTime(t.CreatedAt, now, "ago", "from now")
		}
		table.Append([]string{
			strconv.Itoa(t.Number),
			status,
			t.Title,
			t.DueDate + " " + t.DueTime,
			string(t.Priority),
			reminder,
			added,
		})
	}
	table.Render()
}

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the chat transcript",
	Long:  `Print recent chat messages, oldest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tail, _ := cmd.Flags().GetInt("tail")

		a, err := openApp(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		msgs, err := a.session.History(cmd.Context(), tail)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No messages yet.")
			return nil
		}
		printTranscript(cmd.OutOrStdout(), msgs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("tail", "n", 20, "Number of messages to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printTranscript(w io.Writer, msgs []state.Message) {
	for _, m := range msgs {
		who := "assistant"
		if m.Sender == state.SenderUser {
			who = "you"
		}
		prefix := fmt.Sprintf("[%s] %s: ", m.Timestamp.Local().Format("2006-01-02 15:04"), who)
		indent := strings.Repeat(" ", len(prefix))
		lines := strings.Split(m.Text, "\n")
		fmt.Fprintln(w, prefix+lines[0])
		for _, line := range lines[1:] {
			if line == "" {
				fmt.Fprintln(w)
				continue
			}
			fmt.Fprintln(w, indent+line)
		}
	}
}

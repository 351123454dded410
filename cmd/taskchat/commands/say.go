package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single chat message and print the assistant's reply.

The conversation is saved between invocations, so multi-step flows work
across calls:

  taskchat say add
  taskchat say "Buy milk"
  taskchat say "tomorrow 5pm"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func init() {
	rootCmd.AddCommand(sayCmd)
}

func runSay(cmd *cobra.Command, args []string) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ex, err := a.session.Send(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ex.Reply.Text)
	return nil
}

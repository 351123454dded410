package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Abandon the current conversation flow",
	Long: `Return the assistant to idle, discarding any half-finished add,
update, or delete. Tasks are not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clearHistory, _ := cmd.Flags().GetBool("clear-history")

		a, err := openApp(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		ctx := cmd.Context()
		if err := a.session.Reset(ctx); err != nil {
			return err
		}
		if clearHistory {
			if err := a.state.ClearMessages(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation reset and transcript cleared.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Conversation reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("clear-history", false, "Also delete the chat transcript")
	rootCmd.AddCommand(resetCmd)
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the full-screen chat interface.

Type a message and press enter, or use the quick action keys:
F1 add, F2 view, F3 update, F4 delete. Press esc to quit.
The conversation picks up where it left off last time.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	// Log output must never reach the terminal while the TUI owns it.
	a, err := openApp(io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	history, err := a.session.Start(ctx, a.cfg.Chat.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	conv, err := a.session.Conversation(ctx)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	return ui.New(ctx, a.session, history, conv.State).Run()
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/taskchat/internal/config"
	"github.com/marcus/taskchat/internal/logging"
	"github.com/marcus/taskchat/internal/reminders"
	"github.com/marcus/taskchat/internal/scheduler"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Print reminders for tasks that asked for one",
	Long: `Print a digest of incomplete tasks with a reminder set.

With --daemon, keep running and print a digest on the reminders.cron
schedule (default every day at 9:00) until interrupted.`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().Bool("daemon", false, "Run on the configured schedule until interrupted")
	rootCmd.AddCommand(remindCmd)
}

func runRemind(cmd *cobra.Command, args []string) error {
	daemon, _ := cmd.Flags().GetBool("daemon")

	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	notifier, err := reminders.NewNotifier(a.state, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if !daemon {
		due, err := notifier.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), reminders.Format(nil, nil, time.Now()))
		}
		return nil
	}

	if !a.cfg.Reminders.Enabled {
		return errors.New("reminders are disabled (set reminders.enabled: true)")
	}
	return runReminderLoop(cmd.Context(), cmd.OutOrStdout(), &a.cfg.Reminders, notifier)
}

func runReminderLoop(parent context.Context, out io.Writer, cfg *config.RemindersConfig, notifier *reminders.Notifier) error {
	log := logging.Component("remind")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Infof("received signal %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sched, err := scheduler.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.AddJob(notifier.Job)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	next := sched.NextRun()
	log.InfoCtx("reminder loop running", map[string]any{
		"next_run": next.Format(time.RFC3339),
	})
	fmt.Fprintf(out, "Reminders scheduled (%s). Next digest %s. Ctrl+C to stop.\n",
		cfg.Cron, next.Format("Mon Jan 2 15:04"))

	<-ctx.Done()

	if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotRunning) {
		log.Errorf("stopping scheduler: %v", err)
	}
	log.Info("reminder loop stopped")
	return nil
}

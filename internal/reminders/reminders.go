// Package reminders builds and delivers digests of tasks that asked for a
// reminder.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/logging"
)

// Store is the slice of the state store the notifier needs.
type Store interface {
	Tasks(ctx context.Context) ([]assistant.Task, error)
	LastReminded(ctx context.Context) (map[string]time.Time, error)
	MarkReminded(ctx context.Context, ids []string, at time.Time) error
}

// Due returns the incomplete tasks with a reminder set, in list order.
func Due(tasks []assistant.Task) []assistant.Task {
	var due []assistant.Task
	for _, t := range tasks {
		if t.Reminder && !t.Completed {
			due = append(due, t)
		}
	}
	return due
}

// Format renders a reminder digest. lastReminded may be nil.
func Format(tasks []assistant.Task, lastReminded map[string]time.Time, now time.Time) string {
	if len(tasks) == 0 {
		return "🔔 No reminders right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 You have %d %s with reminders:\n", len(tasks), plural(len(tasks), "task", "tasks"))
	for i, t := range tasks {
		fmt.Fprintf(&b, "\n%d. %s\n   📅 %s at %s\n   ⚡ %s\n", i+1, t.Title, t.DueDate, t.DueTime, t.Priority)
		if at, ok := lastReminded[t.ID]; ok {
			fmt.Fprintf(&b, "   last reminded %s\n", humanize.RelTime(at, now, "ago", "from now"))
		} else if !t.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "   added %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Notifier writes reminder digests for due tasks.
type Notifier struct {
	store Store
	out   io.Writer
	now   func() time.Time
	log   *logging.Logger
}

// NewNotifier creates a Notifier writing to out.
func NewNotifier(store Store, out io.Writer) (*Notifier, error) {
	if store == nil {
		return nil, errors.New("reminders: store is nil")
	}
	if out == nil {
		out = io.Discard
	}
	return &Notifier{
		store: store,
		out:   out,
		now:   time.Now,
		log:   logging.Component("reminders"),
	}, nil
}

// SetClock overrides the notifier's time source.
func (n *Notifier) SetClock(now func() time.Time) {
	n.now = now
}

// Sweep writes one digest covering every due task and records the reminder
// time for each. It returns the tasks included; with nothing due it writes
// nothing.
func (n *Notifier) Sweep(ctx context.Context) ([]assistant.Task, error) {
	tasks, err := n.store.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	due := Due(tasks)
	if len(due) == 0 {
		n.log.Debug("no reminders due")
		return nil, nil
	}

	last, err := n.store.LastReminded(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reminder history: %w", err)
	}

	now := n.now()
	if _, err := fmt.Fprintln(n.out, Format(due, last, now)); err != nil {
		return nil, fmt.Errorf("write digest: %w", err)
	}

	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	if err := n.store.MarkReminded(ctx, ids, now); err != nil {
		return due, fmt.Errorf("mark reminded: %w", err)
	}

	n.log.InfoCtx("reminder digest sent", map[string]any{"tasks": len(due)})
	return due, nil
}

// Job adapts Sweep to the scheduler's job signature.
func (n *Notifier) Job(ctx context.Context) error {
	_, err := n.Sweep(ctx)
	return err
}

// Package stats computes aggregate statistics over the task list and chat
// transcript.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/state"
)

// Duration wraps time.Duration for clean JSON serialization as seconds.
type Duration struct {
	time.Duration
}

// MarshalJSON serializes Duration as integer seconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(d.Seconds()))
}

// UnmarshalJSON deserializes Duration from integer seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	d.Duration = time.Duration(secs) * time.Second
	return nil
}

// String returns a human-readable duration string.
func (d Duration) String() string {
	dur := d.Duration
	switch {
	case dur < time.Minute:
		return fmt.Sprintf("%ds", int(dur.Seconds()))
	case dur < time.Hour:
		return fmt.Sprintf("%dm %ds", int(dur.Minutes()), int(dur.Seconds())%60)
	case dur < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(dur.Hours()), int(dur.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(dur.Hours())/24, int(dur.Hours())%24)
}

// StatsResult holds all computed statistics, JSON-serializable.
type StatsResult struct {
	// Tasks
	TotalTasks     int            `json:"total_tasks"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	CompletionRate float64        `json:"completion_rate"`
	ByPriority     map[string]int `json:"by_priority"`

	// Age of incomplete tasks
	AvgPendingAge Duration     `json:"avg_pending_age"`
	OldestPending *PendingTask `json:"oldest_pending,omitempty"`

	// Reminders
	WithReminders int `json:"with_reminders"`
	Reminded      int `json:"reminded"`

	// Transcript
	Messages      int        `json:"messages"`
	UserMessages  int        `json:"user_messages"`
	FirstActivity *time.Time `json:"first_activity,omitempty"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`

	ConversationState string `json:"conversation_state"`
}

// PendingTask identifies an incomplete task and how long it has waited.
type PendingTask struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Age    Duration `json:"age"`
}

// Source is the read side of the state store.
type Source interface {
	Tasks(ctx context.Context) ([]assistant.Task, error)
	Conversation(ctx context.Context) (assistant.Conversation, error)
	Messages(ctx context.Context, limit int) ([]state.Message, error)
	LastReminded(ctx context.Context) (map[string]time.Time, error)
}

// Stats computes aggregate statistics from a state source.
type Stats struct {
	src     Source
	nowFunc func() time.Time
}

// New creates a Stats instance.
func New(src Source) *Stats {
	return &Stats{
		src:     src,
		nowFunc: time.Now,
	}
}

// Compute aggregates all available data into a StatsResult.
func (s *Stats) Compute(ctx context.Context) (*StatsResult, error) {
	result := &StatsResult{
		ByPriority: map[string]int{
			string(assistant.PriorityHigh):   0,
			string(assistant.PriorityMedium): 0,
			string(assistant.PriorityLow):    0,
		},
	}

	tasks, err := s.src.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	s.computeFromTasks(result, tasks)

	reminded, err := s.src.LastReminded(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	result.Reminded = len(reminded)

	msgs, err := s.src.Messages(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	computeFromMessages(result, msgs)

	conv, err := s.src.Conversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	result.ConversationState = string(conv.State)

	return result, nil
}

func (s *Stats) computeFromTasks(result *StatsResult, tasks []assistant.Task) {
	now := s.nowFunc()
	var totalAge time.Duration

	result.TotalTasks = len(tasks)
	for i, t := range tasks {
		result.ByPriority[string(t.Priority)]++
		if t.Reminder && !t.Completed {
			result.WithReminders++
		}
		if t.Completed {
			result.Completed++
			continue
		}

		result.Pending++
		age := now.Sub(t.CreatedAt)
		if t.CreatedAt.IsZero() || age < 0 {
			age = 0
		}
		totalAge += age
		if result.OldestPending == nil || age > result.OldestPending.Age.Duration {
			result.OldestPending = &PendingTask{Number: i + 1, Title: t.Title, Age: Duration{age}}
		}
	}

	if result.TotalTasks > 0 {
		result.CompletionRate = float64(result.Completed) / float64(result.TotalTasks) * 100
	}
	if result.Pending > 0 {
		result.AvgPendingAge = Duration{totalAge / time.Duration(result.Pending)}
	}
}

func computeFromMessages(result *StatsResult, msgs []state.Message) {
	result.Messages = len(msgs)
	for _, m := range msgs {
		if m.Sender == state.SenderUser {
			result.UserMessages++
		}
	}
	if len(msgs) > 0 {
		first, last := msgs[0].Timestamp, msgs[len(msgs)-1].Timestamp
		result.FirstActivity = &first
		result.LastActivity = &last
	}
}

// Package assistant implements the rule-based dialogue engine that turns
// free-text chat messages into task list operations.
//
// The engine is a pure function of (tasks, conversation, text). Callers own
// the task list and conversation between turns and pass snapshots in on
// every call.
package assistant

import (
	"errors"
	"time"
)

// Priority is a task's priority level.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DefaultDueTime is used when no time is recognized in a date/time answer.
const DefaultDueTime = "9:00 AM"

// Task is a single to-do item.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date"`
	DueTime   string    `json:"due_time"`
	Priority  Priority  `json:"priority"`
	Reminder  bool      `json:"reminder"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// State is a position in a multi-turn flow.
type State string

const (
	StateIdle             State = "idle"
	StateAddingTitle      State = "adding-title"
	StateAddingDate       State = "adding-date"
	StateAddingPriority   State = "adding-priority"
	StateAddingReminder   State = "adding-reminder"
	StateUpdatingSelect   State = "updating-select"
	StateUpdatingField    State = "updating-field"
	StateDeletingSelect   State = "deleting-select"
	StateConfirmingAction State = "confirming-action"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateAddingTitle, StateAddingDate, StateAddingPriority,
		StateAddingReminder, StateUpdatingSelect, StateUpdatingField,
		StateDeletingSelect, StateConfirmingAction:
		return true
	}
	return false
}

// IsAdding reports whether s belongs to the add flow.
func (s State) IsAdding() bool {
	switch s {
	case StateAddingTitle, StateAddingDate, StateAddingPriority, StateAddingReminder:
		return true
	}
	return false
}

// Field names a task field editable through the update flow.
type Field string

const (
	FieldTitle    Field = "title"
	FieldDateTime Field = "date/time"
	FieldPriority Field = "priority"
	FieldReminder Field = "reminder"
)

// updateOptions maps menu numbers to fields. Option 5 (toggle completion)
// is handled directly and has no field.
var updateOptions = map[int]Field{
	1: FieldTitle,
	2: FieldDateTime,
	3: FieldPriority,
	4: FieldReminder,
}

// Conversation tracks where the user is in a multi-turn flow.
// Only State is meaningful when idle.
type Conversation struct {
	State          State  `json:"state"`
	Draft          *Draft `json:"draft,omitempty"`
	SelectedTaskID string `json:"selected_task_id,omitempty"`
	UpdateField    Field  `json:"update_field,omitempty"`
}

// Idle returns a conversation in the idle state.
func Idle() Conversation {
	return Conversation{State: StateIdle}
}

// ErrIncompleteDraft is returned when a draft is finalized before every
// required field has been collected.
var ErrIncompleteDraft = errors.New("draft task is incomplete")

// Draft accumulates task fields during the add flow. A nil field has not
// been answered yet.
type Draft struct {
	Title    *string   `json:"title,omitempty"`
	DueDate  *string   `json:"due_date,omitempty"`
	DueTime  *string   `json:"due_time,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
}

// clone returns a deep copy; a nil draft clones to an empty one.
func (d *Draft) clone() *Draft {
	out := &Draft{}
	if d == nil {
		return out
	}
	out.Title = copyPtr(d.Title)
	out.DueDate = copyPtr(d.DueDate)
	out.DueTime = copyPtr(d.DueTime)
	out.Priority = copyPtr(d.Priority)
	return out
}

// Finalize converts the draft into a complete task.
func (d *Draft) Finalize(id string, createdAt time.Time, reminder bool) (Task, error) {
	if d == nil || d.Title == nil || d.DueDate == nil || d.DueTime == nil || d.Priority == nil {
		return Task{}, ErrIncompleteDraft
	}
	return Task{
		ID:        id,
		Title:     *d.Title,
		DueDate:   *d.DueDate,
		DueTime:   *d.DueTime,
		Priority:  *d.Priority,
		Reminder:  reminder,
		Completed: false,
		CreatedAt: createdAt,
	}, nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

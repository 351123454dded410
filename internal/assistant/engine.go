package assistant

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reply texts shared by several steps.
const (
	replyAskTitle       = "What is the task?"
	replyAskDateTime    = "What is the due date & time? (e.g., Tomorrow 3pm, Dec 25 2pm)"
	replyAskPriority    = "Any priority? (High/Medium/Low)"
	replyAskReminder    = "Do you want to add a reminder? (Yes/No)"
	replyNoTasksUpdate  = "You don't have any tasks yet. Would you like to add one?"
	replyNoTasksDelete  = "You don't have any tasks to delete."
	replyNoTasksView    = "You don't have any tasks yet. Want to add one?"
	replyInvalidTask    = "Invalid selection. Please enter a valid task number."
	replyInvalidOption  = "Invalid selection. Please enter a number from 1-5."
	replyTaskNotFound   = "Task not found."
	replyNotUnderstood  = "I didn't understand that. Can you try again?"
	replyDraftLost      = "Sorry, I lost track of that task. Say \"add\" to start over."
	replyUnknownField   = "Sorry, I lost track of what you wanted to change. Please start the update again."
	headerUpdateSelect  = "Which task would you like to update?"
	headerDeleteSelect  = "Which task would you like to delete?"
	headerViewTasks     = "Here are your tasks:"
	replyMarkedComplete = "✅ Task marked as complete!"
	replyMarkedOpen     = "✅ Task marked as incomplete!"
)

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a new unique task identifier.
type IDGenerator func() string

// Result is the outcome of one turn.
type Result struct {
	Reply        string
	Conversation Conversation
	// Tasks holds the complete new task list when Mutated is true.
	Tasks   []Task
	Mutated bool
}

// Engine interprets chat turns. It holds no conversation state of its own.
type Engine struct {
	now   Clock
	newID IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for dates and creation stamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.now = c
	}
}

// WithIDGenerator sets the task identifier source.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.newID = g
	}
}

// New creates an Engine. By default it uses the wall clock and random UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process interprets one message against the given snapshot. Neither tasks
// nor conv is modified.
func (e *Engine) Process(tasks []Task, conv Conversation, text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch conv.State {
	case StateIdle:
		return e.classify(tasks, lower)
	case StateAddingTitle, StateAddingDate, StateAddingPriority, StateAddingReminder:
		return e.add(tasks, conv, text, lower)
	case StateUpdatingSelect:
		return e.updateSelect(tasks, conv, text)
	case StateUpdatingField:
		return e.updateField(tasks, conv, text)
	case StateConfirmingAction:
		return e.confirm(tasks, conv, text, lower)
	case StateDeletingSelect:
		return e.deleteSelect(tasks, conv, text)
	}
	return Result{Reply: replyNotUnderstood, Conversation: conv}
}

func reply(text string, conv Conversation) Result {
	return Result{Reply: text, Conversation: conv}
}

func mutated(text string, tasks []Task) Result {
	return Result{Reply: text, Conversation: Idle(), Tasks: tasks, Mutated: true}
}

// Intent is the operation inferred from an idle-state message.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentAdd
	IntentUpdate
	IntentDelete
	IntentList
)

// intentKeywords is checked in order; the first group with a match wins.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentAdd, []string{"add", "create", "new task"}},
	{IntentUpdate, []string{"update", "edit", "change"}},
	{IntentDelete, []string{"delete", "remove"}},
	{IntentList, []string{"view", "show", "list", "tasks"}},
}

// ClassifyIntent maps an idle-state message to an intent by keyword
// containment.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentUnknown
}

func (e *Engine) classify(tasks []Task, lower string) Result {
	switch ClassifyIntent(lower) {
	case IntentAdd:
		return reply(replyAskTitle, Conversation{State: StateAddingTitle, Draft: &Draft{}})
	case IntentUpdate:
		if len(tasks) == 0 {
			return reply(replyNoTasksUpdate, Idle())
		}
		return reply(FormatTaskList(headerUpdateSelect, tasks), Conversation{State: StateUpdatingSelect})
	case IntentDelete:
		if len(tasks) == 0 {
			return reply(replyNoTasksDelete, Idle())
		}
		return reply(FormatTaskList(headerDeleteSelect, tasks), Conversation{State: StateDeletingSelect})
	case IntentList:
		if len(tasks) == 0 {
			return reply(replyNoTasksView, Idle())
		}
		return reply(FormatTaskList(headerViewTasks, tasks), Idle())
	}
	return reply(helpText, Idle())
}

func (e *Engine) add(tasks []Task, conv Conversation, text, lower string) Result {
	draft := conv.Draft.clone()

	switch conv.State {
	case StateAddingTitle:
		draft.Title = &text
		return reply(replyAskDateTime, Conversation{State: StateAddingDate, Draft: draft})

	case StateAddingDate:
		date, clock := ParseDateTime(text, e.now())
		draft.DueDate = &date
		draft.DueTime = &clock
		return reply(replyAskPriority, Conversation{State: StateAddingPriority, Draft: draft})

	case StateAddingPriority:
		p := ParsePriority(text)
		draft.Priority = &p
		return reply(replyAskReminder, Conversation{State: StateAddingReminder, Draft: draft})
	}

	task, err := draft.Finalize(e.newID(), e.now(), IsAffirmative(lower))
	if err != nil {
		return reply(replyDraftLost, Idle())
	}
	updated := append(slices.Clone(tasks), task)
	return mutated(createdSummary(task), updated)
}

// selectTask resolves a 1-based index answer against the current list.
func selectTask(tasks []Task, text string) (Task, bool) {
	n, ok := parseIndex(text)
	if !ok || n < 1 || n > len(tasks) {
		return Task{}, false
	}
	return tasks[n-1], true
}

func findTask(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// replaceTask returns a copy of tasks with the task matching t.ID swapped
// for t.
func replaceTask(tasks []Task, t Task) []Task {
	out := slices.Clone(tasks)
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
		}
	}
	return out
}

func (e *Engine) updateSelect(tasks []Task, conv Conversation, text string) Result {
	task, ok := selectTask(tasks, text)
	if !ok {
		return reply(replyInvalidTask, conv)
	}
	return reply(updateMenu(task), Conversation{State: StateUpdatingField, SelectedTaskID: task.ID})
}

func (e *Engine) updateField(tasks []Task, conv Conversation, text string) Result {
	task, ok := findTask(tasks, conv.SelectedTaskID)
	if !ok {
		return reply(replyTaskNotFound, Idle())
	}

	n, _ := parseIndex(text)
	if n == 5 {
		task.Completed = !task.Completed
		msg := replyMarkedOpen
		if task.Completed {
			msg = replyMarkedComplete
		}
		return mutated(msg, replaceTask(tasks, task))
	}

	field, ok := updateOptions[n]
	if !ok {
		return reply(replyInvalidOption, conv)
	}
	return reply("What's the new "+string(field)+"?", Conversation{
		State:          StateConfirmingAction,
		SelectedTaskID: task.ID,
		UpdateField:    field,
	})
}

func (e *Engine) confirm(tasks []Task, conv Conversation, text, lower string) Result {
	task, ok := findTask(tasks, conv.SelectedTaskID)
	if !ok {
		return reply(replyTaskNotFound, Idle())
	}

	switch conv.UpdateField {
	case FieldTitle:
		task.Title = text
	case FieldDateTime:
		task.DueDate, task.DueTime = ParseDateTime(text, e.now())
	case FieldPriority:
		task.Priority = ParsePriority(text)
	case FieldReminder:
		task.Reminder = IsAffirmative(lower)
	default:
		return reply(replyUnknownField, Idle())
	}
	return mutated(updatedSummary(task), replaceTask(tasks, task))
}

func (e *Engine) deleteSelect(tasks []Task, conv Conversation, text string) Result {
	task, ok := selectTask(tasks, text)
	if !ok {
		return reply(replyInvalidTask, conv)
	}
	remaining := make([]Task, 0, len(tasks)-1)
	for _, t := range tasks {
		if t.ID != task.ID {
			remaining = append(remaining, t)
		}
	}
	return mutated(`✅ Task deleted: "`+task.Title+`"`, remaining)
}

// Package state persists the caller-owned side of a taskchat conversation:
// the ordered task list, the current dialogue context, and the chat
// transcript. The dialogue engine itself is stateless; this package is
// where its snapshots live between turns.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/db"
)

// ErrNilDB is returned by New when no database is supplied.
var ErrNilDB = errors.New("state: db is nil")

const timeLayout = time.RFC3339Nano

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one chat bubble in the transcript.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

// State reads and writes persisted conversation state.
type State struct {
	db *db.DB
}

// New creates a State backed by database.
func New(database *db.DB) (*State, error) {
	if database == nil || database.SQL() == nil {
		return nil, ErrNilDB
	}
	return &State{db: database}, nil
}

// Tasks returns all tasks in list order.
func (s *State) Tasks(ctx context.Context) ([]assistant.Task, error) {
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT id, title, due_date, due_time, priority, reminder, completed, created_at
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]assistant.Task, 0)
	for rows.Next() {
		var (
			t         assistant.Task
			priority  string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.DueTime, &priority, &t.Reminder, &t.Completed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = assistant.Priority(priority)
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("task %s created_at: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *State) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", what, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", what, err)
	}
	return nil
}

// ReplaceTasks makes the stored list equal to tasks, in order. Rows are
// matched by ID so per-task bookkeeping such as last_reminded_at survives.
func (s *State) ReplaceTasks(ctx context.Context, tasks []assistant.Task) error {
	return s.inTx(ctx, "replace tasks", func(tx *sql.Tx) error {
		return replaceTasks(ctx, tx, tasks)
	})
}

func replaceTasks(ctx context.Context, ex execer, tasks []assistant.Task) error {
	if len(tasks) == 0 {
		if _, err := ex.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return fmt.Errorf("clear tasks: %w", err)
		}
	} else {
		ids := make([]any, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		if _, err := ex.ExecContext(ctx, `DELETE FROM tasks WHERE id NOT IN (`+placeholders+`)`, ids...); err != nil {
			return fmt.Errorf("delete removed tasks: %w", err)
		}
	}

	stmt, err := ex.PrepareContext(ctx, `
		INSERT INTO tasks (id, position, title, due_date, due_time, priority, reminder, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			title = excluded.title,
			due_date = excluded.due_date,
			due_time = excluded.due_time,
			priority = excluded.priority,
			reminder = excluded.reminder,
			completed = excluded.completed`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, i, t.Title, t.DueDate, t.DueTime, string(t.Priority),
			t.Reminder, t.Completed, t.CreatedAt.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("upsert task %s: %w", t.ID, err)
		}
	}
	return nil
}

// Conversation returns the stored dialogue context, or idle if none.
func (s *State) Conversation(ctx context.Context) (assistant.Conversation, error) {
	row := s.db.SQL().QueryRowContext(ctx, `
		SELECT state, draft, selected_task_id, update_field FROM conversation WHERE id = 1`)

	var (
		conv  assistant.Conversation
		state string
		draft sql.NullString
		field string
	)
	if err := row.Scan(&state, &draft, &conv.SelectedTaskID, &field); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return assistant.Idle(), nil
		}
		return assistant.Conversation{}, fmt.Errorf("query conversation: %w", err)
	}
	conv.State = assistant.State(state)
	conv.UpdateField = assistant.Field(field)

	if draft.Valid && draft.String != "" {
		var d assistant.Draft
		if err := json.Unmarshal([]byte(draft.String), &d); err != nil {
			return assistant.Conversation{}, fmt.Errorf("decode draft: %w", err)
		}
		conv.Draft = &d
	}
	return conv, nil
}

// SaveConversation stores conv verbatim.
func (s *State) SaveConversation(ctx context.Context, conv assistant.Conversation) error {
	return saveConversation(ctx, s.db.SQL(), conv)
}

func saveConversation(ctx context.Context, ex execer, conv assistant.Conversation) error {
	var draft sql.NullString
	if conv.Draft != nil {
		data, err := json.Marshal(conv.Draft)
		if err != nil {
			return fmt.Errorf("encode draft: %w", err)
		}
		draft = sql.NullString{String: string(data), Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO conversation (id, state, draft, selected_task_id, update_field, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			draft = excluded.draft,
			selected_task_id = excluded.selected_task_id,
			update_field = excluded.update_field,
			updated_at = excluded.updated_at`,
		string(conv.State), draft, conv.SelectedTaskID, string(conv.UpdateField),
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// AppendMessage adds a message to the transcript.
func (s *State) AppendMessage(ctx context.Context, m Message) error {
	return appendMessage(ctx, s.db.SQL(), m)
}

func appendMessage(ctx context.Context, ex execer, m Message) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO messages (id, sender, text, timestamp) VALUES (?, ?, ?, ?)`,
		m.ID, string(m.Sender), m.Text, m.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Turn is everything one chat turn writes back.
type Turn struct {
	User         Message
	Reply        Message
	Conversation assistant.Conversation
	// Tasks replaces the stored list only when Mutated is set.
	Tasks   []assistant.Task
	Mutated bool
}

// CommitTurn stores a turn atomically: both transcript messages, the
// conversation, and the task list when it changed. On error nothing is
// written, so the stored tasks and conversation always agree.
func (s *State) CommitTurn(ctx context.Context, turn Turn) error {
	return s.inTx(ctx, "commit turn", func(tx *sql.Tx) error {
		if err := appendMessage(ctx, tx, turn.User); err != nil {
			return err
		}
		if turn.Mutated {
			if err := replaceTasks(ctx, tx, turn.Tasks); err != nil {
				return err
			}
		}
		if err := saveConversation(ctx, tx, turn.Conversation); err != nil {
			return err
		}
		return appendMessage(ctx, tx, turn.Reply)
	})
}

// Messages returns the most recent limit messages, oldest first.
// A limit of zero or less returns the whole transcript.
func (s *State) Messages(ctx context.Context, limit int) ([]Message, error) {
	query := `SELECT id, sender, text, timestamp FROM messages ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var (
			m      Message
			sender string
			ts     string
		)
		if err := rows.Scan(&m.ID, &sender, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = Sender(sender)
		if m.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("message %s timestamp: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearMessages deletes the transcript.
func (s *State) ClearMessages(ctx context.Context) error {
	if _, err := s.db.SQL().ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// MarkReminded records that a reminder was sent for each task ID.
func (s *State) MarkReminded(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	stamp := at.UTC().Format(timeLayout)
	return s.inTx(ctx, "mark reminded", func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `UPDATE tasks SET last_reminded_at = ? WHERE id = ?`, stamp, id); err != nil {
				return fmt.Errorf("mark reminded %s: %w", id, err)
			}
		}
		return nil
	})
}

// LastReminded returns when each task was last included in a reminder.
// Tasks never reminded are absent from the map.
func (s *State) LastReminded(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT id, last_reminded_at FROM tasks WHERE last_reminded_at IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query last reminded: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan last reminded: %w", err)
		}
		t, err := time.Parse(timeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("task %s last_reminded_at: %w", id, err)
		}
		out[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate last reminded: %w", err)
	}
	return out, nil
}

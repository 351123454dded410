package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/session"
	"github.com/marcus/taskchat/internal/state"
)

type fakeChat struct {
	sent []string
	next assistant.State
	err  error
}

func (f *fakeChat) Send(_ context.Context, text string) (session.Exchange, error) {
	f.sent = append(f.sent, text)
	if f.err != nil {
		return session.Exchange{}, f.err
	}
	ts := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return session.Exchange{
		User:         state.Message{ID: "u", Text: text, Sender: state.SenderUser, Timestamp: ts},
		Reply:        state.Message{ID: "a", Text: "reply to " + text, Sender: state.SenderAssistant, Timestamp: ts},
		Conversation: assistant.Conversation{State: f.next},
	}, nil
}

func newTestModel(chat Chat) Model {
	greeting := state.Message{ID: "g", Text: session.GreetingText, Sender: state.SenderAssistant, Timestamp: time.Now()}
	return *New(context.Background(), chat, []state.Message{greeting}, assistant.StateIdle)
}

// run executes cmd, expanding batches, and feeds every resulting message
// back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = run(t, m, c)
		}
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestNew(t *testing.T) {
	m := newTestModel(&fakeChat{})

	if m.width != 80 || m.height != 24 {
		t.Errorf("size = %dx%d, want 80x24", m.width, m.height)
	}
	if len(m.messages) != 1 {
		t.Errorf("expected greeting in transcript, got %d messages", len(m.messages))
	}
	if m.styles == nil {
		t.Error("expected styles to be initialized")
	}
	if m.viewport.Height != 24-chrome {
		t.Errorf("viewport height = %d, want %d", m.viewport.Height, 24-chrome)
	}
}

func TestEnterSendsMessage(t *testing.T) {
	chat := &fakeChat{next: assistant.StateAddingTitle}
	m := typeText(newTestModel(chat), "add")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if !m.pending {
		t.Error("expected pending after enter")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	m = run(t, m, cmd)
	if m.pending {
		t.Error("pending should clear after the exchange")
	}
	if len(chat.sent) != 1 || chat.sent[0] != "add" {
		t.Errorf("sent = %v, want [add]", chat.sent)
	}
	if len(m.messages) != 3 {
		t.Fatalf("transcript has %d messages, want 3", len(m.messages))
	}
	if m.messages[2].Text != "reply to add" {
		t.Errorf("last message = %q", m.messages[2].Text)
	}
	if m.convState != assistant.StateAddingTitle {
		t.Errorf("convState = %q, want adding-title", m.convState)
	}
	if !strings.Contains(m.View(), "Adding a task") {
		t.Error("header should describe the add flow")
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	chat := &fakeChat{}
	m := typeText(newTestModel(chat), "   ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd != nil || m.pending || len(chat.sent) != 0 {
		t.Errorf("blank input should not send (cmd=%v pending=%v sent=%v)", cmd != nil, m.pending, chat.sent)
	}
}

func TestQuickActions(t *testing.T) {
	keys := []tea.KeyType{tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4}

	for i, key := range keys {
		chat := &fakeChat{}
		m := newTestModel(chat)

		next, cmd := m.Update(tea.KeyMsg{Type: key})
		m = run(t, next.(Model), cmd)

		if len(chat.sent) != 1 || chat.sent[0] != QuickActions[i].Label {
			t.Errorf("%s sent %v, want [%s]", QuickActions[i].Key, chat.sent, QuickActions[i].Label)
		}
	}
}

func TestNoSendWhilePending(t *testing.T) {
	chat := &fakeChat{}
	m := newTestModel(chat)
	m.pending = true

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyF1})
	if cmd != nil {
		t.Error("quick action should be ignored while a turn is pending")
	}
	m = typeText(next.(Model), "hi")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter should be ignored while a turn is pending")
	}
}

func TestSendError(t *testing.T) {
	chat := &fakeChat{err: errors.New("disk full")}
	m := typeText(newTestModel(chat), "add")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, next.(Model), cmd)

	if m.pending {
		t.Error("pending should clear after an error")
	}
	if m.err == nil || !strings.Contains(m.View(), "disk full") {
		t.Error("error should be shown in the header")
	}
	if len(m.messages) != 1 {
		t.Errorf("failed turn should not add messages, have %d", len(m.messages))
	}
}

func TestQuit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := newTestModel(&fakeChat{})
		next, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("%v: expected quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v: expected tea.QuitMsg", key)
		}
		if next.(Model).View() != "" {
			t.Errorf("%v: view should be empty after quitting", key)
		}
	}
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(&fakeChat{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	if m.viewport.Width != 120 || m.viewport.Height != 40-chrome {
		t.Errorf("viewport = %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

func TestDescribeState(t *testing.T) {
	tests := []struct {
		state assistant.State
		want  string
	}{
		{assistant.StateIdle, "Always here to help"},
		{assistant.StateAddingReminder, "Adding a task"},
		{assistant.StateUpdatingField, "Updating a task"},
		{assistant.StateConfirmingAction, "Updating a task"},
		{assistant.StateDeletingSelect, "Deleting a task"},
		{assistant.State("bogus"), "Always here to help"},
	}
	for _, tt := range tests {
		if got := describeState(tt.state); got != tt.want {
			t.Errorf("describeState(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestViewRendersTranscript(t *testing.T) {
	m := newTestModel(&fakeChat{})
	view := m.View()

	for _, want := range []string{"Task Assistant", "task assistant", "F1", "Add task", "F4", "Delete task", "esc"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

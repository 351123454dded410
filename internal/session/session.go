// Package session drives the dialogue engine against persisted state. Each
// Send is one chat turn: run the engine on the stored snapshot, then commit
// the user message, the reply and whatever the engine returned together.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/logging"
	"github.com/marcus/taskchat/internal/state"
)

// GreetingText opens every fresh chat.
const GreetingText = "Hi! I'm your task assistant. I can help you add, update, delete, and view tasks. What would you like to do?"

var (
	ErrEmptyMessage = errors.New("session: message is empty")
	ErrNilEngine    = errors.New("session: engine is nil")
	ErrNilState     = errors.New("session: state is nil")
)

// Exchange is the result of one turn.
type Exchange struct {
	User         state.Message
	Reply        state.Message
	Conversation assistant.Conversation
	Mutated      bool
}

// Session serializes chat turns for one task list.
type Session struct {
	engine *assistant.Engine
	state  *state.State
	log    *logging.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a Session.
func New(engine *assistant.Engine, st *state.State) (*Session, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if st == nil {
		return nil, ErrNilState
	}
	return &Session{
		engine: engine,
		state:  st,
		log:    logging.Component("session"),
		now:    time.Now,
	}, nil
}

// Greeting returns the assistant's opening message, stamped now.
func (s *Session) Greeting() state.Message {
	return s.message(state.SenderAssistant, GreetingText)
}

// Start returns up to limit recent transcript messages. An empty
// transcript is seeded with the greeting.
func (s *Session) Start(ctx context.Context, limit int) ([]state.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.state.Messages(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		return history, nil
	}

	greeting := s.Greeting()
	if err := s.state.AppendMessage(ctx, greeting); err != nil {
		return nil, err
	}
	return []state.Message{greeting}, nil
}

// Send runs one turn for text.
func (s *Session) Send(ctx context.Context, text string) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userMsg := s.message(state.SenderUser, text)

	tasks, err := s.state.Tasks(ctx)
	if err != nil {
		return Exchange{}, err
	}
	conv, err := s.state.Conversation(ctx)
	if err != nil {
		return Exchange{}, err
	}
	if !conv.State.Valid() {
		s.log.WarnCtx("stored conversation has unknown state", map[string]any{"state": string(conv.State)})
	}

	res := s.engine.Process(tasks, conv, text)
	reply := s.message(state.SenderAssistant, res.Reply)

	if err := s.state.CommitTurn(ctx, state.Turn{
		User:         userMsg,
		Reply:        reply,
		Conversation: res.Conversation,
		Tasks:        res.Tasks,
		Mutated:      res.Mutated,
	}); err != nil {
		return Exchange{}, err
	}

	s.log.DebugCtx("turn", map[string]any{
		"from":    string(conv.State),
		"to":      string(res.Conversation.State),
		"mutated": res.Mutated,
		"tasks":   len(tasks),
	})
	if res.Mutated {
		s.log.InfoCtx("task list changed", map[string]any{
			"before": len(tasks),
			"after":  len(res.Tasks),
		})
	}

	return Exchange{
		User:         userMsg,
		Reply:        reply,
		Conversation: res.Conversation,
		Mutated:      res.Mutated,
	}, nil
}

// Reset abandons any in-progress flow.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.SaveConversation(ctx, assistant.Idle()); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	s.log.Info("conversation reset")
	return nil
}

// Conversation returns the stored dialogue context.
func (s *Session) Conversation(ctx context.Context) (assistant.Conversation, error) {
	return s.state.Conversation(ctx)
}

// Tasks returns the stored task list.
func (s *Session) Tasks(ctx context.Context) ([]assistant.Task, error) {
	return s.state.Tasks(ctx)
}

// History returns up to limit recent transcript messages, oldest first.
func (s *Session) History(ctx context.Context, limit int) ([]state.Message, error) {
	return s.state.Messages(ctx, limit)
}

func (s *Session) message(sender state.Sender, text string) state.Message {
	return state.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
}

// Package ui provides the terminal chat interface for taskchat.
// Uses Bubbletea with a scrolling transcript, a text input, and quick
// action keys.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/taskchat/internal/assistant"
	"github.com/marcus/taskchat/internal/session"
	"github.com/marcus/taskchat/internal/state"
)

// Chat runs one conversation turn.
type Chat interface {
	Send(ctx context.Context, text string) (session.Exchange, error)
}

// QuickAction is a canned message bound to a key.
type QuickAction struct {
	Key   string
	Label string
}

// QuickActions send their label exactly as if it were typed.
var QuickActions = []QuickAction{
	{Key: "f1", Label: "Add task"},
	{Key: "f2", Label: "View tasks"},
	{Key: "f3", Label: "Update task"},
	{Key: "f4", Label: "Delete task"},
}

// chrome is the number of rows used by everything except the transcript:
// header (2), quick actions (1), bordered input (3), help bar (1).
const chrome = 7

// Model holds the TUI state.
type Model struct {
	ctx  context.Context
	chat Chat

	messages  []state.Message
	convState assistant.State
	pending   bool
	err       error

	width    int
	height   int
	quitting bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	styles   *Styles
}

// Styles holds lipgloss styles for the UI.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	AssistantBubble lipgloss.Style
	UserBubble      lipgloss.Style
	Timestamp       lipgloss.Style

	Input lipgloss.Style
	Error lipgloss.Style

	ActionKey   lipgloss.Style
	ActionLabel lipgloss.Style

	HelpKey  lipgloss.Style
	HelpText lipgloss.Style
}

func newStyles() *Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#888"}
	highlight := lipgloss.AdaptiveColor{Light: "#075E54", Dark: "#25D366"}
	userBg := lipgloss.AdaptiveColor{Light: "#DCF8C6", Dark: "#005C4B"}
	assistantBg := lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#202C33"}
	red := lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#f85149"}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		Subtitle: lipgloss.NewStyle().
			Foreground(subtle),

		AssistantBubble: lipgloss.NewStyle().
			Background(assistantBg).
			Padding(0, 1).
			MarginBottom(1),

		UserBubble: lipgloss.NewStyle().
			Background(userBg).
			Padding(0, 1).
			MarginBottom(1),

		Timestamp: lipgloss.NewStyle().
			Foreground(subtle),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight),

		Error: lipgloss.NewStyle().
			Foreground(red).
			Bold(true),

		ActionKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		ActionLabel: lipgloss.NewStyle(),

		HelpKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		HelpText: lipgloss.NewStyle().
			Foreground(subtle),
	}
}

// exchangeMsg carries a finished turn back into Update.
type exchangeMsg session.Exchange

// sendErrMsg reports a failed turn.
type sendErrMsg struct{ err error }

// New creates a chat model showing history, with the conversation
// currently in conv.
func New(ctx context.Context, chat Chat, history []state.Message, conv assistant.State) *Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	m := &Model{
		ctx:       ctx,
		chat:      chat,
		messages:  append([]state.Message(nil), history...),
		convState: conv,
		width:     80,
		height:    24,
		viewport:  viewport.New(80, 24-chrome),
		input:     input,
		spinner:   spin,
		styles:    newStyles(),
	}
	m.resize(m.width, m.height)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case exchangeMsg:
		m.pending = false
		m.err = nil
		m.messages = append(m.messages, msg.User, msg.Reply)
		m.convState = msg.Conversation.State
		m.refresh()
		return m, nil

	case sendErrMsg:
		m.pending = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" || m.pending {
			return m, nil
		}
		m.input.Reset()
		return m.submit(text)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	for _, action := range QuickActions {
		if action.Key == key {
			if m.pending {
				return m, nil
			}
			return m.submit(action.Label)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn for text in the background.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.pending = true
	chat, ctx := m.chat, m.ctx
	send := func() tea.Msg {
		ex, err := chat.Send(ctx, text)
		if err != nil {
			return sendErrMsg{err: err}
		}
		return exchangeMsg(ex)
	}
	return m, tea.Batch(send, m.spinner.Tick)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 1)
	m.input.Width = max(width-6, 10)
	m.refresh()
}

// refresh re-renders the transcript and scrolls to the newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	width := m.viewport.Width
	maxBubble := max(width*3/4, 20)

	var b strings.Builder
	for _, msg := range m.messages {
		style, align := m.styles.AssistantBubble, lipgloss.Left
		if msg.Sender == state.SenderUser {
			style, align = m.styles.UserBubble, lipgloss.Right
		}

		stamp := m.styles.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))
		body := msg.Text + "\n" + stamp

		contentWidth := min(lipgloss.Width(body), maxBubble-2)
		bubble := style.Width(contentWidth + 2).Render(body)

		b.WriteString(lipgloss.PlaceHorizontal(width, align, bubble))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderQuickActions(),
		m.styles.Input.Width(max(m.width-2, 10)).Render(m.input.View()),
		m.renderHelpBar(),
	)
}

func (m Model) renderHeader() string {
	status := m.styles.Subtitle.Render(describeState(m.convState))
	if m.pending {
		status = m.spinner.View() + " " + m.styles.Subtitle.Render("thinking...")
	}
	if m.err != nil {
		status = m.styles.Error.Render("error: " + m.err.Error())
	}
	return m.styles.Title.Render("🤖 Task Assistant") + "\n" + status
}

// describeState summarizes the flow the user is in.
func describeState(s assistant.State) string {
	switch {
	case s.IsAdding():
		return "Adding a task"
	case s == assistant.StateUpdatingSelect, s == assistant.StateUpdatingField, s == assistant.StateConfirmingAction:
		return "Updating a task"
	case s == assistant.StateDeletingSelect:
		return "Deleting a task"
	}
	return "Always here to help"
}

func (m Model) renderQuickActions() string {
	parts := make([]string, len(QuickActions))
	for i, a := range QuickActions {
		parts[i] = m.styles.ActionKey.Render(strings.ToUpper(a.Key)) + " " + m.styles.ActionLabel.Render(a.Label)
	}
	return " " + strings.Join(parts, "   ")
}

// renderHelpBar renders the help bar at the bottom.
func (m Model) renderHelpBar() string {
	helpItems := []struct {
		key  string
		desc string
	}{
		{"enter", "send"},
		{"pgup/pgdn", "scroll"},
		{"esc", "quit"},
	}

	var parts []string
	for _, item := range helpItems {
		parts = append(parts, fmt.Sprintf("%s %s",
			m.styles.HelpKey.Render(item.key),
			m.styles.HelpText.Render(item.desc),
		))
	}

	return "  " + strings.Join(parts, "  |  ")
}

// Run starts the TUI.
func (m *Model) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Package tui is the interactive chat screen.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/notify"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

// Sender sends one chat message with the running history.
type Sender interface {
	SendMessage(ctx context.Context, text string, history []platform.Turn) (*platform.ChatResponse, error)
}

// chromeHeight is the rows taken by header, input and help.
const chromeHeight = 7

// Speaker identifies who wrote a transcript line.
type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerAssistant
)

// Line is one transcript entry.
type Line struct {
	Speaker Speaker
	Text    string
	Meta    *platform.ChatMeta
}

// Model is the chat screen.
type Model struct {
	ctx    context.Context
	sender Sender
	events <-chan notify.Event
	user   string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	lines   []Line
	history []platform.Turn
	toasts  []notify.Notification

	sending   bool
	lastError string

	width    int
	height   int
	ready    bool
	quitting bool

	styles Styles
	keys   keyMap
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Toast     map[notify.Kind]lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		User: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Meta: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Toast: map[notify.Kind]lipgloss.Style{
			notify.KindSuccess: toast.BorderForeground(lipgloss.Color("46")),
			notify.KindError:   toast.BorderForeground(lipgloss.Color("196")),
			notify.KindWarning: toast.BorderForeground(lipgloss.Color("226")),
			notify.KindInfo:    toast.BorderForeground(lipgloss.Color("86")),
		},
	}
}

type keyMap struct {
	Send key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// NewModel creates the chat screen. events may be nil.
func NewModel(ctx context.Context, sender Sender, user string, events <-chan notify.Event) Model {
	in := textinput.New()
	in.Placeholder = "Write how you feel..."
	in.CharLimit = validation.MessageMaxLength
	in.Prompt = "› "
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		sender:  sender,
		events:  events,
		user:    user,
		input:   in,
		spinner: sp,
		styles:  DefaultStyles(),
		keys:    keys,
	}
}

// Subscribe bridges a notification manager into a channel the model can
// wait on. Events are dropped when the buffer is full.
func Subscribe(m *notify.Manager) (<-chan notify.Event, func()) {
	ch := make(chan notify.Event, 32)
	unsubscribe := m.Subscribe(func(ev notify.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch, unsubscribe
}

// Messages

// ReplyMsg carries the outcome of a send.
type ReplyMsg struct {
	Text     string
	Response *platform.ChatResponse
	Err      error
}

// NotificationMsg carries a notification change.
type NotificationMsg struct {
	Event notify.Event
}

// Init initializes the TUI model (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chromeHeight, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chromeHeight, 1)
		}
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case ReplyMsg:
		m.sending = false
		if msg.Err != nil {
			m.lastError = api.MessageOf(msg.Err, "The message could not be sent.")
			m.refresh()
			return m, nil
		}
		m.lastError = ""
		resp := msg.Response
		meta := resp.Meta
		m.lines = append(m.lines, Line{Speaker: SpeakerAssistant, Text: resp.Reply, Meta: &meta})
		if len(resp.History) > 0 {
			m.history = resp.History
		} else {
			m.history = append(m.history, platform.Turn{msg.Text, resp.Reply})
		}
		m.refresh()
		return m, nil

	case NotificationMsg:
		m.applyEvent(msg.Event)
		return m, m.waitForEvent()

	case spinner.TickMsg:
		if !m.sending {
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

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		if m.sending {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if err := validation.Message(text); err != nil {
			if text != "" {
				m.lastError = err.Error()
			}
			return m, nil
		}
		m.input.Reset()
		m.lines = append(m.lines, Line{Speaker: SpeakerUser, Text: text})
		m.sending = true
		m.lastError = ""
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, m.send(text))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send(text string) tea.Cmd {
	history := append([]platform.Turn(nil), m.history...)
	ctx, sender := m.ctx, m.sender
	return func() tea.Msg {
		resp, err := sender.SendMessage(ctx, text, history)
		return ReplyMsg{Text: text, Response: resp, Err: err}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return NotificationMsg{Event: ev}
	}
}

func (m *Model) applyEvent(ev notify.Event) {
	switch ev.Type {
	case notify.EventCreated:
		m.toasts = append(m.toasts, ev.Notification)
	case notify.EventRemoved:
		kept := m.toasts[:0]
		for _, t := range m.toasts {
			if t.ID != ev.Notification.ID {
				kept = append(kept, t)
			}
		}
		m.toasts = kept
	case notify.EventCleared:
		m.toasts = nil
	}
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// Transcript returns the lines exchanged so far.
func (m Model) Transcript() []Line {
	return m.lines
}

// History returns the turns sent with the next message.
func (m Model) History() []platform.Turn {
	return m.history
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return m.styles.Subtitle.Render("Take care. See you soon.") + "\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.renderHelp()))

	if toasts := m.renderToasts(); toasts != "" {
		return lipgloss.JoinVertical(lipgloss.Left, toasts, b.String())
	}
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("PsiChat")
	if m.user == "" {
		return title
	}
	return title + " " + m.styles.Subtitle.Render("· "+m.user)
}

func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return m.styles.Subtitle.Render("Hi! How are you feeling today?")
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.Speaker {
		case SpeakerUser:
			b.WriteString(wrap.Render(m.styles.User.Render("You: ") + l.Text))
		case SpeakerAssistant:
			b.WriteString(wrap.Render(m.styles.Assistant.Render("PsiChat: ") + l.Text))
			if meta := m.renderMeta(l); meta != "" {
				b.WriteString("\n")
				b.WriteString(meta)
			}
		}
	}
	return b.String()
}

func (m Model) renderMeta(l Line) string {
	if l.Meta == nil || l.Meta.DetectedEmotion == "" {
		return ""
	}
	parts := []string{fmt.Sprintf("emotion: %s (%.0f%%)", l.Meta.DetectedEmotion, l.Meta.EmotionScore)}
	if l.Meta.DetectedStyle != "" {
		parts = append(parts, "style: "+l.Meta.DetectedStyle)
	}
	return m.styles.Meta.Render("  " + strings.Join(parts, " · "))
}

func (m Model) renderStatus() string {
	switch {
	case m.sending:
		return m.spinner.View() + " " + m.styles.Subtitle.Render("PsiChat is typing...")
	case m.lastError != "":
		return m.styles.Error.Render(m.lastError)
	default:
		return ""
	}
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		style, ok := m.styles.Toast[t.Kind]
		if !ok {
			style = m.styles.Toast["info"]
		}
		rendered = append(rendered, style.Render(lipgloss.NewStyle().Bold(true).Render(t.Title)+"  "+t.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m Model) renderHelp() string {
	bindings := []struct{ key, desc string }{
		{m.keys.Send.Help().Key, m.keys.Send.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		parts = append(parts, kb.key+" "+kb.desc)
	}
	return strings.Join(parts, " • ")
}

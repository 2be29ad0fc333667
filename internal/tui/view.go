package tui

import (
	"fmt"
	"strings"

	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

const helpLine = "enter send · esc stop · tab next session · ctrl+n new · ctrl+a archive · ctrl+s save · ctrl+r reload · ctrl+c quit"

func (m Model) View() string {
	st := defaultStyles()
	var b strings.Builder

	b.WriteString(st.Title.Render(m.titleLine(st)))
	b.WriteString("\n\n")

	for _, msg := range m.ctrl.Messages() {
		m.renderMessage(&b, st, msg)
	}

	if state := m.ctrl.StreamingState(); state.Streaming {
		b.WriteString(st.Assistant.Render("assistant"))
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
		renderParts(&b, st, state.Parts)
		b.WriteString("\n")
	}

	if queued := m.ctrl.QueuedMessages(); len(queued) > 0 {
		b.WriteString(st.Queue.Render(fmt.Sprintf("%d queued: %s", len(queued), strings.Join(queued, " | "))))
		b.WriteString("\n")
	}

	if errMsg := m.errorLine(); errMsg != "" {
		b.WriteString(st.Error.Render(errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(st.Help.Render(helpLine))
	return b.String()
}

func (m Model) titleLine(st styles) string {
	id := m.ctrl.SessionID()
	if id == "" {
		return "research agent · no session"
	}
	title := id
	for _, session := range m.dir.Sessions() {
		if session.ID == id && session.Title != "" {
			title = session.Title
			break
		}
	}
	marker := ""
	if m.dir.IsSaved(id) {
		marker = " ★"
	}
	return "research agent · " + title + marker
}

func (m Model) errorLine() string {
	if err := m.ctrl.Err(); err != "" {
		return err
	}
	if m.status != "" {
		return m.status
	}
	return m.dir.Err()
}

func (m Model) renderMessage(b *strings.Builder, st styles, msg types.Message) {
	switch msg.Role {
	case types.RoleUser:
		b.WriteString(st.User.Render("you"))
	default:
		b.WriteString(st.Assistant.Render("assistant"))
	}
	b.WriteString("\n")
	if len(msg.Parts) > 0 {
		renderParts(b, st, msg.Parts)
	} else if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func renderParts(b *strings.Builder, st styles, parts []types.Part) {
	for _, part := range parts {
		switch part.Type {
		case types.PartThinking:
			if part.Content != "" {
				b.WriteString(st.Thinking.Render(part.Content))
				b.WriteString("\n")
			}
		case types.PartTool:
			b.WriteString(st.Tool.Render(toolLine(part)))
			b.WriteString("\n")
		default:
			if part.Content != "" {
				b.WriteString(part.Content)
				b.WriteString("\n")
			}
		}
	}
}

func toolLine(part types.Part) string {
	name := part.ToolName
	if name == "" {
		name = part.SourceID
	}
	line := fmt.Sprintf("[tool] %s %s", name, part.State)
	if part.Description != "" {
		line += " · " + part.Description
	}
	if part.DurationMs != nil {
		line += fmt.Sprintf(" (%dms)", *part.DurationMs)
	}
	return line
}

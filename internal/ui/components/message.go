// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the auraflow TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT COMPONENT - Message rendering
// =============================================================================

// Message kinds rendered in the transcript.
const (
	KindMessage    = "message"
	KindToolResult = "tool_result"
	KindNotice     = "notice"
	KindError      = "error"
)

// Message is one transcript entry, already assembled from streamed chunks.
type Message struct {
	Kind      string
	Role      string
	Agent     string
	Content   string
	Streaming bool // Still receiving chunks
	Rendered  bool // Content is pre-rendered (ANSI) and must not be re-wrapped
}

// MessageList renders the transcript for the viewport.
type MessageList struct {
	Messages   []Message
	Width      int
	ShowAgents bool // Prefix assistant output with the emitting agent
	theme      *styles.Theme
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width: 80,
		theme: theme,
	}
}

// SetWidth sets the rendering width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders all messages separated by blank lines.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)
		return emptyStyle.Render("No messages yet. Type below to start.")
	}

	rendered := make([]string, 0, len(ml.Messages))
	for i := range ml.Messages {
		rendered = append(rendered, ml.renderMessage(&ml.Messages[i]))
	}
	return strings.Join(rendered, "\n\n")
}

func (ml *MessageList) renderMessage(m *Message) string {
	contentWidth := ml.Width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	switch m.Kind {
	case KindToolResult:
		return ml.renderLabeled("tool", ml.theme.ToolResult, m, contentWidth)
	case KindNotice:
		return ml.theme.SystemNotice.Render(wordWrap(m.Content, contentWidth))
	case KindError:
		box := ml.theme.ErrorBox.Width(contentWidth)
		body := ml.theme.ErrorTitle.Render("stream error") + "\n" +
			ml.theme.ErrorMessage.Render(wordWrap(m.Content, contentWidth-4))
		return box.Render(body)
	}

	switch m.Role {
	case "user":
		return ml.renderLabeled("you", ml.theme.UserMessage, m, contentWidth)
	default:
		label := "assistant"
		if ml.ShowAgents && m.Agent != "" {
			label = m.Agent
		}
		return ml.renderLabeled(label, ml.theme.AssistantMessage, m, contentWidth)
	}
}

func (ml *MessageList) renderLabeled(label string, body lipgloss.Style, m *Message, contentWidth int) string {
	header := ml.theme.SpeakerLabel.Render(label)
	if m.Agent != "" && label == m.Agent {
		header = ml.theme.AgentLabel.Foreground(styles.AgentColor(m.Agent)).Render(label)
	}

	content := m.Content
	if m.Streaming {
		content += "_"
	}
	if content == "" {
		content = "..."
	}
	if !m.Rendered {
		content = wordWrap(content, contentWidth-2)
	}

	return header + "\n" + body.Width(contentWidth).Render(content)
}

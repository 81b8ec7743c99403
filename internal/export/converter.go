// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"github.com/jeranaias/auraflow/internal/chat"
)

// =============================================================================
// CONVERSION UTILITIES
// =============================================================================

// Message is one assembled message: consecutive streamed chunks sharing
// an id folded into their full content.
type Message struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"` // "message" or "tool_result"
	Agent        string `json:"agent,omitempty"`
	Role         string `json:"role,omitempty"`
	Content      string `json:"content"`
	ToolCallID   string `json:"tool_call_id,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Document is an exportable transcript.
type Document struct {
	Title    string    `json:"title"`
	ThreadID string    `json:"thread_id,omitempty"`
	Messages []Message `json:"messages"`
}

// Assemble folds an event sequence into a Document. Chunks with the same
// id are concatenated in arrival order; tool results stay standalone.
// This allows exporting a live stream as well as a replayed transcript.
func Assemble(title string, events []chat.Event) *Document {
	doc := &Document{Title: title}

	for _, ev := range events {
		switch ev.Type {
		case chat.EventMessageChunk:
			c := ev.Chunk
			if c == nil {
				continue
			}
			if doc.ThreadID == "" {
				doc.ThreadID = c.ThreadID
			}
			if n := len(doc.Messages); n > 0 && doc.Messages[n-1].Kind == "message" && doc.Messages[n-1].ID == c.ID {
				doc.Messages[n-1].Content += c.Content
				if c.IsTerminal() {
					doc.Messages[n-1].FinishReason = *c.FinishReason
				}
				continue
			}
			msg := Message{
				ID:      c.ID,
				Kind:    "message",
				Agent:   c.Agent,
				Role:    string(c.Role),
				Content: c.Content,
			}
			if c.IsTerminal() {
				msg.FinishReason = *c.FinishReason
			}
			doc.Messages = append(doc.Messages, msg)

		case chat.EventToolCallResult:
			r := ev.ToolResult
			if r == nil {
				continue
			}
			if doc.ThreadID == "" {
				doc.ThreadID = r.ThreadID
			}
			doc.Messages = append(doc.Messages, Message{
				ID:         r.ID,
				Kind:       "tool_result",
				Agent:      r.Agent,
				Content:    r.Content,
				ToolCallID: r.ToolCallID,
			})
		}
	}
	return doc
}

// Speaker labels a message with its agent, falling back to the role.
func (m *Message) Speaker() string {
	if m.Agent != "" {
		return m.Agent
	}
	if m.Role != "" {
		return m.Role
	}
	return "unknown"
}

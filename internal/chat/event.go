// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the normalized event types produced by the
// streaming transports. Every backend protocol (OpenAI-compatible,
// Deer-Flow native, replay) is decoded into this one shape so the
// consumers never branch on the wire format.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message chunk.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType discriminates the normalized event union.
type EventType string

const (
	// EventMessageChunk is a partial piece of assistant/user content. A
	// logical turn is zero or more chunks with a nil finish reason followed
	// by exactly one chunk with the finish reason set.
	EventMessageChunk EventType = "message_chunk"

	// EventToolCallResult carries the result of a completed tool invocation.
	EventToolCallResult EventType = "tool_call_result"
)

// ErrUnknownEventType is returned when an event payload carries a tag that
// is not part of the normalized union.
var ErrUnknownEventType = errors.New("unknown chat event type")

// MessageChunk is a streamed fragment of a message.
type MessageChunk struct {
	ID           string  `json:"id"`
	ThreadID     string  `json:"thread_id"`
	Agent        string  `json:"agent,omitempty"`
	Role         Role    `json:"role"`
	Content      string  `json:"content"`
	FinishReason *string `json:"finish_reason"`
}

// IsTerminal reports whether this chunk ends its logical turn.
func (c *MessageChunk) IsTerminal() bool {
	return c.FinishReason != nil && *c.FinishReason != ""
}

// ToolCallResult is the completed result of a tool invocation.
type ToolCallResult struct {
	ID         string `json:"id"`
	ThreadID   string `json:"thread_id"`
	Agent      string `json:"agent,omitempty"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// Event is the tagged union delivered on the transport channel. Exactly
// one of Chunk and ToolResult is set for a well-formed event; Err is used
// for channel-based streaming where a failure terminates the sequence.
type Event struct {
	Type       EventType
	Chunk      *MessageChunk
	ToolResult *ToolCallResult
	Err        error `json:"-"`
}

// IsTerminal reports whether the event ends the turn.
func (e Event) IsTerminal() bool {
	return e.Type == EventMessageChunk && e.Chunk != nil && e.Chunk.IsTerminal()
}

// Content returns the textual content of the event, if any.
func (e Event) Content() string {
	switch e.Type {
	case EventMessageChunk:
		if e.Chunk != nil {
			return e.Chunk.Content
		}
	case EventToolCallResult:
		if e.ToolResult != nil {
			return e.ToolResult.Content
		}
	}
	return ""
}

// =============================================================================
// PARSE BOUNDARY
// =============================================================================

// ParseEvent validates and decodes a wire event into the tagged union.
// The event name becomes the tag; the data payload is decoded against the
// matching shape. Payloads with an unknown tag return ErrUnknownEventType
// so the caller can log and skip them without aborting the stream.
func ParseEvent(name string, data []byte) (Event, error) {
	switch EventType(name) {
	case EventMessageChunk:
		var chunk MessageChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return Event{}, fmt.Errorf("malformed message_chunk payload: %w", err)
		}
		return Event{Type: EventMessageChunk, Chunk: &chunk}, nil

	case EventToolCallResult:
		var result ToolCallResult
		if err := json.Unmarshal(data, &result); err != nil {
			return Event{}, fmt.Errorf("malformed tool_call_result payload: %w", err)
		}
		return Event{Type: EventToolCallResult, ToolResult: &result}, nil

	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, name)
	}
}

// TerminalChunk builds a single terminal message_chunk event. Used by the
// non-streaming fallback path to synthesize the one event it yields.
func TerminalChunk(id, threadID, content, finishReason string) Event {
	reason := finishReason
	return Event{
		Type: EventMessageChunk,
		Chunk: &MessageChunk{
			ID:           id,
			ThreadID:     threadID,
			Role:         RoleAssistant,
			Content:      content,
			FinishReason: &reason,
		},
	}
}

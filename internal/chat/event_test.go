// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"
)

func TestParseEventMessageChunk(t *testing.T) {
	data := []byte(`{"id":"m1","thread_id":"t1","agent":"coordinator","role":"assistant","content":"hel","finish_reason":null}`)

	ev, err := ParseEvent("message_chunk", data)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Type != EventMessageChunk {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Chunk == nil || ev.Chunk.Content != "hel" {
		t.Errorf("Chunk = %+v", ev.Chunk)
	}
	if ev.IsTerminal() {
		t.Error("chunk with null finish_reason must not be terminal")
	}
}

func TestParseEventTerminalChunk(t *testing.T) {
	data := []byte(`{"id":"m1","thread_id":"t1","role":"assistant","content":"","finish_reason":"stop"}`)

	ev, err := ParseEvent("message_chunk", data)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if !ev.IsTerminal() {
		t.Error("chunk with finish_reason set must be terminal")
	}
}

func TestParseEventToolCallResult(t *testing.T) {
	data := []byte(`{"id":"m2","thread_id":"t1","tool_call_id":"call_1","content":"42"}`)

	ev, err := ParseEvent("tool_call_result", data)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Type != EventToolCallResult {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.ToolResult == nil || ev.ToolResult.ToolCallID != "call_1" {
		t.Errorf("ToolResult = %+v", ev.ToolResult)
	}
	if ev.Content() != "42" {
		t.Errorf("Content() = %q", ev.Content())
	}
}

func TestParseEventUnknownTag(t *testing.T) {
	_, err := ParseEvent("mystery_event", []byte(`{}`))
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestParseEventMalformedPayload(t *testing.T) {
	_, err := ParseEvent("message_chunk", []byte(`{"content":`))
	if err == nil {
		t.Error("expected error for truncated JSON")
	}
	if errors.Is(err, ErrUnknownEventType) {
		t.Error("malformed payload must not be reported as unknown type")
	}
}

func TestTerminalChunk(t *testing.T) {
	ev := TerminalChunk("id1", "t1", "hi", "stop")
	if !ev.IsTerminal() {
		t.Error("TerminalChunk must be terminal")
	}
	if ev.Chunk.Role != RoleAssistant {
		t.Errorf("Role = %q", ev.Chunk.Role)
	}
	if ev.Content() != "hi" {
		t.Errorf("Content = %q", ev.Content())
	}
}

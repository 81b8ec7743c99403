// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/auraflow/internal/backend"
	chatev "github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/store"
	"github.com/jeranaias/auraflow/internal/ui/components"
)

// memoryPersistence keeps store state in memory for tests.
type memoryPersistence struct {
	state store.State
}

func (m *memoryPersistence) Load() (store.State, error) { return m.state, nil }
func (m *memoryPersistence) Save(s store.State) error   { m.state = s; return nil }

func chunkEvent(id, content, agent string, terminal bool) chatev.Event {
	chunk := &chatev.MessageChunk{
		ID:       id,
		ThreadID: "t1",
		Agent:    agent,
		Role:     chatev.RoleAssistant,
		Content:  content,
	}
	if terminal {
		reason := "stop"
		chunk.FinishReason = &reason
	}
	return chatev.Event{Type: chatev.EventMessageChunk, Chunk: chunk}
}

func newTestModel(t *testing.T, stream StreamFunc) *Model {
	t.Helper()

	st, err := store.New(&memoryPersistence{})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	m := New(Options{
		Config:     config.Default(),
		Store:      st,
		Stream:     stream,
		BackendURL: "http://localhost:8000",
		Protocol:   "native",
		Version:    "test",
	})
	m.resize(100, 30)
	return m
}

func noopStream(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
	ch := make(chan chatev.Event)
	close(ch)
	return ch, nil
}

// drain runs returned commands until the model stops producing stream
// messages, mimicking the Bubble Tea runtime for synchronous channels.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		switch msg := msg.(type) {
		case streamStartedMsg, streamEventMsg, streamClosedMsg, streamFailedMsg:
			_, cmd = m.Update(msg)
		case tea.BatchMsg:
			for _, sub := range msg {
				drain(t, m, sub)
			}
			return
		default:
			return
		}
	}
}

// =============================================================================
// TURN ASSEMBLY TESTS
// =============================================================================

func TestSubmitStreamsTurn(t *testing.T) {
	events := []chatev.Event{
		chunkEvent("m1", "Hello", "coordinator", false),
		chunkEvent("m1", " there", "coordinator", true),
	}
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		ch := make(chan chatev.Event, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch, nil
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("hi")
	drain(t, m, m.submit())

	if m.streaming {
		t.Error("streaming should be false after the channel closes")
	}
	if len(m.transcript) != 2 {
		t.Fatalf("transcript entries = %d, want 2 (user + assistant)", len(m.transcript))
	}
	if m.transcript[0].Role != "user" || m.transcript[0].Content != "hi" {
		t.Errorf("user entry = %+v", m.transcript[0])
	}
	if m.raw[1] != "Hello there" {
		t.Errorf("assembled assistant content = %q", m.raw[1])
	}
	if m.transcript[1].Streaming {
		t.Error("assistant entry should be sealed")
	}
}

func TestChunksWithNewIDStartNewEntry(t *testing.T) {
	events := []chatev.Event{
		chunkEvent("m1", "planning", "planner", false),
		chunkEvent("m2", "final answer", "reporter", true),
	}
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		ch := make(chan chatev.Event, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch, nil
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("go")
	drain(t, m, m.submit())

	if len(m.transcript) != 3 {
		t.Fatalf("transcript entries = %d, want 3", len(m.transcript))
	}
	if m.transcript[1].Agent != "planner" || m.transcript[2].Agent != "reporter" {
		t.Errorf("agents = %q, %q", m.transcript[1].Agent, m.transcript[2].Agent)
	}
	// The open planner entry must be sealed when the reporter takes over.
	if m.transcript[1].Streaming {
		t.Error("superseded entry should be sealed")
	}
}

func TestToolResultGetsOwnEntry(t *testing.T) {
	events := []chatev.Event{
		{Type: chatev.EventToolCallResult, ToolResult: &chatev.ToolCallResult{
			ID: "tr1", ThreadID: "t1", Agent: "researcher", ToolCallID: "c1", Content: "42 results",
		}},
		chunkEvent("m1", "done", "reporter", true),
	}
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		ch := make(chan chatev.Event, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch, nil
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("search")
	drain(t, m, m.submit())

	if len(m.transcript) != 3 {
		t.Fatalf("transcript entries = %d, want 3", len(m.transcript))
	}
	if m.transcript[1].Kind != components.KindToolResult {
		t.Errorf("entry kind = %q, want tool_result", m.transcript[1].Kind)
	}
	if !strings.Contains(m.transcript[1].Content, "42 results") {
		t.Errorf("tool entry content = %q", m.transcript[1].Content)
	}
}

func TestStreamErrorEntersTranscript(t *testing.T) {
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		ch := make(chan chatev.Event, 1)
		ch <- chatev.Event{Err: errors.New("connection reset")}
		close(ch)
		return ch, nil
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("hi")
	drain(t, m, m.submit())

	last := m.transcript[len(m.transcript)-1]
	if last.Kind != components.KindError {
		t.Fatalf("last entry kind = %q, want error", last.Kind)
	}
	if !strings.Contains(last.Content, "connection reset") {
		t.Errorf("error entry = %q", last.Content)
	}
	if m.statusBar.Status != components.StatusError {
		t.Error("status bar should show the error state")
	}
}

func TestStreamRejectedBeforeStart(t *testing.T) {
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		return nil, errors.New("backend not configured")
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("hi")
	drain(t, m, m.submit())

	last := m.transcript[len(m.transcript)-1]
	if last.Kind != components.KindError {
		t.Fatalf("last entry kind = %q, want error", last.Kind)
	}
	if m.streaming {
		t.Error("streaming should be cleared after a failed start")
	}
}

// =============================================================================
// CANCEL SEMANTICS
// =============================================================================

func TestCancelDropsStaleStreamMessages(t *testing.T) {
	m := newTestModel(t, noopStream)
	m.textarea.SetValue("hi")

	cmd := m.submit()
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	staleTurn := m.turn

	m.cancelStream()
	if m.streaming {
		t.Error("cancel should clear streaming")
	}

	// A late event from the canceled turn must be ignored.
	before := len(m.transcript)
	m.Update(streamEventMsg{turn: staleTurn, event: chunkEvent("m9", "late", "", true)})
	if len(m.transcript) != before {
		t.Error("stale stream event mutated the transcript")
	}
}

// =============================================================================
// CONVERSATION COMMAND TESTS
// =============================================================================

func TestFirstTurnRenamesConversation(t *testing.T) {
	stream := func(context.Context, *backend.ChatRequest) (<-chan chatev.Event, error) {
		ch := make(chan chatev.Event, 1)
		ch <- chunkEvent("m1", "sure", "", true)
		close(ch)
		return ch, nil
	}

	m := newTestModel(t, stream)
	m.textarea.SetValue("plan my trip to Lisbon")
	drain(t, m, m.submit())

	meta, ok := m.opts.Store.Current()
	if !ok {
		t.Fatal("no current conversation after first turn")
	}
	if meta.Title != "plan my trip to Lisbon" {
		t.Errorf("title = %q", meta.Title)
	}
}

func TestSlashNewCreatesConversation(t *testing.T) {
	m := newTestModel(t, noopStream)
	m.textarea.SetValue("/new Research log")
	m.submit()

	meta, ok := m.opts.Store.Current()
	if !ok || meta.Title != "Research log" {
		t.Errorf("current after /new = %+v, %v", meta, ok)
	}
	if len(m.transcript) != 0 {
		t.Error("/new should clear the transcript")
	}
}

func TestSlashRename(t *testing.T) {
	m := newTestModel(t, noopStream)
	m.textarea.SetValue("/new")
	m.submit()

	m.textarea.SetValue("/rename Better title")
	m.submit()

	meta, _ := m.opts.Store.Current()
	if meta.Title != "Better title" {
		t.Errorf("title after rename = %q", meta.Title)
	}
}

func TestSlashUnknownSetsNotice(t *testing.T) {
	m := newTestModel(t, noopStream)
	m.textarea.SetValue("/bogus")
	m.submit()

	if !strings.Contains(m.notice, "unknown command") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestDeleteCurrentConversationClearsTranscript(t *testing.T) {
	m := newTestModel(t, noopStream)
	m.textarea.SetValue("/new Doomed")
	m.submit()
	meta, _ := m.opts.Store.Current()

	m.transcript = append(m.transcript, components.Message{Kind: components.KindMessage, Role: "user", Content: "x"})
	m.raw = append(m.raw, "")

	m.deleteConversation(meta.ID)
	if len(m.transcript) != 0 {
		t.Error("deleting the current conversation should clear the transcript")
	}
	if _, err := m.opts.Store.Get(meta.ID); err == nil {
		t.Error("conversation still present after delete")
	}
}

// =============================================================================
// VIEW TESTS
// =============================================================================

func TestViewRendersFrame(t *testing.T) {
	m := newTestModel(t, noopStream)

	out := m.View()
	if !strings.Contains(out, "auraflow") {
		t.Error("frame missing header brand")
	}
	if !strings.Contains(out, "LIVE") {
		t.Error("frame missing status bar mode")
	}
}

func TestViewReplayMode(t *testing.T) {
	st, _ := store.New(&memoryPersistence{})
	m := New(Options{
		Config:  config.Default(),
		Store:   st,
		Stream:  noopStream,
		Replay:  true,
		Version: "test",
	})
	m.resize(100, 30)

	if !strings.Contains(m.View(), "REPLAY") {
		t.Error("frame should advertise replay mode")
	}
}

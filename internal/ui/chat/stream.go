// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/auraflow/internal/backend"
	chatev "github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/ui/components"
	"github.com/jeranaias/auraflow/internal/util"
)

// =============================================================================
// STREAM BRIDGE - channel events into Bubble Tea messages
// =============================================================================

// finishStop is the finish reason attached to synthesized user chunks.
var finishStop = "stop"

// submit sends the current input as a chat turn. Slash commands are
// intercepted before anything reaches the transport.
func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return nil
	}
	if m.streaming {
		m.setNotice("still streaming, esc to cancel")
		m.refreshViewport()
		return nil
	}

	m.textarea.Reset()
	m.notice = ""

	if strings.HasPrefix(input, "/") {
		return m.runCommand(input)
	}

	// Make sure a conversation exists to attach the turn to.
	meta, ok := m.opts.Store.Current()
	if !ok {
		var err error
		meta, err = m.opts.Store.Create(defaultTitle)
		if err != nil {
			m.setNotice("create conversation: " + err.Error())
			m.refreshViewport()
			return nil
		}
	}
	m.threadID = meta.ID
	m.header.Title = meta.Title
	m.statusBar.ThreadID = meta.ID

	m.transcript = append(m.transcript, components.Message{
		Kind:    components.KindMessage,
		Role:    "user",
		Content: input,
	})
	m.raw = append(m.raw, "")

	// The transport never echoes user turns, so record one for /export.
	m.sessionEvents = append(m.sessionEvents, chatev.Event{
		Type: chatev.EventMessageChunk,
		Chunk: &chatev.MessageChunk{
			ThreadID:     meta.ID,
			Role:         chatev.RoleUser,
			Content:      input,
			FinishReason: &finishStop,
		},
	})

	m.turn++
	m.streaming = true
	m.eventCount = 0
	m.turnEvents = nil
	m.statusBar.Status = components.StatusStreaming
	m.statusBar.EventCount = 0
	m.thinking.Start()
	m.refreshViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	req := &backend.ChatRequest{
		Message:  input,
		ThreadID: meta.ID,
		Params:   m.opts.Config.ChatParams(),
	}

	turn := m.turn
	stream := m.opts.Stream
	startCmd := func() tea.Msg {
		events, err := stream(ctx, req)
		if err != nil {
			return streamFailedMsg{turn: turn, err: err}
		}
		return streamStartedMsg{turn: turn, events: events}
	}

	return tea.Batch(startCmd, m.thinking.Spinner.Tick)
}

// waitForEvent blocks on the stream channel and forwards the next event.
// Channel close yields streamClosedMsg.
func waitForEvent(turn int, events <-chan chatev.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{turn: turn}
		}
		return streamEventMsg{turn: turn, event: ev}
	}
}

// applyEvent folds one stream event into the transcript and schedules the
// next read.
func (m *Model) applyEvent(ev chatev.Event) tea.Cmd {
	m.thinking.Stop()

	if ev.Err != nil {
		m.streamError(ev.Err)
		return nil // transport closes the channel after an error event
	}

	m.eventCount++
	m.statusBar.EventCount = m.eventCount
	m.turnEvents = append(m.turnEvents, ev)
	m.sessionEvents = append(m.sessionEvents, ev)

	switch ev.Type {
	case chatev.EventMessageChunk:
		c := ev.Chunk
		if c == nil {
			break
		}
		m.thinking.Agent = c.Agent

		// Chunks sharing an id extend the same transcript entry; a new id
		// means the pipeline moved on to another message.
		n := len(m.transcript)
		if n > 0 && m.transcript[n-1].Streaming && m.openChunkID == c.ID {
			m.transcript[n-1].Content += c.Content
			m.transcript[n-1].Agent = pick(m.transcript[n-1].Agent, c.Agent)
			m.raw[n-1] += c.Content
			if c.IsTerminal() {
				m.sealEntry(n - 1)
			}
		} else {
			if n > 0 && m.transcript[n-1].Streaming {
				m.sealEntry(n - 1)
			}
			entry := components.Message{
				Kind:      components.KindMessage,
				Role:      string(c.Role),
				Agent:     c.Agent,
				Content:   c.Content,
				Streaming: !c.IsTerminal(),
			}
			m.openChunkID = c.ID
			m.transcript = append(m.transcript, entry)
			m.raw = append(m.raw, c.Content)
			if c.IsTerminal() {
				m.sealEntry(len(m.transcript) - 1)
			}
		}

	case chatev.EventToolCallResult:
		r := ev.ToolResult
		if r == nil {
			break
		}
		m.transcript = append(m.transcript, components.Message{
			Kind:    components.KindToolResult,
			Agent:   r.Agent,
			Content: util.TruncateRunes(r.Content, 2000),
		})
		m.raw = append(m.raw, "")
	}

	m.refreshViewport()
	return waitForEvent(m.turn, m.events)
}

// sealEntry marks a transcript entry complete and renders its markdown.
func (m *Model) sealEntry(i int) {
	m.transcript[i].Streaming = false
	if m.transcript[i].Role == string(chatev.RoleAssistant) && m.raw[i] != "" {
		out, ok := m.renderMarkdown(m.raw[i])
		m.transcript[i].Content = out
		m.transcript[i].Rendered = ok
	}
}

// finishTurn runs when the transport closes the event channel.
func (m *Model) finishTurn() {
	m.streaming = false
	m.cancel = nil
	m.thinking.Stop()
	m.statusBar.Status = components.StatusReady

	// Close out any entry the stream left open.
	for i := range m.transcript {
		if m.transcript[i].Streaming {
			m.sealEntry(i)
		}
	}

	m.renameAfterFirstTurn()
	m.refreshViewport()
}

// renameAfterFirstTurn titles a placeholder conversation from its first
// user message.
func (m *Model) renameAfterFirstTurn() {
	meta, ok := m.opts.Store.Current()
	if !ok || meta.Title != defaultTitle {
		return
	}
	for _, entry := range m.transcript {
		if entry.Kind == components.KindMessage && entry.Role == "user" {
			title := util.TruncateRunes(util.CollapseWhitespace(entry.Content), 48)
			if err := m.opts.Store.Rename(meta.ID, title); err == nil {
				m.header.Title = title
				m.reloadSidebar()
			}
			return
		}
	}
}

// streamError records a failed stream in the transcript.
func (m *Model) streamError(err error) {
	m.streaming = false
	m.cancel = nil
	m.thinking.Stop()
	m.statusBar.Status = components.StatusError

	m.transcript = append(m.transcript, components.Message{
		Kind:    components.KindError,
		Content: err.Error(),
	})
	m.raw = append(m.raw, "")
	m.refreshViewport()
}

// cancelStream aborts the active turn. The turn counter moves on so any
// in-flight messages from the old stream are dropped.
func (m *Model) cancelStream() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.turn++
	m.streaming = false
	m.thinking.Stop()
	m.statusBar.Status = components.StatusReady

	for i := range m.transcript {
		if m.transcript[i].Streaming {
			m.sealEntry(i)
		}
	}
	m.setNotice("stream canceled")
	m.refreshViewport()
}

// pick returns the first non-empty string.
func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

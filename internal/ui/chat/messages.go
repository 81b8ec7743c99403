// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
//
// This file defines the Bubble Tea message types used by the chat
// interface. Messages fall into three groups:
//   - Streaming: stream start, per-event delivery, and termination
//   - Conversation: sidebar refreshes after store mutations
//   - Export: completion of an in-TUI transcript export
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	chatev "github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/store"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamStartedMsg reports that the transport accepted the request and
// handed back an event channel. turn ties late messages to the turn that
// produced them so stale streams can be dropped after a cancel.
type streamStartedMsg struct {
	turn   int
	events <-chan chatev.Event
}

// streamEventMsg delivers one normalized event from the active stream.
type streamEventMsg struct {
	turn  int
	event chatev.Event
}

// streamClosedMsg reports that the event channel was closed by the
// transport: the turn is over.
type streamClosedMsg struct {
	turn int
}

// streamFailedMsg reports that the transport rejected the request before
// any event was produced.
type streamFailedMsg struct {
	turn int
	err  error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// conversationsReloadedMsg refreshes the sidebar after a store mutation.
type conversationsReloadedMsg struct {
	list      []store.ConversationMeta
	currentID string
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// exportDoneMsg reports the outcome of an in-TUI export.
type exportDoneMsg struct {
	path string
	err  error
}

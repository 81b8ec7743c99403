// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view.

The view streams one turn at a time: submitting input starts a stream
through the injected StreamFunc, and each normalized event arriving on
the channel is folded into the transcript as it lands. Chunks that share
an id extend the same transcript entry; tool results and errors get
entries of their own. When an assistant entry completes, its markdown is
rendered with glamour at the current viewport width.

# Wiring

	err := chat.Run(chat.Options{
		Config:     cfg,
		Store:      st,
		Stream:     transport.Stream,
		BackendURL: baseURL,
		Protocol:   proto.String(),
		Version:    version,
	})

The replay player satisfies StreamFunc too, so the whole view works
offline against a recorded transcript.

# Concurrency

The stream channel is read one event per Bubble Tea command; a monotonic
turn counter tags every stream message so events from a canceled turn
are dropped instead of corrupting the next one.

# Layout

Header, optional conversation sidebar (backed by the store), transcript
viewport, input textarea, and status bar. The sidebar collapses
automatically below 60 columns.
*/
package chat

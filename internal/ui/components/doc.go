// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual UI components for the auraflow TUI.

Each component owns its rendering and takes the shared *styles.Theme at
construction. Components are plain view structs; Bubble Tea state and
message plumbing live in the chat package.

# Components

  - Header - title bar with the app name, conversation title, and backend
  - Sidebar - conversation list panel backed by the store
  - MessageList - transcript rendering with per-agent accents
  - Thinking - spinner shown between submit and the first chunk
  - StatusBar - mode, stream counters, and shortcut hints
  - Welcome - empty state before the first message

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	header := components.NewHeader(theme)
	header.SetWidth(120)
	fmt.Print(header.View())

All widths are display cells (go-runewidth), so CJK content lays out
correctly.
*/
package components

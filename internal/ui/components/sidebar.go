// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the auraflow TUI.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/auraflow/internal/store"
	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// =============================================================================
// SIDEBAR COMPONENT - Conversation list panel
// =============================================================================

// Sidebar lists conversations, most recent first. One entry may be
// keyboard-selected (Cursor) independently of which conversation is
// current in the store.
type Sidebar struct {
	Conversations []store.ConversationMeta
	CurrentID     string // Conversation selected in the store
	Cursor        int    // Keyboard cursor position
	Focused       bool
	Width         int
	Height        int
	theme         *styles.Theme
}

// NewSidebar creates a new Sidebar component.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{
		Width:  28,
		Height: 20,
		theme:  theme,
	}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetConversations replaces the listed conversations and clamps the cursor.
func (s *Sidebar) SetConversations(list []store.ConversationMeta, currentID string) {
	s.Conversations = list
	s.CurrentID = currentID
	if s.Cursor >= len(list) {
		s.Cursor = len(list) - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// MoveCursor moves the keyboard cursor by delta, clamped to the list.
func (s *Sidebar) MoveCursor(delta int) {
	s.Cursor += delta
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor >= len(s.Conversations) {
		s.Cursor = len(s.Conversations) - 1
	}
}

// Selected returns the conversation under the cursor.
func (s *Sidebar) Selected() (store.ConversationMeta, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Conversations) {
		return store.ConversationMeta{}, false
	}
	return s.Conversations[s.Cursor], true
}

// View renders the sidebar panel.
func (s *Sidebar) View() string {
	innerWidth := s.Width - 2
	if innerWidth < 8 {
		innerWidth = 8
	}

	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")

	if len(s.Conversations) == 0 {
		b.WriteString(s.theme.SidebarMeta.Render("none yet"))
	}

	// Two rows per entry: title, then relative age.
	visible := (s.Height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if s.Cursor >= visible {
		start = s.Cursor - visible + 1
	}

	for i := start; i < len(s.Conversations) && i < start+visible; i++ {
		meta := s.Conversations[i]
		title := truncateCell(meta.Title, innerWidth-2)

		marker := " "
		if meta.ID == s.CurrentID {
			marker = "*"
		}

		line := marker + " " + title
		switch {
		case s.Focused && i == s.Cursor:
			b.WriteString(s.theme.SidebarItemSelected.Render(padRight(line, innerWidth)))
		case meta.ID == s.CurrentID:
			b.WriteString(s.theme.SidebarItemCurrent.Render(line))
		default:
			b.WriteString(s.theme.SidebarItem.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(s.theme.SidebarMeta.Render("  " + relativeAge(meta.UpdatedAt)))
		b.WriteString("\n")
	}

	return s.theme.Sidebar.Width(s.Width).Height(s.Height).Render(b.String())
}

// relativeAge formats a millisecond timestamp as a coarse age ("3m ago").
func relativeAge(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	d := time.Since(time.UnixMilli(ms))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

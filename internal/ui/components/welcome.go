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
// WELCOME SCREEN - Shown before the first message
// =============================================================================

// Welcome is the empty-state box shown when no conversation is open.
type Welcome struct {
	Version string
	Replay  bool
	Width   int
	Height  int
	theme   *styles.Theme
}

// NewWelcome creates a new Welcome component.
func NewWelcome(theme *styles.Theme, version string) *Welcome {
	return &Welcome{
		Version: version,
		Width:   80,
		Height:  20,
		theme:   theme,
	}
}

// SetSize updates the welcome area dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.Width = width
	w.Height = height
}

// View renders the centered welcome box.
func (w *Welcome) View() string {
	var b strings.Builder

	b.WriteString(w.theme.WelcomeLogo.Render("auraflow"))
	b.WriteString("\n")
	b.WriteString(w.theme.WelcomeVersion.Render("v" + w.Version))
	b.WriteString("\n\n")

	if w.Replay {
		b.WriteString(w.theme.WelcomeInfo.Render("Replay mode: events come from a recorded transcript."))
	} else {
		b.WriteString(w.theme.WelcomeInfo.Render("Type a message below to start a conversation."))
	}
	b.WriteString("\n\n")

	keys := [][2]string{
		{"enter", "send"},
		{"ctrl+n", "new conversation"},
		{"ctrl+b", "toggle sidebar"},
		{"/help", "commands"},
	}
	for _, k := range keys {
		b.WriteString(w.theme.WelcomeKey.Render(k[0]))
		b.WriteString(w.theme.WelcomeInfo.Render("  " + k[1]))
		b.WriteString("\n")
	}

	box := w.theme.WelcomeBox.Render(b.String())
	return lipgloss.Place(w.Width, w.Height, lipgloss.Center, lipgloss.Center, box)
}

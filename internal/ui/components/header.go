// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the auraflow TUI.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - Title bar
// =============================================================================

// Header is the top title bar: app name on the left, the active
// conversation title in the middle, the backend identity on the right.
type Header struct {
	Title    string // Active conversation title
	Backend  string // Backend base URL, or "" in replay mode
	Protocol string // Detected protocol name ("openai", "native")
	Replay   bool   // True when events come from a transcript
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a new Header component.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header line.
func (h *Header) View() string {
	brand := h.theme.HeaderTitle.Render("auraflow")

	title := h.Title
	if title == "" {
		title = "no conversation"
	}
	middle := h.theme.HeaderSubtitle.Render(truncateCell(title, h.Width/2))

	var right string
	if h.Replay {
		right = h.theme.ModeReplay.Render("REPLAY")
	} else if h.Backend != "" {
		label := h.Backend
		if h.Protocol != "" {
			label += " (" + h.Protocol + ")"
		}
		right = h.theme.ModeLive.Render(truncateCell(label, h.Width/3))
	}

	left := brand + "  " + middle
	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	line := left + lipgloss.NewStyle().Width(gap).Render("") + right
	return h.theme.Header.Width(h.Width).Render(line)
}

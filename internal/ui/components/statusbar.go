// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the auraflow TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status line
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status line: mode and status on the left,
// stream counters in the middle, keyboard shortcuts on the right.
type StatusBar struct {
	Status     Status
	Replay     bool   // Transcript replay instead of a live backend
	ThreadID   string // Active thread, shown truncated
	EventCount int    // Events received in the current turn
	Width      int
	theme      *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the status bar width.
func (sb *StatusBar) SetWidth(width int) {
	sb.Width = width
}

// View renders the status bar.
func (sb *StatusBar) View() string {
	var mode string
	if sb.Replay {
		mode = sb.theme.ModeReplay.Render("REPLAY")
	} else {
		mode = sb.theme.ModeLive.Render("LIVE")
	}

	left := fmt.Sprintf("%s %s %s", mode, sb.Status.Icon(), sb.Status)

	var middle string
	if sb.ThreadID != "" {
		middle = "thread " + truncateCell(sb.ThreadID, 8)
		if sb.EventCount > 0 {
			middle += fmt.Sprintf("  %d events", sb.EventCount)
		}
	}

	right := sb.renderShortcuts()

	gap := sb.Width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right) - 4
	if gap < 2 {
		gap = 2
	}
	leftGap := gap / 2
	rightGap := gap - leftGap

	line := left + strings.Repeat(" ", leftGap) + middle + strings.Repeat(" ", rightGap) + right
	return sb.theme.StatusBar.Width(sb.Width).Render(line)
}

// renderShortcuts renders the shortcut hints, dropping entries as the
// bar narrows.
func (sb *StatusBar) renderShortcuts() string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"ctrl+n", "new"},
		{"ctrl+b", "sidebar"},
		{"ctrl+c", "quit"},
	}

	max := len(shortcuts)
	if sb.Width < 70 {
		max = 1
	} else if sb.Width < 90 {
		max = 2
	}

	parts := make([]string, 0, max)
	for _, sc := range shortcuts[:max] {
		parts = append(parts,
			sb.theme.ShortcutKey.Render(sc.key)+" "+sb.theme.ShortcutDesc.Render(sc.desc))
	}
	return strings.Join(parts, "  ")
}

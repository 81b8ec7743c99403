// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the auraflow TUI.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// =============================================================================
// THINKING INDICATOR - Spinner shown while waiting for the first chunk
// =============================================================================

// Thinking wraps the bubbles spinner with elapsed-time and agent context.
type Thinking struct {
	Spinner spinner.Model
	Active  bool
	Agent   string // Agent currently working, if known
	started time.Time
	theme   *styles.Theme
}

// NewThinking creates a thinking indicator with a dot spinner.
func NewThinking(theme *styles.Theme) *Thinking {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner
	return &Thinking{
		Spinner: s,
		theme:   theme,
	}
}

// Start activates the indicator and resets the clock.
func (t *Thinking) Start() {
	t.Active = true
	t.Agent = ""
	t.started = time.Now()
}

// Stop deactivates the indicator.
func (t *Thinking) Stop() {
	t.Active = false
}

// Elapsed returns how long the indicator has been active.
func (t *Thinking) Elapsed() time.Duration {
	if !t.Active {
		return 0
	}
	return time.Since(t.started)
}

// View renders the indicator line, or "" when inactive.
func (t *Thinking) View() string {
	if !t.Active {
		return ""
	}

	label := "thinking"
	if t.Agent != "" {
		label = t.Agent + " working"
	}

	elapsed := ""
	if d := t.Elapsed(); d >= time.Second {
		elapsed = t.theme.ThinkingTime.Render(fmt.Sprintf(" (%ds)", int(d.Seconds())))
	}

	return t.Spinner.View() + " " + t.theme.ThinkingText.Render(label) + elapsed
}

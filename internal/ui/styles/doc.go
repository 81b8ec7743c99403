// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the auraflow TUI.

This package defines the color palette and the runtime theme used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for info, commands, and user highlights
  - Emerald - Success states and the live backend indicator
  - Amber - Warnings and the replay mode indicator
  - Rose - Errors and failed streams

## Agent Colors

Each pipeline agent (coordinator, planner, researcher, coder, reporter)
carries a stable accent so multi-agent hand-offs are easy to follow:

	color := styles.AgentColor("planner")

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation. The mode argument
comes from the ui.theme config key ("dark", "light", or "auto"):

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// Dark terminal detected
	}

# Accessibility

Status renderers pair high-contrast colors with ASCII shape indicators
so states remain distinguishable without color:

	styles.RenderSuccess("backend reachable")  // [OK] backend reachable
	styles.RenderError("stream failed")        // [X] stream failed
*/
package styles

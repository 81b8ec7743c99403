// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the auraflow TUI.
package styles

import (
	"testing"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme("auto")

	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Verify styles are initialized by rendering a test string
	if theme.App.Render("test") == "" {
		t.Error("NewTheme() should initialize App style")
	}
	if theme.StatusBar.Render("status") == "" {
		t.Error("NewTheme() should initialize StatusBar style")
	}
}

func TestNewThemeModeOverride(t *testing.T) {
	dark := NewTheme("dark")
	if !dark.IsDark {
		t.Error(`NewTheme("dark") should force IsDark`)
	}

	light := NewTheme("light")
	if light.IsDark {
		t.Error(`NewTheme("light") should clear IsDark`)
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme("dark")
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme("dark")
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}

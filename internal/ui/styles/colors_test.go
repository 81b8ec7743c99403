// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the auraflow TUI.
package styles

import (
	"strings"
	"testing"
)

func TestAgentColorKnownAgents(t *testing.T) {
	for _, agent := range []string{"coordinator", "planner", "researcher", "coder", "reporter"} {
		c := AgentColor(agent)
		if c.Dark == "" || c.Light == "" {
			t.Errorf("AgentColor(%q) missing variant: %+v", agent, c)
		}
	}
}

func TestAgentColorUnknownFallsBack(t *testing.T) {
	if got := AgentColor("mystery"); got != TextSecondary {
		t.Errorf("AgentColor(unknown) = %+v, want TextSecondary", got)
	}
}

func TestStatusRenderersIncludeShapeIndicators(t *testing.T) {
	tests := []struct {
		render func(string) string
		shape  string
	}{
		{RenderSuccess, StatusIndicators.Success},
		{RenderError, StatusIndicators.Error},
		{RenderWarning, StatusIndicators.Warning},
		{RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		out := tt.render("message")
		if !strings.Contains(out, tt.shape) {
			t.Errorf("rendered status %q missing shape indicator %q", out, tt.shape)
		}
		if !strings.Contains(out, "message") {
			t.Errorf("rendered status %q missing message text", out)
		}
	}
}

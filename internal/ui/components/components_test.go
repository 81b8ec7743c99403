// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/auraflow/internal/store"
	"github.com/jeranaias/auraflow/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestWordWrap(t *testing.T) {
	wrapped := wordWrap("the quick brown fox jumps over the lazy dog", 10)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width 10", line)
		}
	}

	// Content must survive wrapping.
	if strings.Join(strings.Fields(wrapped), " ") != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrapped content mangled: %q", wrapped)
	}
}

func TestWordWrapZeroWidth(t *testing.T) {
	if got := wordWrap("hello", 0); got != "hello" {
		t.Errorf("wordWrap with zero width = %q", got)
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("hello world", 8); got != "hello..." {
		t.Errorf("truncateCell = %q", got)
	}
	if got := truncateCell("hi", 8); got != "hi" {
		t.Errorf("truncateCell short input = %q", got)
	}
}

// =============================================================================
// HEADER AND STATUS BAR TESTS
// =============================================================================

func TestHeaderView(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.Title = "Morning sync"
	h.Backend = "http://localhost:8000"
	h.Protocol = "native"

	out := h.View()
	if !strings.Contains(out, "auraflow") {
		t.Error("header missing brand")
	}
	if !strings.Contains(out, "Morning sync") {
		t.Error("header missing conversation title")
	}
	if !strings.Contains(out, "native") {
		t.Error("header missing protocol")
	}
}

func TestHeaderReplayMode(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.Replay = true

	if !strings.Contains(h.View(), "REPLAY") {
		t.Error("header should show REPLAY in replay mode")
	}
}

func TestStatusBarView(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(120)
	sb.Status = StatusStreaming
	sb.ThreadID = "0a1b2c3d4e5f"
	sb.EventCount = 7

	out := sb.View()
	if !strings.Contains(out, "LIVE") {
		t.Error("status bar missing mode")
	}
	if !strings.Contains(out, "Streaming") {
		t.Error("status bar missing status text")
	}
	if !strings.Contains(out, "7 events") {
		t.Error("status bar missing event count")
	}
}

func TestStatusBarReplay(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.SetWidth(120)
	sb.Replay = true

	if !strings.Contains(sb.View(), "REPLAY") {
		t.Error("status bar should show REPLAY in replay mode")
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func sidebarFixture() *Sidebar {
	s := NewSidebar(testTheme())
	s.SetSize(28, 20)
	now := time.Now().UnixMilli()
	s.SetConversations([]store.ConversationMeta{
		{ID: "aaa", Title: "First", UpdatedAt: now},
		{ID: "bbb", Title: "Second", UpdatedAt: now},
		{ID: "ccc", Title: "Third", UpdatedAt: now},
	}, "bbb")
	return s
}

func TestSidebarCursorClamping(t *testing.T) {
	s := sidebarFixture()

	s.MoveCursor(-5)
	if s.Cursor != 0 {
		t.Errorf("cursor after underflow = %d, want 0", s.Cursor)
	}

	s.MoveCursor(10)
	if s.Cursor != 2 {
		t.Errorf("cursor after overflow = %d, want 2", s.Cursor)
	}
}

func TestSidebarSelected(t *testing.T) {
	s := sidebarFixture()
	s.MoveCursor(1)

	meta, ok := s.Selected()
	if !ok || meta.ID != "bbb" {
		t.Errorf("Selected() = %+v, %v", meta, ok)
	}
}

func TestSidebarSelectedEmpty(t *testing.T) {
	s := NewSidebar(testTheme())
	if _, ok := s.Selected(); ok {
		t.Error("Selected() on empty sidebar should report false")
	}
}

func TestSidebarViewMarksCurrent(t *testing.T) {
	s := sidebarFixture()
	out := s.View()
	if !strings.Contains(out, "Second") {
		t.Error("sidebar missing conversation title")
	}
	if !strings.Contains(out, "*") {
		t.Error("sidebar missing current-conversation marker")
	}
}

func TestRelativeAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "-"},
		{now.UnixMilli(), "just now"},
		{now.Add(-5 * time.Minute).UnixMilli(), "5m ago"},
		{now.Add(-3 * time.Hour).UnixMilli(), "3h ago"},
		{now.Add(-49 * time.Hour).UnixMilli(), "2d ago"},
	}
	for _, tt := range tests {
		if got := relativeAge(tt.ms); got != tt.want {
			t.Errorf("relativeAge(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

// =============================================================================
// MESSAGE LIST TESTS
// =============================================================================

func TestMessageListEmpty(t *testing.T) {
	ml := NewMessageList(testTheme())
	ml.SetWidth(80)
	if !strings.Contains(ml.View(), "No messages yet") {
		t.Error("empty transcript should render the empty state")
	}
}

func TestMessageListRoles(t *testing.T) {
	ml := NewMessageList(testTheme())
	ml.SetWidth(80)
	ml.ShowAgents = true
	ml.Messages = []Message{
		{Kind: KindMessage, Role: "user", Content: "hello"},
		{Kind: KindMessage, Role: "assistant", Agent: "planner", Content: "planning"},
		{Kind: KindToolResult, Content: "tool output"},
		{Kind: KindNotice, Content: "switched conversation"},
	}

	out := ml.View()
	for _, want := range []string{"you", "planner", "hello", "planning", "tool output", "switched conversation"} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestMessageListAgentsHidden(t *testing.T) {
	ml := NewMessageList(testTheme())
	ml.SetWidth(80)
	ml.ShowAgents = false
	ml.Messages = []Message{
		{Kind: KindMessage, Role: "assistant", Agent: "planner", Content: "planning"},
	}

	out := ml.View()
	if !strings.Contains(out, "assistant") {
		t.Error("transcript should fall back to the role label")
	}
}

func TestMessageListStreamingCursor(t *testing.T) {
	ml := NewMessageList(testTheme())
	ml.SetWidth(80)
	ml.Messages = []Message{
		{Kind: KindMessage, Role: "assistant", Content: "partial", Streaming: true},
	}

	if !strings.Contains(ml.View(), "partial_") {
		t.Error("streaming message should carry a trailing cursor")
	}
}

// =============================================================================
// THINKING INDICATOR TESTS
// =============================================================================

func TestThinkingLifecycle(t *testing.T) {
	th := NewThinking(testTheme())

	if th.View() != "" {
		t.Error("inactive indicator should render nothing")
	}

	th.Start()
	if out := th.View(); !strings.Contains(out, "thinking") {
		t.Errorf("active indicator = %q", out)
	}

	th.Agent = "researcher"
	if out := th.View(); !strings.Contains(out, "researcher working") {
		t.Errorf("agent indicator = %q", out)
	}

	th.Stop()
	if th.View() != "" {
		t.Error("stopped indicator should render nothing")
	}
	if th.Elapsed() != 0 {
		t.Error("stopped indicator should report zero elapsed")
	}
}

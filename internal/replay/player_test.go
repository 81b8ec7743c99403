// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/auraflow/internal/chat"
)

func drain(t *testing.T, events <-chan chat.Event) []chat.Event {
	t.Helper()
	var got []chat.Event
	for ev := range events {
		require.NoError(t, ev.Err)
		got = append(got, ev)
	}
	return got
}

func TestPlayerDefaultTranscript(t *testing.T) {
	p := NewPlayer()
	events, err := p.Stream(context.Background(), Options{FastForward: true})
	require.NoError(t, err)

	got := drain(t, events)
	require.NotEmpty(t, got)

	// First event is the recorded user turn, last event is terminal.
	require.Equal(t, chat.RoleUser, got[0].Chunk.Role)
	require.True(t, got[len(got)-1].IsTerminal())
}

func TestPlayerFeedbackSelection(t *testing.T) {
	p := NewPlayer()

	events, err := p.Stream(context.Background(), Options{Feedback: TranscriptAccepted, FastForward: true})
	require.NoError(t, err)
	got := drain(t, events)

	var sawToolResult bool
	for _, ev := range got {
		if ev.Type == chat.EventToolCallResult {
			sawToolResult = true
			require.Equal(t, "call-search-1", ev.ToolResult.ToolCallID)
		}
	}
	require.True(t, sawToolResult, "accepted transcript carries a tool result")
}

func TestPlayerUnknownReplayIDFallsBack(t *testing.T) {
	p := NewPlayer()
	events, err := p.Stream(context.Background(), Options{ReplayID: "no-such-transcript", FastForward: true})
	require.NoError(t, err)
	require.NotEmpty(t, drain(t, events))
}

func TestPlayerExplicitFileAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "turn.sse")
	transcript := "event: message_chunk\n" +
		`data: {"id":"f1","thread_id":"t","role":"assistant","content":"hi","finish_reason":"stop"}` + "\n\n"
	require.NoError(t, os.WriteFile(path, []byte(transcript), 0o644))

	p := NewPlayer()
	events, err := p.Stream(context.Background(), Options{File: path, FastForward: true})
	require.NoError(t, err)
	got := drain(t, events)
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0].Chunk.Content)

	// Second playback is served from the cache even after the file is
	// removed.
	require.NoError(t, os.Remove(path))
	events, err = p.Stream(context.Background(), Options{File: path, FastForward: true})
	require.NoError(t, err)
	require.Len(t, drain(t, events), 1)
}

func TestPlayerFastForwardSameSequence(t *testing.T) {
	p := NewPlayer()

	paced, err := p.Stream(context.Background(), Options{Feedback: TranscriptEditPlan})
	require.NoError(t, err)
	pacedEvents := drain(t, paced)

	fast, err := p.Stream(context.Background(), Options{Feedback: TranscriptEditPlan, FastForward: true})
	require.NoError(t, err)
	start := time.Now()
	fastEvents := drain(t, fast)
	elapsed := time.Since(start)

	require.Equal(t, len(pacedEvents), len(fastEvents))
	for i := range pacedEvents {
		require.Equal(t, pacedEvents[i].Type, fastEvents[i].Type)
		require.Equal(t, pacedEvents[i].Content(), fastEvents[i].Content())
	}
	require.Less(t, elapsed, 100*time.Millisecond, "fast-forward must not pace")
}

func TestPlayerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPlayer()

	events, err := p.Stream(ctx, Options{Feedback: TranscriptAccepted})
	require.NoError(t, err)

	// Take one event, then cancel mid-pacing.
	ev, ok := <-events
	require.True(t, ok)
	require.NoError(t, ev.Err)
	cancel()

	deadline := time.After(2 * time.Second)
	count := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				// A couple of events may already sit in the buffer;
				// the full transcript must not play out.
				require.Less(t, count, 4)
				return
			}
			count++
		case <-deadline:
			t.Fatal("channel not closed after cancellation")
		}
	}
}

func TestPlayerSkipsMalformedBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.sse")
	transcript := "event: message_chunk\n" +
		`data: {"id":"m1","thread_id":"t","role":"assistant","content":"a","finish_reason":null}` + "\n\n" +
		"event: unknown_kind\ndata: {}\n\n" +
		"data: {\"orphan\":true}\n\n" +
		"event: message_chunk\n" +
		`data: {"id":"m1","thread_id":"t","role":"assistant","content":"b","finish_reason":"stop"}` + "\n\n"
	require.NoError(t, os.WriteFile(path, []byte(transcript), 0o644))

	p := NewPlayer()
	events, err := p.Stream(context.Background(), Options{File: path, FastForward: true})
	require.NoError(t, err)
	got := drain(t, events)
	require.Len(t, got, 2)
	require.Equal(t, "ab", got[0].Content()+got[1].Content())
}

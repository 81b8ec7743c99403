// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/auraflow/internal/chat"
)

// newNativeTransport builds a transport pinned to the native protocol,
// bypassing URL detection. httptest servers always listen on 127.0.0.1,
// which detection classifies as OpenAI-compatible.
func newNativeTransport(baseURL string) *Transport {
	return &Transport{baseURL: baseURL, protocol: ProtocolNative}
}

func collect(t *testing.T, events <-chan chat.Event) []chat.Event {
	t.Helper()
	var got []chat.Event
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestStreamOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+DefaultAPIToken, r.Header.Get("Authorization"))
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1/chat/completions"))

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"id":"c1","choices":[{"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"c1","choices":[{"delta":{"content":"lo"}}]}`,
			`{"id":"c1","choices":[{"delta":{"content":""},"finish_reason":"stop"}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	tr := New(server.URL)
	require.Equal(t, ProtocolOpenAI, tr.Protocol())

	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi", ThreadID: "t1"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)

	var content strings.Builder
	for _, ev := range got {
		require.NoError(t, ev.Err)
		require.Equal(t, chat.EventMessageChunk, ev.Type)
		content.WriteString(ev.Chunk.Content)
	}
	require.Equal(t, "Hello", content.String())

	last := got[len(got)-1]
	require.True(t, last.IsTerminal())
	require.Equal(t, "stop", *last.Chunk.FinishReason)
	require.Equal(t, "t1", last.Chunk.ThreadID)
}

func TestStreamNative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, true, body["stream"])
		require.Equal(t, "t2", body["thread_id"])
		require.Equal(t, float64(3), body["max_plan_iterations"])
		// Native protocol sends no credential.
		require.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_chunk\n")
		fmt.Fprint(w, `data: {"id":"m1","thread_id":"t2","agent":"coordinator","role":"assistant","content":"part "}`+"\n\n")
		fmt.Fprint(w, "event: tool_call_result\n")
		fmt.Fprint(w, `data: {"id":"m2","thread_id":"t2","agent":"researcher","tool_call_id":"tc1","content":"result"}`+"\n\n")
		// Unknown event tags and malformed blocks are skipped.
		fmt.Fprint(w, "event: heartbeat\ndata: {}\n\n")
		fmt.Fprint(w, "data: {\"orphan\":true}\n\n")
		fmt.Fprint(w, "event: message_chunk\n")
		fmt.Fprint(w, `data: {"id":"m3","thread_id":"t2","agent":"coordinator","role":"assistant","content":"two","finish_reason":"stop"}`+"\n\n")
	}))
	defer server.Close()

	tr := newNativeTransport(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{
		Message:  "hi",
		ThreadID: "t2",
		Params:   map[string]any{"max_plan_iterations": 3},
	})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)
	require.Equal(t, chat.EventMessageChunk, got[0].Type)
	require.Equal(t, chat.EventToolCallResult, got[1].Type)
	require.Equal(t, "tc1", got[1].ToolResult.ToolCallID)
	require.True(t, got[2].IsTerminal())
}

func TestStreamFallbackOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Stream bool `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Stream {
			http.Error(w, "stream unavailable", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "fb1",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "fallback answer"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	tr := New(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi", ThreadID: "t3"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1, "fallback must synthesize exactly one event")
	require.NoError(t, got[0].Err)
	require.True(t, got[0].IsTerminal())
	require.Equal(t, "fallback answer", got[0].Chunk.Content)
	require.Equal(t, "t3", got[0].Chunk.ThreadID)
	require.Equal(t, int32(2), calls.Load(), "exactly one retry")
}

func TestStreamClientErrorSkipsFallback(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":"invalid_request","message":"bad payload"}}`)
	}))
	defer server.Close()

	tr := New(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	require.Error(t, got[0].Err)

	var be *BackendError
	require.ErrorAs(t, got[0].Err, &be)
	require.True(t, be.IsClientError())
	require.Equal(t, "invalid_request", be.Code)
	require.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestStreamFallbackFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := New(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)

	var be *BackendError
	require.ErrorAs(t, got[0].Err, &be)
	require.Equal(t, http.StatusInternalServerError, be.Status)
}

func TestStreamEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	tr := New(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0].Err, ErrEmptyResponse)
}

func TestStreamFallbackEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Stream {
			http.Error(w, "no stream", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "fb2",
			"choices": []map[string]any{{"message": map[string]any{"content": ""}}},
		})
	}))
	defer server.Close()

	tr := New(server.URL)
	events, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0].Err, ErrEmptyResponse)
}

func TestStreamCancellation(t *testing.T) {
	first := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, `data: {"id":"c1","choices":[{"delta":{"content":"one"}}]}`+"\n\n")
		fl.Flush()
		close(first)
		// Keep the stream open until the client disconnects.
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := New(server.URL)
	events, err := tr.Stream(ctx, &ChatRequest{Message: "hi"})
	require.NoError(t, err)

	ev := <-events
	require.NoError(t, ev.Err)
	require.Equal(t, "one", ev.Chunk.Content)

	<-first
	cancel()

	// After cancellation the channel must close without further events.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			require.Fail(t, "unexpected event after cancellation", "%+v", ev)
		case <-deadline:
			require.Fail(t, "channel not closed after cancellation")
		}
	}
}

func TestStreamNotConfigured(t *testing.T) {
	tr := New("")
	_, err := tr.Stream(context.Background(), &ChatRequest{Message: "hi"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/sse"
)

func testServerConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RateLimit = 0 // disabled unless a test enables it
	return cfg
}

// scriptedStream returns a StreamFunc yielding the given events.
func scriptedStream(events ...chat.Event) StreamFunc {
	return func(ctx context.Context, req *backend.ChatRequest) (<-chan chat.Event, error) {
		out := make(chan chat.Event, len(events))
		for _, ev := range events {
			out <- ev
		}
		close(out)
		return out, nil
	}
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatBridgesEventsAsSSE(t *testing.T) {
	stop := "stop"
	srv := New(testServerConfig(), "", scriptedStream(
		chat.Event{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{
			ID: "m1", ThreadID: "t1", Role: chat.RoleAssistant, Content: "hel",
		}},
		chat.Event{Type: chat.EventToolCallResult, ToolResult: &chat.ToolCallResult{
			ID: "r1", ThreadID: "t1", ToolCallID: "c1", Content: "ok",
		}},
		chat.Event{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{
			ID: "m1", ThreadID: "t1", Role: chat.RoleAssistant, Content: "lo", FinishReason: &stop,
		}},
	))

	rec := postChat(t, srv.Handler(), `{"message":"hi","thread_id":"t1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	reader := sse.NewReader(rec.Body)
	var names []string
	var contents []string
	for {
		ev, err := reader.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		names = append(names, ev.Name)
		parsed, err := chat.ParseEvent(ev.Name, []byte(ev.Data))
		if err != nil {
			t.Fatalf("parse event: %v", err)
		}
		contents = append(contents, parsed.Content())
	}

	wantNames := []string{"message_chunk", "tool_call_result", "message_chunk"}
	if len(names) != len(wantNames) {
		t.Fatalf("got %d events (%v), want %d", len(names), names, len(wantNames))
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("event %d = %q, want %q", i, names[i], wantNames[i])
		}
	}
	if got := strings.Join(contents, ""); got != "heloklo" {
		t.Errorf("content = %q, want %q", got, "heloklo")
	}
}

func TestChatStreamErrorBecomesErrorEvent(t *testing.T) {
	srv := New(testServerConfig(), "", scriptedStream(
		chat.Event{Err: backend.ErrEmptyResponse},
	))

	rec := postChat(t, srv.Handler(), `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	reader := sse.NewReader(rec.Body)
	ev, err := reader.NextEvent()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Name != "error" {
		t.Fatalf("event name = %q, want error", ev.Name)
	}
	if !strings.Contains(ev.Data, "empty response") {
		t.Errorf("error payload = %q", ev.Data)
	}
}

func TestChatValidation(t *testing.T) {
	srv := New(testServerConfig(), "", scriptedStream())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty message", `{"message":""}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, srv.Handler(), tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	// Wrong method.
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat status = %d", rec.Code)
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	srv := New(testServerConfig(), "", func(ctx context.Context, req *backend.ChatRequest) (<-chan chat.Event, error) {
		return nil, backend.ErrNotConfigured
	})

	rec := postChat(t, srv.Handler(), `{"message":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := New(testServerConfig(), "", scriptedStream())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Version != Version {
		t.Errorf("health = %+v", health)
	}
}

func TestModelsPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":[{"id":"qwen2.5-7b-instruct","object":"model"}]}`)
	}))
	defer upstream.Close()

	srv := New(testServerConfig(), upstream.URL, scriptedStream())

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("qwen2.5-7b-instruct")) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestModelsWithoutBackend(t *testing.T) {
	srv := New(testServerConfig(), "", scriptedStream())

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	srv := New(cfg, "", scriptedStream())

	var got []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		got = append(got, rec.Code)
	}

	if got[0] != http.StatusOK || got[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", got)
	}
	if got[3] != http.StatusTooManyRequests {
		t.Fatalf("limit not enforced: %v", got)
	}

	// A different client is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client status = %d", rec.Code)
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBodyBytes = 64
	srv := New(cfg, "", scriptedStream())

	big := fmt.Sprintf(`{"message":%q}`, strings.Repeat("x", 200))
	rec := postChat(t, srv.Handler(), big)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for oversize body", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := Chain(RecoveryMiddleware())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

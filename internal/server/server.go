// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/sse"
)

// Version is the server version.
const Version = "0.1.0"

// StreamFunc runs one chat turn and yields normalized events. Both the
// live transport and the replay player satisfy this shape.
type StreamFunc func(ctx context.Context, req *backend.ChatRequest) (<-chan chat.Event, error)

// ============================================================================
// SERVER
// ============================================================================

// Server is the local SSE bridge.
type Server struct {
	cfg     config.ServerConfig
	stream  StreamFunc
	baseURL string
	mux     *http.ServeMux
	httpSrv *http.Server
	started time.Time

	totalRequests atomic.Int64
}

// New creates a bridge server. baseURL is used only for the /v1/models
// passthrough; chat turns go through stream.
func New(cfg config.ServerConfig, baseURL string, stream StreamFunc) *Server {
	s := &Server{
		cfg:     cfg,
		stream:  stream,
		baseURL: baseURL,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.setupRoutes()

	handler := Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(nil),
		RateLimitMiddleware(NewRateLimiter(cfg.RateLimit, cfg.RateBurst)),
		BodyLimitMiddleware(cfg.MaxBodyBytes),
	)(s.mux)

	s.httpSrv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes registers the HTTP handlers.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/v1/models", s.handleModels)
}

// Handler returns the full middleware-wrapped handler. Exposed for
// tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// ============================================================================
// REQUEST/RESPONSE TYPES
// ============================================================================

// ChatTurnRequest is the bridge's inbound request body.
type ChatTurnRequest struct {
	Message  string         `json:"message"`
	ThreadID string         `json:"thread_id,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat runs one turn and re-emits the event stream as SSE. Every
// normalized event becomes one `event:`/`data:` block; a turn-fatal
// failure is emitted as a final `error` event.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.totalRequests.Add(1)

	var req ChatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	events, err := s.stream(r.Context(), &backend.ChatRequest{
		Message:  req.Message,
		ThreadID: req.ThreadID,
		Params:   req.Params,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writer := sse.NewWriter(w)
	for ev := range events {
		if ev.Err != nil {
			payload, _ := json.Marshal(errorBody{Error: ev.Err.Error()})
			writer.WriteEvent("error", string(payload))
			return
		}
		if err := s.writeEvent(writer, ev); err != nil {
			// Client went away; the stream goroutine winds down via
			// the request context.
			return
		}
	}
}

// writeEvent re-encodes one normalized event onto the wire.
func (s *Server) writeEvent(writer *sse.Writer, ev chat.Event) error {
	var payload []byte
	var err error
	switch ev.Type {
	case chat.EventMessageChunk:
		payload, err = json.Marshal(ev.Chunk)
	case chat.EventToolCallResult:
		payload, err = json.Marshal(ev.ToolResult)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return writer.WriteEvent(string(ev.Type), string(payload))
}

// ============================================================================
// HEALTH & MODELS
// ============================================================================

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSecs    int64  `json:"uptime_secs"`
	TotalRequests int64  `json:"total_requests"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSecs:    int64(time.Since(s.started).Seconds()),
		TotalRequests: s.totalRequests.Load(),
	})
}

// handleModels proxies the model list from the configured backend.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.baseURL == "" {
		writeError(w, http.StatusServiceUnavailable, "no backend configured")
		return
	}

	models, err := backend.ListModels(r.Context(), s.baseURL)
	if err != nil {
		log.Printf("server: models passthrough failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   models,
	})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/sse"
)

// eventBuffer is the channel buffer for streamed events. Large enough to
// absorb bursts without blocking the reader loop on a slow consumer.
const eventBuffer = 64

// Transport performs streaming chat calls against one backend and yields
// normalized chat events.
//
// Each turn moves through: build request -> open stream -> forward decoded
// events -> done. If opening the stream fails before any data arrives
// (network error or retryable status), the turn retries exactly once as a
// single non-streaming call whose response is synthesized into one
// terminal message_chunk. A failure of that fallback is fatal for the
// turn; there are no further retries.
type Transport struct {
	baseURL  string
	protocol Protocol
}

// New creates a transport for baseURL, classifying its protocol once.
func New(baseURL string) *Transport {
	return &Transport{
		baseURL:  baseURL,
		protocol: Detect(baseURL),
	}
}

// Protocol returns the detected wire protocol.
func (t *Transport) Protocol() Protocol {
	return t.protocol
}

// BaseURL returns the configured backend URL.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Stream performs one chat turn. The returned channel yields normalized
// events and is closed when the turn completes; a failure is delivered as
// a final event with Err set. After ctx is cancelled no further events
// are yielded. The synchronous error covers configuration and request
// construction problems only.
func (t *Transport) Stream(ctx context.Context, req *ChatRequest) (<-chan chat.Event, error) {
	if t.baseURL == "" {
		return nil, ErrNotConfigured
	}

	httpReq, err := buildRequest(ctx, t.protocol, t.baseURL, req, true)
	if err != nil {
		return nil, err
	}

	out := make(chan chat.Event, eventBuffer)
	go func() {
		defer close(out)
		t.run(ctx, req, httpReq, out)
	}()
	return out, nil
}

// run drives one turn: stream, or fall back, or fail.
func (t *Transport) run(ctx context.Context, req *ChatRequest, httpReq *http.Request, out chan<- chat.Event) {
	resp, err := sharedStreamingClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Network failure before any data: take the fallback path.
		t.fallback(ctx, req, out)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A non-2xx response is never decoded as a stream.
		body, _ := readResponse(resp)
		openErr := errorFromResponse(resp.StatusCode, body)
		if skipsFallback(openErr) {
			send(ctx, out, chat.Event{Err: openErr})
			return
		}
		t.fallback(ctx, req, out)
		return
	}

	switch t.protocol {
	case ProtocolOpenAI:
		t.consumeOpenAI(ctx, req, resp.Body, out)
	default:
		t.consumeNative(ctx, resp.Body, out)
	}
}

// fallback performs the single non-streaming retry and synthesizes one
// terminal message_chunk from the response. A failure here is surfaced
// unmodified and ends the turn.
func (t *Transport) fallback(ctx context.Context, req *ChatRequest, out chan<- chat.Event) {
	ev, err := t.complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		send(ctx, out, chat.Event{Err: err})
		return
	}
	send(ctx, out, ev)
}

// completionResponse is the non-streaming chat completions envelope.
type completionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// complete issues one non-streaming chat call and returns the synthesized
// terminal event.
func (t *Transport) complete(ctx context.Context, req *ChatRequest) (chat.Event, error) {
	httpReq, err := buildRequest(ctx, t.protocol, t.baseURL, req, false)
	if err != nil {
		return chat.Event{}, err
	}

	resp, err := sharedHTTPClient.Do(httpReq)
	if err != nil {
		return chat.Event{}, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return chat.Event{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return chat.Event{}, errorFromResponse(resp.StatusCode, body)
	}

	var completion completionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return chat.Event{}, &BackendError{Status: resp.StatusCode, Message: "unparseable completion response"}
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return chat.Event{}, ErrEmptyResponse
	}

	choice := completion.Choices[0]
	reason := choice.FinishReason
	if reason == "" {
		reason = "stop"
	}
	id := completion.ID
	if id == "" {
		id = uuid.NewString()
	}
	return chat.TerminalChunk(id, req.ThreadID, choice.Message.Content, reason), nil
}

// =============================================================================
// OPENAI STREAM DECODING
// =============================================================================

// openAIStreamChunk is one delta frame from an OpenAI-compatible stream.
type openAIStreamChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// consumeOpenAI decodes a data-only SSE stream of delta frames into
// message_chunk events. The `[DONE]` sentinel or a frame with a finish
// reason ends the turn.
func (t *Transport) consumeOpenAI(ctx context.Context, req *ChatRequest, body io.Reader, out chan<- chat.Event) {
	reader := sse.NewReader(body)
	emitted := 0

	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				t.finish(ctx, out, emitted)
				return
			}
			if ctx.Err() != nil {
				return
			}
			send(ctx, out, chat.Event{Err: &StreamError{Err: err}})
			return
		}

		if raw.Data == "[DONE]" {
			t.finish(ctx, out, emitted)
			return
		}

		var frame openAIStreamChunk
		if err := json.Unmarshal([]byte(raw.Data), &frame); err != nil {
			// Malformed frames are skipped, not fatal.
			log.Printf("backend: skipping malformed stream frame: %v", err)
			continue
		}
		if len(frame.Choices) == 0 {
			continue
		}

		choice := frame.Choices[0]
		chunk := &chat.MessageChunk{
			ID:       frame.ID,
			ThreadID: req.ThreadID,
			Role:     chat.RoleAssistant,
			Content:  choice.Delta.Content,
		}
		if choice.Delta.Role != "" {
			chunk.Role = chat.Role(choice.Delta.Role)
		}
		if choice.FinishReason != "" {
			reason := choice.FinishReason
			chunk.FinishReason = &reason
		}

		if !send(ctx, out, chat.Event{Type: chat.EventMessageChunk, Chunk: chunk}) {
			return
		}
		emitted++

		if chunk.IsTerminal() {
			return
		}
	}
}

// =============================================================================
// NATIVE STREAM DECODING
// =============================================================================

// consumeNative decodes event/data SSE blocks through the parse boundary.
// Malformed blocks and unknown event tags are logged and skipped.
func (t *Transport) consumeNative(ctx context.Context, body io.Reader, out chan<- chat.Event) {
	reader := sse.NewReader(body)
	emitted := 0

	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := reader.NextEvent()
		if err != nil {
			if err == io.EOF {
				t.finish(ctx, out, emitted)
				return
			}
			if errors.Is(err, sse.ErrMalformedBlock) {
				log.Printf("backend: skipping malformed SSE block (event=%q)", raw.Name)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			send(ctx, out, chat.Event{Err: &StreamError{Err: err}})
			return
		}

		ev, err := chat.ParseEvent(raw.Name, []byte(raw.Data))
		if err != nil {
			log.Printf("backend: skipping event: %v", err)
			continue
		}

		if !send(ctx, out, ev) {
			return
		}
		emitted++
	}
}

// finish handles normal stream exhaustion: a turn that produced nothing
// at all is an empty-response failure.
func (t *Transport) finish(ctx context.Context, out chan<- chat.Event, emitted int) {
	if emitted == 0 {
		send(ctx, out, chat.Event{Err: ErrEmptyResponse})
	}
}

// send delivers an event unless the context has been cancelled. Reports
// whether the event was delivered; false means the consumer is gone and
// no further events may be yielded.
func send(ctx context.Context, out chan<- chat.Event, ev chat.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

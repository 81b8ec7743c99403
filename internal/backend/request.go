// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultAPIToken is the placeholder bearer credential sent to local
// OpenAI-compatible servers. LM Studio ignores the value but rejects
// requests without an Authorization header in some configurations.
const DefaultAPIToken = "lm-studio"

// Sampling defaults for the OpenAI-compatible path.
const (
	defaultTemperature      = 0.7
	defaultMaxTokens        = 4096
	defaultTopP             = 0.9
	defaultPresencePenalty  = 0.0
	defaultFrequencyPenalty = 0.0
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// ChatRequest is one chat turn as issued by the caller. Params carries
// the native backend's caller-supplied settings (plan/step limits,
// resources, MCP tool settings, report style, ...) and is forwarded
// opaquely; the transport never interprets them.
type ChatRequest struct {
	Message  string
	ThreadID string
	Params   map[string]any
}

// openAIBody is the request body for the OpenAI-compatible protocol.
type openAIBody struct {
	Messages         []ChatMessage `json:"messages"`
	Stream           bool          `json:"stream"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
}

// buildBody marshals the request body for the given protocol. For the
// native protocol the caller's Params are merged into the top-level
// object unmodified; "messages" and "stream" are reserved keys.
func buildBody(protocol Protocol, req *ChatRequest, stream bool) ([]byte, error) {
	messages := []ChatMessage{NewUserMessage(req.Message)}

	switch protocol {
	case ProtocolOpenAI:
		return json.Marshal(openAIBody{
			Messages:         messages,
			Stream:           stream,
			Temperature:      defaultTemperature,
			MaxTokens:        defaultMaxTokens,
			TopP:             defaultTopP,
			PresencePenalty:  defaultPresencePenalty,
			FrequencyPenalty: defaultFrequencyPenalty,
		})

	case ProtocolNative:
		body := make(map[string]any, len(req.Params)+3)
		for k, v := range req.Params {
			body[k] = v
		}
		body["messages"] = messages
		body["stream"] = stream
		if req.ThreadID != "" {
			body["thread_id"] = req.ThreadID
		}
		return json.Marshal(body)

	default:
		return nil, fmt.Errorf("unknown protocol %d", protocol)
	}
}

// endpoint resolves the request URL for the given protocol and base URL.
func endpoint(protocol Protocol, baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if protocol == ProtocolOpenAI {
		base = strings.TrimSuffix(base, "/v1")
		return base + "/v1/chat/completions"
	}
	return base
}

// buildRequest constructs the HTTP request for one chat call. The
// OpenAI-compatible path carries the static bearer credential; the
// native path sends no Authorization header.
func buildRequest(ctx context.Context, protocol Protocol, baseURL string, req *ChatRequest, stream bool) (*http.Request, error) {
	body, err := buildBody(protocol, req, stream)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(protocol, baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if protocol == ProtocolOpenAI {
		httpReq.Header.Set("Authorization", "Bearer "+DefaultAPIToken)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Cache-Control", "no-cache")
	}
	return httpReq, nil
}

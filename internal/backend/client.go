// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTimeout is the timeout for non-streaming API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps non-streaming response bodies (10MB).
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for non-streaming requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; stream lifetime is
	// controlled entirely through the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
)

// readResponse reads a response body with the size limit applied.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// =============================================================================
// MODEL LISTING
// =============================================================================

// ModelInfo describes one model advertised by an OpenAI-compatible
// server's /v1/models endpoint.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// modelsResponse is the /v1/models envelope.
type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// ListModels queries {base}/v1/models and returns the advertised models.
// Only meaningful for OpenAI-compatible backends.
func ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelsURL(baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	var models modelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	return models.Data, nil
}

// modelsURL resolves the models endpoint for a base URL that may or may
// not already carry the /v1 suffix.
func modelsURL(baseURL string) string {
	base := trimBase(baseURL)
	return base + "/v1/models"
}

func trimBase(baseURL string) string {
	base := baseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if len(base) >= 3 && base[len(base)-3:] == "/v1" {
		base = base[:len(base)-3]
	}
	return base
}

// =============================================================================
// TRANSPORT CACHE
// =============================================================================

// One transport per resolved backend URL, cached process-wide so repeated
// turns reuse the pooled connections.
var (
	transportCache   = make(map[string]*Transport)
	transportCacheMu sync.Mutex
)

// For returns the cached transport for baseURL, creating it on first use.
func For(baseURL string) *Transport {
	transportCacheMu.Lock()
	defer transportCacheMu.Unlock()

	if t, ok := transportCache[baseURL]; ok {
		return t
	}
	t := New(baseURL)
	transportCache[baseURL] = t
	return t
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error variables for common transport failures.
var (
	// ErrNotConfigured indicates no backend URL is configured and none
	// could be discovered.
	ErrNotConfigured = errors.New("no chat backend configured")

	// ErrEmptyResponse indicates the stream or the fallback call
	// completed without producing any content.
	ErrEmptyResponse = errors.New("backend returned an empty response")

	// ErrNotDetected indicates LM Studio discovery probed every
	// candidate host without finding a responding server.
	ErrNotDetected = errors.New("no running LM Studio instance detected")
)

// BackendError represents a protocol-level failure: a non-2xx status or
// an error payload returned by the backend.
type BackendError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// IsClientError reports whether the failure is a 4xx status. Client
// errors skip the non-streaming fallback: replaying an invalid request
// cannot succeed.
func (e *BackendError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// StreamError wraps a mid-stream failure, preserving the partial content
// received before the connection died.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// apiErrorResponse is the error envelope used by OpenAI-compatible
// servers.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorFromResponse converts a non-2xx response body into a BackendError,
// decoding the standard error envelope when present.
func errorFromResponse(status int, body []byte) *BackendError {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &BackendError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  status,
		}
	}
	return &BackendError{
		Message: string(body),
		Status:  status,
	}
}

// skipsFallback reports whether a stream-open failure should bypass the
// one-shot non-streaming fallback. 4xx statuses are deterministic request
// errors; network failures and 5xx statuses take the fallback path.
func skipsFallback(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.IsClientError()
}

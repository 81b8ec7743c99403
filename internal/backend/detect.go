// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend implements the streaming chat transport: protocol
// detection, request construction, the streaming call with its one-shot
// non-streaming fallback, and LM Studio endpoint discovery. All wire
// traffic is normalized into chat.Event values before it leaves this
// package.
package backend

import "strings"

// Protocol identifies which wire protocol a backend URL speaks.
type Protocol int

const (
	// ProtocolOpenAI is the OpenAI-compatible chat completions API
	// exposed by local model servers such as LM Studio.
	ProtocolOpenAI Protocol = iota

	// ProtocolNative is the Deer-Flow streaming backend protocol
	// (event/data SSE blocks carrying normalized chat events).
	ProtocolNative
)

// String returns a human-readable protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolOpenAI:
		return "openai-compatible"
	case ProtocolNative:
		return "native"
	default:
		return "unknown"
	}
}

// localMarkers are the ordered, case-sensitive substrings that mark a URL
// as a local OpenAI-compatible server. Port 1234 is LM Studio's default.
var localMarkers = []string{":1234", "localhost:", "127.0.0.1:"}

// Detect classifies a backend base URL. Pure and total: no network
// access, no state, and every URL maps to exactly one protocol.
func Detect(baseURL string) Protocol {
	for _, marker := range localMarkers {
		if strings.Contains(baseURL, marker) {
			return ProtocolOpenAI
		}
	}
	return ProtocolNative
}

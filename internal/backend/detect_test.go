// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Protocol
	}{
		{"lm studio default port", "http://192.168.1.20:1234", ProtocolOpenAI},
		{"localhost any port", "http://localhost:8000/api/chat/stream", ProtocolOpenAI},
		{"loopback ip", "http://127.0.0.1:8080", ProtocolOpenAI},
		{"port 1234 with path", "https://gateway.lan:1234/v1", ProtocolOpenAI},
		{"remote backend", "https://chat.example.com/api/chat/stream", ProtocolNative},
		{"remote with other port", "https://chat.example.com:9000/stream", ProtocolNative},
		{"empty url", "", ProtocolNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.url); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestProtocolString(t *testing.T) {
	if ProtocolOpenAI.String() != "openai-compatible" {
		t.Errorf("unexpected name %q", ProtocolOpenAI.String())
	}
	if ProtocolNative.String() != "native" {
		t.Errorf("unexpected name %q", ProtocolNative.String())
	}
}

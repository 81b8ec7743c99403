// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Writer emits SSE blocks in the same framing the Reader consumes.
// Used by the local bridge server to re-serve normalized events.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter creates a Writer. If w implements http.Flusher each event is
// flushed immediately so clients observe real-time streaming.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// WriteEvent writes one `event:`/`data:` block followed by the blank
// separator line. Multi-line data is split across `data:` lines so the
// block survives a round trip through the Reader.
func (sw *Writer) WriteEvent(name, data string) error {
	if _, err := fmt.Fprintf(sw.w, "event: %s\n", name); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(sw.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(sw.w, "\n"); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes and encodes the server-sent-event framing used by
// the chat backends: blocks of `event:`/`data:` lines separated by a
// blank line. The reader knows nothing about chat semantics; it yields
// raw records for the transport layer to interpret.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// MaxEventSize is the maximum allowed size for a single SSE event (64KB).
const MaxEventSize = 64 * 1024

// ErrMalformedBlock is returned by NextEvent for a block that is missing
// its `event:` or `data:` line. The stream remains readable; callers are
// expected to log and skip the block.
var ErrMalformedBlock = errors.New("malformed SSE block")

// ErrEventTooLarge is returned when a single event exceeds MaxEventSize.
var ErrEventTooLarge = errors.New("SSE event exceeds size limit")

// RawEvent is one decoded SSE record.
type RawEvent struct {
	// Name is the value of the `event:` line, empty if absent.
	Name string
	// Data is the value of the `data:` line(s), joined with newlines.
	Data string
}

// Reader decodes SSE blocks from a byte stream. It buffers across chunk
// boundaries, so the records produced are identical regardless of how the
// underlying stream is split. A Reader is single-use and not restartable.
type Reader struct {
	reader *bufio.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Next reads the next SSE block. Blocks containing neither an event name
// nor data (comments, bare `id:`/`retry:` fields) are skipped. Returns
// io.EOF when the stream ends; a final unterminated block is still
// delivered before EOF.
func (r *Reader) Next() (RawEvent, error) {
	var (
		name      string
		dataLines [][]byte
		hasData   bool
		size      int
	)

	flush := func() RawEvent {
		return RawEvent{Name: name, Data: string(bytes.Join(dataLines, []byte("\n")))}
	}

	for {
		line, err := r.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Deliver any pending block before signalling EOF.
				line = bytes.TrimRight(line, "\r\n")
				if consumed := r.consumeLine(line, &name, &dataLines, &hasData); consumed {
					size += len(line)
				}
				if name != "" || hasData {
					return flush(), nil
				}
				return RawEvent{}, io.EOF
			}
			return RawEvent{}, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates the block.
		if len(line) == 0 {
			if name != "" || hasData {
				return flush(), nil
			}
			continue
		}

		size += len(line)
		if size > MaxEventSize {
			return RawEvent{}, ErrEventTooLarge
		}

		r.consumeLine(line, &name, &dataLines, &hasData)
	}
}

// consumeLine folds a single field line into the block state. Comment
// lines and unknown fields are ignored per the SSE format.
func (r *Reader) consumeLine(line []byte, name *string, dataLines *[][]byte, hasData *bool) bool {
	switch {
	case bytes.HasPrefix(line, []byte("event:")):
		*name = string(bytes.TrimSpace(line[len("event:"):]))
		return true
	case bytes.HasPrefix(line, []byte("data:")):
		*dataLines = append(*dataLines, bytes.TrimSpace(line[len("data:"):]))
		*hasData = true
		return true
	default:
		// id:, retry:, and comments starting with ':' are ignored.
		return false
	}
}

// NextEvent reads the next block and enforces the chat wire contract:
// every block must carry both an event name and a data payload. Blocks
// missing either are reported as ErrMalformedBlock; the stream stays
// usable so the caller can skip and continue. Returns io.EOF at the end
// of the stream.
func (r *Reader) NextEvent() (RawEvent, error) {
	ev, err := r.Next()
	if err != nil {
		return RawEvent{}, err
	}
	if ev.Name == "" || ev.Data == "" {
		return ev, ErrMalformedBlock
	}
	return ev, nil
}

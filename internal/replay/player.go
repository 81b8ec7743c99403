// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package replay plays back recorded chat transcripts in place of a live
// backend. Transcripts are plain text files in the same SSE block format
// as the wire protocol, yielded with injected delays that emulate
// real-time pacing. Used for offline demos and automated testing.
package replay

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/sse"
)

//go:embed transcripts/*.sse
var builtinFS embed.FS

// Built-in transcript names. Feedback kinds map onto these directly.
const (
	TranscriptDefault  = "default"
	TranscriptAccepted = "accepted"
	TranscriptEditPlan = "edit_plan"
)

// Pacing delays. Tool results pause longer to mimic execution time.
const (
	chunkDelay      = 50 * time.Millisecond
	beforeToolDelay = 500 * time.Millisecond
	afterToolDelay  = 800 * time.Millisecond
	afterUserDelay  = 500 * time.Millisecond
)

// ErrNoTranscript is returned when no transcript matches the options.
var ErrNoTranscript = errors.New("no replay transcript found")

// Options selects a transcript and controls playback. Selection order:
// File, then Feedback, then ReplayID, then the built-in default.
// FastForward is per-call rather than global so automated runs and
// interactive sessions can coexist in one process.
type Options struct {
	// File is an explicit transcript path on disk.
	File string

	// Feedback selects a built-in transcript by feedback kind
	// ("accepted" or "edit_plan").
	Feedback string

	// ReplayID names a built-in transcript directly.
	ReplayID string

	// FastForward collapses every injected delay to zero.
	FastForward bool
}

// Player streams transcript events with real-time pacing. Transcripts
// loaded from disk are cached by path, so repeated playback of the same
// file does not re-read it.
type Player struct {
	mu    sync.Mutex
	cache map[string][]byte
}

// NewPlayer creates a Player with an empty transcript cache.
func NewPlayer() *Player {
	return &Player{cache: make(map[string][]byte)}
}

// Stream plays back the selected transcript. The returned channel
// mirrors the live transport contract: normalized events, closed at end
// of transcript, nothing yielded after ctx is cancelled.
func (p *Player) Stream(ctx context.Context, opts Options) (<-chan chat.Event, error) {
	raw, err := p.load(opts)
	if err != nil {
		return nil, err
	}

	events := parseTranscript(raw)
	out := make(chan chat.Event, len(events))
	go func() {
		defer close(out)
		play(ctx, events, opts.FastForward, out)
	}()
	return out, nil
}

// load resolves the transcript bytes for opts.
func (p *Player) load(opts Options) ([]byte, error) {
	if opts.File != "" {
		return p.loadFile(opts.File)
	}

	name := TranscriptDefault
	switch opts.Feedback {
	case TranscriptAccepted, TranscriptEditPlan:
		name = opts.Feedback
	case "":
		if opts.ReplayID != "" {
			name = opts.ReplayID
		}
	default:
		log.Printf("replay: unknown feedback kind %q, using default transcript", opts.Feedback)
	}

	raw, err := builtinFS.ReadFile("transcripts/" + name + ".sse")
	if err != nil {
		if name == TranscriptDefault {
			return nil, fmt.Errorf("%w: %q", ErrNoTranscript, name)
		}
		log.Printf("replay: no built-in transcript %q, using default", name)
		return builtinFS.ReadFile("transcripts/" + TranscriptDefault + ".sse")
	}
	return raw, nil
}

// loadFile reads a transcript from disk through the path cache.
func (p *Player) loadFile(path string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if raw, ok := p.cache[path]; ok {
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	p.cache[path] = raw
	return raw, nil
}

// parseTranscript decodes a transcript into events. Malformed blocks and
// unknown event tags are logged and skipped, matching the live stream
// policy.
func parseTranscript(raw []byte) []chat.Event {
	reader := sse.NewReader(bytes.NewReader(raw))
	var events []chat.Event
	for {
		block, err := reader.NextEvent()
		if err != nil {
			if err == io.EOF {
				return events
			}
			if errors.Is(err, sse.ErrMalformedBlock) {
				log.Printf("replay: skipping malformed transcript block (event=%q)", block.Name)
				continue
			}
			log.Printf("replay: transcript read error: %v", err)
			return events
		}
		ev, err := chat.ParseEvent(block.Name, []byte(block.Data))
		if err != nil {
			log.Printf("replay: skipping transcript event: %v", err)
			continue
		}
		events = append(events, ev)
	}
}

// play yields events with pacing delays until the transcript ends or ctx
// is cancelled.
func play(ctx context.Context, events []chat.Event, fastForward bool, out chan<- chat.Event) {
	for i, ev := range events {
		if !fastForward {
			if !pause(ctx, delayBefore(events, i)) {
				return
			}
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// delayBefore computes the pause preceding event i from the pair of the
// previous event and the upcoming one.
func delayBefore(events []chat.Event, i int) time.Duration {
	var d time.Duration
	if i > 0 {
		prev := events[i-1]
		switch {
		case prev.Type == chat.EventToolCallResult:
			d = afterToolDelay
		case prev.Chunk != nil && prev.Chunk.Role == chat.RoleUser:
			d = afterUserDelay
		default:
			d = chunkDelay
		}
	}
	if events[i].Type == chat.EventToolCallResult && beforeToolDelay > d {
		d = beforeToolDelay
	}
	return d
}

// pause sleeps for d unless ctx is cancelled first. Reports whether the
// full pause completed.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

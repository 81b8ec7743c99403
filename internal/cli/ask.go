// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the auraflow CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "auraflow ask" command which sends a single question to the
// backend and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   auraflow ask "What is the capital of France?"
//   auraflow ask --thread 3f2a "And its population?"
//   auraflow ask --backend http://localhost:1234 "Explain goroutines"
//   auraflow --replay ask "anything"      Plays the default transcript
//   auraflow --json ask "List the moons of Mars"
//
// Flags:
//   -t, --thread ID     Continue an existing thread
//   --json              Collect the response and output as JSON
//   -v, --verbose       Verbose output
//   -q, --quiet         Minimal output
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
)

// =============================================================================
// STREAM PRINTING
// =============================================================================

// turnResult is the collected outcome of one streamed chat turn.
type turnResult struct {
	content      strings.Builder
	finishReason string
	toolResults  int
	events       int
}

// printStream consumes a chat event channel, writing content to stdout as
// it arrives. Agent labels are printed once per agent change when
// showAgents is set. Tool results are rendered as dim blocks. A non-nil
// Err event terminates the stream and is returned.
func printStream(events <-chan chat.Event, showAgents, quiet bool) (*turnResult, error) {
	result := &turnResult{}
	lastAgent := ""

	for ev := range events {
		if ev.Err != nil {
			return result, ev.Err
		}
		result.events++

		switch ev.Type {
		case chat.EventMessageChunk:
			chunk := ev.Chunk
			if showAgents && chunk.Agent != "" && chunk.Agent != lastAgent {
				if lastAgent != "" {
					fmt.Println()
				}
				fmt.Printf("%s\n", AgentStyle.Render("["+chunk.Agent+"]"))
				lastAgent = chunk.Agent
			}
			fmt.Print(chunk.Content)
			result.content.WriteString(chunk.Content)
			if chunk.IsTerminal() {
				result.finishReason = *chunk.FinishReason
			}

		case chat.EventToolCallResult:
			result.toolResults++
			if !quiet {
				fmt.Printf("\n%s\n", ToolStyle.Render(formatToolResult(ev.ToolResult)))
			}
		}
	}

	fmt.Println()
	return result, nil
}

// formatToolResult renders a tool call result as an indented block.
func formatToolResult(res *chat.ToolCallResult) string {
	header := "tool result"
	if res.ToolCallID != "" {
		header = "tool result " + res.ToolCallID
	}
	body := strings.TrimSpace(res.Content)
	if len(body) > 500 {
		body = body[:500] + "…"
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return "-- " + header + " --\n" + strings.Join(lines, "\n")
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command with streaming support.
func HandleAskCommand(args Args) error {
	if strings.TrimSpace(args.Query) == "" {
		return NewUsageErrorWithExample("question", "", "a question is required",
			`auraflow ask "What is the capital of France?"`)
	}

	cfg := config.Global()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, _, err := resolveStream(ctx, cfg, args)
	if err != nil {
		return err
	}

	threadID := args.Options["thread"]
	if threadID == "" {
		threadID = uuid.NewString()
	}

	req := &backend.ChatRequest{
		Message:  args.Query,
		ThreadID: threadID,
		Params:   cfg.ChatParams(),
	}

	start := time.Now()
	events, err := stream(ctx, req)
	if err != nil {
		return err
	}

	if args.JSON {
		return collectJSON(events, threadID, start)
	}

	result, err := printStream(events, cfg.UI.ShowAgentNames, args.Quiet)
	if err != nil {
		return err
	}

	if args.Verbose {
		fmt.Fprintf(os.Stderr, "%s\n", DimStyle.Render(fmt.Sprintf(
			"thread %s | %d events | %s | finish: %s",
			threadID, result.events, formatDuration(time.Since(start)), result.finishReason)))
	}

	return nil
}

// collectJSON drains the stream and emits the whole turn as one JSON
// document. Streaming progress is not shown in JSON mode.
func collectJSON(events <-chan chat.Event, threadID string, start time.Time) error {
	data := AskData{ThreadID: threadID}
	var content strings.Builder

	for ev := range events {
		if ev.Err != nil {
			resp := NewJSONErrorResponse("ask", ev.Err)
			resp.Print()
			return ev.Err
		}
		switch ev.Type {
		case chat.EventMessageChunk:
			content.WriteString(ev.Chunk.Content)
			if ev.Chunk.IsTerminal() {
				data.FinishReason = *ev.Chunk.FinishReason
			}
		case chat.EventToolCallResult:
			data.ToolResults++
		}
	}

	data.Content = content.String()
	data.DurationSecs = time.Since(start).Seconds()
	return NewJSONResponse("ask", data).Print()
}

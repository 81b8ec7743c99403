// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// replay_cmd.go - Transcript playback command for the auraflow CLI.
//
// Command: replay
// Short:   Play back a recorded conversation transcript
//
// Plays a recorded SSE transcript through the same event pipeline the
// live backend uses, with realistic pacing between chunks.
//
// Examples:
//   auraflow replay                       Play the built-in default transcript
//   auraflow replay --file demo.sse       Play a transcript file
//   auraflow replay --feedback accepted   Plan-accepted research run
//   auraflow replay --feedback edit_plan  Plan-edit research run
//   auraflow replay --id default          Select a built-in by name
//   auraflow replay --fast-forward        Skip playback delays
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/replay"
)

// HandleReplay handles the "replay" command.
func HandleReplay(args Args) error {
	parser := NewArgParser(args.Raw)
	cfg := config.Global()

	opts := replay.Options{
		File:        parser.FlagOrDefault("file", cfg.Replay.Transcript),
		Feedback:    parser.Flag("feedback"),
		ReplayID:    parser.Flag("id"),
		FastForward: args.FastForward || parser.BoolFlag("fast-forward") || cfg.Replay.FastForward,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := replay.NewPlayer()
	events, err := player.Stream(ctx, opts)
	if err != nil {
		return NewCommandError("replay", "open", "could not load transcript", err)
	}

	result, err := printStream(events, cfg.UI.ShowAgentNames, args.Quiet)
	if err != nil {
		return err
	}

	if args.Verbose {
		fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf(
			"%d events, %d tool results", result.events, result.toolResults)))
	}
	return nil
}

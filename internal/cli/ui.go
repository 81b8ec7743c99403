// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ui.go - Launches the full-screen chat interface (the default command).
package cli

import (
	"context"
	"os"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/config"
	chatui "github.com/jeranaias/auraflow/internal/ui/chat"
)

// HandleUI starts the TUI and exits the process when it returns.
func HandleUI(args Args) {
	if err := HandleUICommand(args); err != nil {
		DisplayError(err, args.JSON)
		os.Exit(GetExitCode(err))
	}
	os.Exit(ExitSuccess)
}

// HandleUICommand wires the stream source and conversation store into
// the Bubble Tea chat view and runs it.
func HandleUICommand(args Args) error {
	if err := RequiresTTY("ui"); err != nil {
		return err
	}

	cfg := config.Global()
	ctx := context.Background()

	stream, baseURL, err := resolveStream(ctx, cfg, args)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	protocol := ""
	if baseURL != "" {
		protocol = backend.Detect(baseURL).String()
	}

	return chatui.Run(chatui.Options{
		Config:     cfg,
		Store:      st,
		Stream:     chatui.StreamFunc(stream),
		BackendURL: baseURL,
		Protocol:   protocol,
		Replay:     baseURL == "",
		Version:    Version,
	})
}

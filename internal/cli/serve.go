// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Local SSE bridge server command for the auraflow CLI.
//
// Command: serve
// Short:   Run the local SSE bridge server
// Aliases: server
//
// Exposes the backend (or the replay player) over a local HTTP API so
// other front-ends can consume normalized chat events:
//   POST /api/chat         Stream a chat turn as SSE
//   GET  /api/health       Health and uptime
//   GET  /v1/models        Upstream model list passthrough
//
// Examples:
//   auraflow serve                          Listen on the configured address
//   auraflow serve --listen 127.0.0.1:9000
//   auraflow --replay serve                 Serve transcripts offline
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/server"
)

// HandleServe handles the "serve" command.
func HandleServe(args Args) error {
	parser := NewArgParser(args.Raw)
	cfg := config.Global()

	serverCfg := cfg.Server
	if listen := parser.Flag("listen"); listen != "" {
		serverCfg.Listen = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, baseURL, err := resolveStream(ctx, cfg, args)
	if err != nil {
		return err
	}

	// Long-running process: pick up config edits without a restart.
	if path, err := config.ConfigPath(); err == nil {
		go func() {
			_ = config.Watch(ctx, path, config.SetGlobal)
		}()
	}

	srv := server.New(serverCfg, baseURL, server.StreamFunc(stream))

	if !args.Quiet {
		mode := "backend " + baseURL
		if baseURL == "" {
			mode = "replay mode"
		}
		fmt.Printf("%s listening on %s (%s)\n",
			InfoStyle.Render("[auraflow]"),
			HighlightStyle.Render(serverCfg.Listen),
			DimStyle.Render(mode))
	}

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return NewCommandError("serve", "listen", "server failed", err)
	}
	return nil
}

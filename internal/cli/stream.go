// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stream.go - Backend and storage wiring shared by the chat-facing commands.
//
// The ask, chat, replay, and serve commands all need the same two
// decisions made: which event source streams the turn (live transport
// or replay player), and which persistence backend stores the
// conversation list. Both live here so the commands stay small.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/replay"
	"github.com/jeranaias/auraflow/internal/store"
)

// envPassphrase supplies the key for the encrypted storage backend.
const envPassphrase = "AURAFLOW_PASSPHRASE"

// streamFunc is the shape shared by the live transport and the replay
// player. The serve command re-exports it as the server's handler.
type streamFunc func(ctx context.Context, req *backend.ChatRequest) (<-chan chat.Event, error)

// resolveStream picks the event source for chat turns. Replay mode (from
// the --replay flag or config) wins over the live backend. The returned
// base URL is empty in replay mode.
func resolveStream(ctx context.Context, cfg *config.Config, args Args) (streamFunc, string, error) {
	if args.Replay || cfg.Replay.Enabled {
		player := replay.NewPlayer()
		transcript := cfg.Replay.Transcript
		fastForward := args.FastForward || cfg.Replay.FastForward
		fn := func(ctx context.Context, req *backend.ChatRequest) (<-chan chat.Event, error) {
			opts := replay.Options{
				File:        transcript,
				FastForward: fastForward,
			}
			if req != nil && req.Params != nil {
				if fb, ok := req.Params["feedback"].(string); ok {
					opts.Feedback = fb
				}
			}
			return player.Stream(ctx, opts)
		}
		return fn, "", nil
	}

	baseURL, err := resolveBackendURL(ctx, cfg, args)
	if err != nil {
		return nil, "", err
	}

	transport := backend.For(baseURL)
	return transport.Stream, baseURL, nil
}

// resolveBackendURL returns the backend base URL: the --backend flag,
// then config, then LM Studio discovery when enabled.
func resolveBackendURL(ctx context.Context, cfg *config.Config, args Args) (string, error) {
	if args.Backend != "" {
		return args.Backend, nil
	}
	if cfg.Backend.BaseURL != "" {
		return cfg.Backend.BaseURL, nil
	}
	if cfg.Backend.Discover {
		url, err := backend.Discover(ctx)
		if err != nil {
			return "", fmt.Errorf("no backend configured and discovery failed: %w", err)
		}
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s discovered backend at %s\n",
				DimStyle.Render("[auraflow]"), url)
		}
		return url, nil
	}
	return "", backend.ErrNotConfigured
}

// openStore opens the configured conversation store.
func openStore(cfg *config.Config) (*store.Store, error) {
	path := cfg.Storage.Path
	if path == "" {
		var err error
		path, err = cfg.StatePath()
		if err != nil {
			return nil, err
		}
	}

	var (
		persist store.Persistence
		err     error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		persist, err = store.NewSQLitePersistence(path)
		if err != nil {
			return nil, fmt.Errorf("open conversation database: %w", err)
		}
	case "encrypted":
		passphrase := os.Getenv(envPassphrase)
		if passphrase == "" {
			return nil, NewUsageError("storage", "encrypted",
				"the encrypted backend requires "+envPassphrase+" to be set")
		}
		persist = store.NewEncryptedPersistence(path, passphrase)
	default:
		persist = store.NewFilePersistence(path)
	}

	return store.New(persist)
}

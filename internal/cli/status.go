// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for auraflow.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: status
// Short:   Show backend, storage, and replay status
// Aliases: s
//
// Examples:
//   auraflow status
//   auraflow status --json
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/config"
)

// statusProbeTimeout bounds the backend reachability check so the
// command never hangs on a dead host.
const statusProbeTimeout = 2 * time.Second

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	cfg := config.Global()
	data := collectStatus(cfg, args)

	if args.JSON {
		return NewJSONResponse("status", data).Print()
	}

	fmt.Println(TitleStyle.Render("auraflow status"))

	fmt.Println(SectionStyle.Render("Backend"))
	if data.BackendURL == "" {
		fmt.Printf("%s %s\n", RenderLabel("URL"), DimStyle.Render("(not configured)"))
	} else {
		fmt.Printf("%s %s\n", RenderLabel("URL"), ValueStyle.Render(data.BackendURL))
		fmt.Printf("%s %s\n", RenderLabel("Protocol"), ValueStyle.Render(data.Protocol))
		if data.Reachable {
			fmt.Printf("%s %s %s\n", RenderLabel("Reachable"), RenderStatus("ok"),
				DimStyle.Render(fmt.Sprintf("%d models", data.Models)))
		} else {
			fmt.Printf("%s %s\n", RenderLabel("Reachable"), RenderStatus("fail"))
		}
	}
	if data.ReplayMode {
		fmt.Printf("%s %s\n", RenderLabel("Replay mode"), WarningStyle.Render("on"))
	}

	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("%s %s\n", RenderLabel("Backend"), ValueStyle.Render(data.Storage))
	fmt.Printf("%s %s\n", RenderLabel("State file"), ValueStyle.Render(data.StatePath))
	if data.StateSize > 0 {
		fmt.Printf("%s %s\n", RenderLabel("State size"), ValueStyle.Render(formatBytes(data.StateSize)))
	}
	fmt.Printf("%s %d\n", RenderLabel("Conversations"), data.Conversations)

	fmt.Println(SectionStyle.Render("Server"))
	fmt.Printf("%s %s\n", RenderLabel("Listen"), ValueStyle.Render(data.ServerListen))

	fmt.Println(SectionStyle.Render("Config"))
	fmt.Printf("%s %s\n", RenderLabel("Path"), ValueStyle.Render(data.ConfigPath))
	fmt.Printf("%s %s\n", RenderLabel("Version"), ValueStyle.Render(data.Version))

	return nil
}

// collectStatus gathers the status snapshot. Probes are best-effort;
// failures degrade to "unreachable" rather than erroring the command.
func collectStatus(cfg *config.Config, args Args) StatusData {
	data := StatusData{
		Version:      Version,
		Storage:      cfg.Storage.Backend,
		ReplayMode:   args.Replay || cfg.Replay.Enabled,
		ServerListen: cfg.Server.Listen,
	}

	if path, err := config.ConfigPath(); err == nil {
		data.ConfigPath = path
	}

	baseURL := args.Backend
	if baseURL == "" {
		baseURL = cfg.Backend.BaseURL
	}
	data.BackendURL = baseURL
	if baseURL != "" {
		data.Protocol = backend.Detect(baseURL).String()

		ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		defer cancel()
		if models, err := backend.ListModels(ctx, baseURL); err == nil {
			data.Reachable = true
			data.Models = len(models)
		}
	}

	statePath := cfg.Storage.Path
	if statePath == "" {
		if p, err := cfg.StatePath(); err == nil {
			statePath = p
		}
	}
	data.StatePath = statePath
	if info, err := os.Stat(statePath); err == nil {
		data.StateSize = info.Size()
	}

	if st, err := openStore(cfg); err == nil {
		data.Conversations = len(st.List())
	}

	return data
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// auraflow.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Unified flag/positional parsing shared by subcommands
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Chat commands:
//   - ask: Single question with streamed response
//   - chat: Interactive REPL with conversation history
//   - replay: Offline transcript playback
//
// Management commands:
//   - conversations: List, create, select, rename, delete conversations
//   - export: Render a transcript as markdown, JSON, or HTML
//   - serve: Local SSE bridge server
//   - status, config, doctor: Introspection and diagnostics
//
// All commands support the --json flag for machine-readable output.
package cli

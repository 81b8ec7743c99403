// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for auraflow.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdUI Command = iota
	CmdAsk
	CmdChat
	CmdConversations
	CmdReplay
	CmdExport
	CmdServe
	CmdStatus
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet       bool
	Verbose     bool
	JSON        bool   // Output in JSON format
	Backend     string // Backend base URL override
	Replay      bool   // Force replay mode (no network)
	FastForward bool   // Collapse replay delays to zero

	// Command-specific
	Query      string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format, --output)
	Options map[string]string
}

const usageText = `auraflow - streaming chat front-end for local and remote LLM backends

Auraflow talks to an OpenAI-compatible server (LM Studio) or a
Deer-Flow-style native backend over Server-Sent Events, with a
non-streaming fallback when the stream cannot be opened.

It provides:
  - Token-by-token streaming with one-shot fallback
  - Automatic protocol detection from the backend URL
  - Offline replay of recorded conversation transcripts
  - Persistent conversation history (file, sqlite, or encrypted)
  - A local SSE bridge server for other front-ends

Usage:
  auraflow                        Start TUI (default)
  auraflow ask "question"         Ask a single question
  auraflow chat                   Interactive chat
  auraflow conversations [cmd]    Manage saved conversations
  auraflow replay                 Play back a recorded transcript
  auraflow export                 Export a transcript (markdown/json/html)
  auraflow serve                  Run the local SSE bridge server
  auraflow status, s              Show backend and storage status
  auraflow config [show|set]      Configuration
  auraflow doctor                 Connectivity diagnostics
  auraflow version                Show version

Conversation Commands:
  auraflow conversations list           List saved conversations (default)
  auraflow conversations create [title] Create and select a conversation
  auraflow conversations select <id>    Select a conversation
  auraflow conversations rename <id> <title>
  auraflow conversations delete <id> --confirm
  auraflow conversations current        Show the selected conversation

Replay Commands:
  auraflow replay                       Play the built-in default transcript
  auraflow replay --file FILE           Play a transcript file
  auraflow replay --feedback accepted   Play the plan-accepted transcript
  auraflow replay --feedback edit_plan  Play the plan-edit transcript
  auraflow replay --fast-forward        Skip playback delays

Export Commands:
  auraflow export --input FILE          Export an SSE transcript file
  auraflow export --replay NAME         Export a built-in transcript
    --format md|json|html               Output format (default: md)
    --output DIR                        Output directory (default: .)
    --title TITLE                       Document title

Config Commands:
  auraflow config show                  Show current configuration
  auraflow config set <key> <value>     Set a value (e.g. backend.base_url)
  auraflow config path                  Show config file location
  auraflow config init                  Write a default config file
  auraflow config validate              Validate the config file

Global Flags:
  --backend URL   Override the backend base URL
  --replay        Play transcripts instead of calling the backend
  --fast-forward  Collapse replay delays to zero
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format

Examples:
  auraflow ask "What is the capital of France?"
  auraflow ask --backend http://localhost:1234 "Explain goroutines"
  auraflow --replay chat                  Offline demo chat
  auraflow export --replay accepted --format html
  auraflow serve                          SSE bridge on the configured port
  auraflow conversations rename 3f2a "Rust questions"

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("auraflow version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to the TUI
	if len(remaining) == 0 {
		return CmdUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "ui", "tui":
		return CmdUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "conversations", "conversation", "conv":
		// Argument parsing is done in conversations.go HandleConversations
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdConversations, parsedArgs

	case "replay":
		// Argument parsing is done in replay_cmd.go HandleReplay
		return CmdReplay, parsedArgs

	case "export":
		// Argument parsing is done in export_cmd.go HandleExport
		return CmdExport, parsedArgs

	case "serve", "server":
		// Argument parsing is done in serve.go HandleServe
		return CmdServe, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "doctor", "diag", "diagnose":
		return CmdDoctor, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - could be a direct prompt, default to the TUI
		// with the command restored as it might be part of the args.
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--replay", "--offline":
			parsedArgs.Replay = true
		case "--fast-forward", "--ff":
			parsedArgs.FastForward = true
		case "--backend":
			if i+1 < len(args) {
				i++
				parsedArgs.Backend = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--backend=") {
				parsedArgs.Backend = strings.TrimPrefix(arg, "--backend=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-t", "--thread":
			if i+1 < len(remaining) {
				i++
				args.Options["thread"] = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--thread=") {
				args.Options["thread"] = strings.TrimPrefix(arg, "--thread=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// HandleAsk handles the "ask" command.
// This delegates to the full implementation in ask.go.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		DisplayError(err, args.JSON)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		DisplayError(err, args.JSON)
		os.Exit(GetExitCode(err))
	}
}

// NOTE: HandleStatus is implemented in status.go
// NOTE: HandleConfig is implemented in config.go
// NOTE: HandleConversations is implemented in conversations.go
// NOTE: HandleReplay is implemented in replay_cmd.go
// NOTE: HandleExport is implemented in export_cmd.go
// NOTE: HandleServe is implemented in serve.go
// NOTE: HandleDoctor is implemented in doctor.go

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

// auraflow - streaming chat front-end for local and remote LLM backends.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/auraflow/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdUI:
		cli.HandleUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdConversations:
		exitOnError(cli.HandleConversations(args), args)
	case cli.CmdReplay:
		exitOnError(cli.HandleReplay(args), args)
	case cli.CmdExport:
		exitOnError(cli.HandleExport(args), args)
	case cli.CmdServe:
		exitOnError(cli.HandleServe(args), args)
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args), args)
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args), args)
	case cli.CmdDoctor:
		exitOnError(cli.HandleDoctor(args), args)
	case cli.CmdVersion:
		cli.HandleVersionWithJSON(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		// No subcommand launches the interactive UI
		cli.HandleUI(args)
	}
}

// exitOnError reports the error through the shared CLI error display and
// exits with the mapped code. Nil errors fall through to a clean exit.
func exitOnError(err error, args cli.Args) {
	if err == nil {
		return
	}
	cli.DisplayError(err, args.JSON)
	os.Exit(cli.GetExitCode(err))
}

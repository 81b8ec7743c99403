// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Transcript export command for the auraflow CLI.
//
// Command: export
// Short:   Export a conversation transcript to markdown, JSON, or HTML
//
// The input is an SSE transcript: either a file recorded from a backend
// session or one of the built-in replay transcripts. Events are
// assembled into a document and rendered by the selected exporter.
//
// Examples:
//   auraflow export --input session.sse
//   auraflow export --input session.sse --format html --output ./exports
//   auraflow export --replay accepted --format json
//   auraflow export --input session.sse --title "Planning run"
//
// Flags:
//   --input FILE        SSE transcript file to export
//   --replay NAME       Built-in transcript name (default, accepted, edit_plan)
//   --format FORMAT     md, json, or html (default: md)
//   --output DIR        Output directory (default: .)
//   --title TITLE       Document title (default: derived from input)
//   --theme THEME       HTML theme, dark or light (default: from config)
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/export"
	"github.com/jeranaias/auraflow/internal/replay"
)

// HandleExport handles the "export" command.
func HandleExport(args Args) error {
	parser := NewArgParser(args.Raw)
	cfg := config.Global()

	input := parser.Flag("input")
	replayName := parser.Flag("replay")
	if input == "" && replayName == "" {
		return NewUsageErrorWithExample("input", "",
			"either --input FILE or --replay NAME is required",
			"auraflow export --input session.sse --format html")
	}

	events, err := loadTranscriptEvents(input, replayName)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return NewCommandError("export", "load", "transcript contains no events", nil)
	}

	title := parser.Flag("title")
	if title == "" {
		title = deriveExportTitle(input, replayName)
	}

	doc := export.Assemble(title, events)

	opts := export.DefaultOptions()
	opts.OutputDir = parser.FlagOrDefault("output", ".")
	opts.Theme = parser.FlagOrDefault("theme", cfg.UI.Theme)
	if opts.Theme == "auto" {
		opts.Theme = "dark"
	}

	format := parser.FlagOrDefault("format", "md")
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return NewUsageError("format", format, "expected md, json, or html")
	}

	path, err := export.ExportToFile(doc, exporter, opts)
	if err != nil {
		return NewCommandError("export", "write", "could not write output", err)
	}

	if args.JSON {
		return NewJSONResponse("export", map[string]string{
			"path":   path,
			"format": format,
			"title":  title,
		}).Print()
	}

	fmt.Printf("%s %s\n", SuccessStyle.Render("exported"), ValueStyle.Render(path))
	return nil
}

// loadTranscriptEvents drains a transcript through the replay player with
// delays collapsed, so file parsing and built-in lookup stay in one place.
func loadTranscriptEvents(input, replayName string) ([]chat.Event, error) {
	opts := replay.Options{
		File:        input,
		ReplayID:    replayName,
		FastForward: true,
	}

	player := replay.NewPlayer()
	stream, err := player.Stream(context.Background(), opts)
	if err != nil {
		return nil, NewCommandError("export", "load", "could not load transcript", err)
	}

	var events []chat.Event
	for ev := range stream {
		if ev.Err != nil {
			return nil, ev.Err
		}
		events = append(events, ev)
	}
	return events, nil
}

// deriveExportTitle names the document after its source.
func deriveExportTitle(input, replayName string) string {
	if input != "" {
		base := filepath.Base(input)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if replayName != "" {
		return "Replay " + replayName
	}
	return "Conversation"
}

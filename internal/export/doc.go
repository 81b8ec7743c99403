// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversation transcripts to shareable files.
//
// A transcript is assembled from the normalized chat event stream:
// streamed chunks are folded into whole messages, tool results stay
// standalone. Exporters then render the assembled document.
//
// # Key Types
//
//   - Document: Assembled transcript (title + messages)
//   - Exporter: Per-format export interface
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - JSON: Machine-readable, complete document structure
//   - Markdown: Human-readable with YAML frontmatter
//   - HTML: Styled for browsers, code blocks syntax-highlighted
//
// # Usage
//
//	doc := export.Assemble("My research", events)
//	exporter, err := export.ForFormat("html", nil)
//	if err != nil { ... }
//	path, err := export.ExportToFile(doc, exporter, nil)
package export

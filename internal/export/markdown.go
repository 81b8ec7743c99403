// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if len(doc.Messages) == 0 {
		return nil, fmt.Errorf("document has no messages")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.Title)))
		if doc.ThreadID != "" {
			sb.WriteString(fmt.Sprintf("thread: %s\n", doc.ThreadID))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(doc.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: auraflow\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", doc.Title))

	for i, msg := range doc.Messages {
		switch msg.Kind {
		case "tool_result":
			sb.WriteString(fmt.Sprintf("### Tool result — %s\n\n", msg.Speaker()))
			sb.WriteString("```\n")
			sb.WriteString(strings.TrimRight(msg.Content, "\n"))
			sb.WriteString("\n```\n\n")
		default:
			sb.WriteString(fmt.Sprintf("### %s\n\n", formatRoleLabel(msg.Speaker())))
			sb.WriteString(strings.TrimSpace(msg.Content))
			sb.WriteString("\n\n")
		}

		if i < len(doc.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from auraflow on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatRoleLabel returns a formatted label for a speaker.
func formatRoleLabel(speaker string) string {
	switch speaker {
	case "user":
		return "[User]"
	case "assistant":
		return "[Assistant]"
	case "system":
		return "[System]"
	case "tool":
		return "[Tool]"
	default:
		if len(speaker) > 0 {
			runes := []rune(speaker)
			return strings.ToUpper(string(runes[0])) + string(runes[1:])
		}
		return "Unknown"
	}
}

// escapeYAML escapes a string for use in YAML frontmatter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#[]{}\"'|>&*!%@`") || strings.TrimSpace(s) != s {
		return fmt.Sprintf("%q", s)
	}
	return s
}

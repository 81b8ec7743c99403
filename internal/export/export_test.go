// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/auraflow/internal/chat"
)

func sampleEvents() []chat.Event {
	stop := "stop"
	return []chat.Event{
		{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{
			ID: "u1", ThreadID: "t1", Role: chat.RoleUser, Content: "Show me a Go hello world.",
		}},
		{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{
			ID: "a1", ThreadID: "t1", Agent: "coordinator", Role: chat.RoleAssistant, Content: "Here you go:\n\n```go\npackage main\n",
		}},
		{Type: chat.EventToolCallResult, ToolResult: &chat.ToolCallResult{
			ID: "tr1", ThreadID: "t1", Agent: "coder", ToolCallID: "call-1", Content: "compiled ok",
		}},
		{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{
			ID: "a1", ThreadID: "t1", Agent: "coordinator", Role: chat.RoleAssistant,
			Content: "func main() { println(\"hello\") }\n```\n", FinishReason: &stop,
		}},
	}
}

func TestAssemble(t *testing.T) {
	doc := Assemble("Hello world", sampleEvents())

	require.Equal(t, "t1", doc.ThreadID)
	require.Len(t, doc.Messages, 4, "tool result splits the assistant message")

	require.Equal(t, "message", doc.Messages[0].Kind)
	require.Equal(t, "user", doc.Messages[0].Role)

	require.Equal(t, "tool_result", doc.Messages[2].Kind)
	require.Equal(t, "call-1", doc.Messages[2].ToolCallID)

	last := doc.Messages[3]
	require.Equal(t, "a1", last.ID)
	require.Equal(t, "stop", last.FinishReason)
}

func TestAssembleFoldsAdjacentChunks(t *testing.T) {
	stop := "stop"
	events := []chat.Event{
		{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{ID: "a1", Role: chat.RoleAssistant, Content: "Hel"}},
		{Type: chat.EventMessageChunk, Chunk: &chat.MessageChunk{ID: "a1", Role: chat.RoleAssistant, Content: "lo", FinishReason: &stop}},
	}
	doc := Assemble("x", events)
	require.Len(t, doc.Messages, 1)
	require.Equal(t, "Hello", doc.Messages[0].Content)
	require.Equal(t, "stop", doc.Messages[0].FinishReason)
}

func TestMarkdownExport(t *testing.T) {
	doc := Assemble("Hello world", sampleEvents())
	out, err := NewMarkdownExporter(nil).Export(doc)
	require.NoError(t, err)

	md := string(out)
	require.Contains(t, md, "# Hello world")
	require.Contains(t, md, "thread: t1")
	require.Contains(t, md, "[User]")
	require.Contains(t, md, "Coordinator")
	require.Contains(t, md, "Tool result — coder")
	require.Contains(t, md, "compiled ok")
}

func TestMarkdownExportRejectsEmpty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&Document{Title: "empty"})
	require.Error(t, err)
	_, err = NewMarkdownExporter(nil).Export(nil)
	require.Error(t, err)
}

func TestJSONExportRoundTrip(t *testing.T) {
	doc := Assemble("Hello world", sampleEvents())
	out, err := NewJSONExporter(nil).Export(doc)
	require.NoError(t, err)

	var restored Document
	require.NoError(t, json.Unmarshal(out, &restored))
	require.Equal(t, *doc, restored)
}

func TestHTMLExportHighlightsCode(t *testing.T) {
	doc := Assemble("Hello world", sampleEvents())
	out, err := NewHTMLExporter(nil).Export(doc)
	require.NoError(t, err)

	htmlOut := string(out)
	require.Contains(t, htmlOut, "<!DOCTYPE html>")
	require.Contains(t, htmlOut, "<title>Hello world</title>")
	// Chroma emits inline-styled pre blocks for the fenced Go code.
	require.Contains(t, htmlOut, "<pre")
	require.Contains(t, htmlOut, "style=")
	require.Contains(t, htmlOut, "tool-output")
	// Prose must be escaped, not raw.
	require.NotContains(t, htmlOut, "```")
}

func TestSplitFences(t *testing.T) {
	segments := splitFences("before\n```python\nprint(1)\n```\nafter")
	require.Len(t, segments, 3)
	require.False(t, segments[0].code)
	require.True(t, segments[1].code)
	require.Equal(t, "python", segments[1].lang)
	require.Equal(t, "print(1)", segments[1].text)
	require.False(t, segments[2].code)
}

func TestExportToFile(t *testing.T) {
	doc := Assemble("My: weird/title", sampleEvents())
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(doc, NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# My: weird/title")
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"markdown", "md", "json", "html", "htm"} {
		_, err := ForFormat(name, nil)
		require.NoError(t, err, name)
	}
	_, err := ForFormat("pdf", nil)
	require.Error(t, err)
}

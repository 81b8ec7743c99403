// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to HTML with embedded CSS and
// syntax-highlighted code blocks.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML format.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if len(doc.Messages) == 0 {
		return nil, fmt.Errorf("document has no messages")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(doc.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"auraflow\">\n")
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(doc.Title)))
		if doc.ThreadID != "" {
			sb.WriteString(fmt.Sprintf("            <p class=\"meta\">Thread %s &middot; %d messages</p>\n",
				html.EscapeString(doc.ThreadID), len(doc.Messages)))
		}
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range doc.Messages {
		if err := e.renderMessage(&sb, &doc.Messages[i]); err != nil {
			return nil, err
		}
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from auraflow on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING
// =============================================================================

// renderMessage writes one message block.
func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg *Message) error {
	class := "message"
	switch {
	case msg.Kind == "tool_result":
		class += " tool"
	case msg.Role == "user":
		class += " user"
	default:
		class += " assistant"
	}

	sb.WriteString(fmt.Sprintf("            <section class=\"%s\">\n", class))
	sb.WriteString(fmt.Sprintf("                <h2>%s</h2>\n", html.EscapeString(formatRoleLabel(msg.Speaker()))))

	if msg.Kind == "tool_result" {
		sb.WriteString("                <pre class=\"tool-output\">")
		sb.WriteString(html.EscapeString(msg.Content))
		sb.WriteString("</pre>\n")
	} else if err := e.renderContent(sb, msg.Content); err != nil {
		return err
	}

	sb.WriteString("            </section>\n")
	return nil
}

// renderContent writes message content, passing fenced code blocks
// through the syntax highlighter and escaping everything else.
func (e *HTMLExporter) renderContent(sb *strings.Builder, content string) error {
	segments := splitFences(content)
	for _, seg := range segments {
		if !seg.code {
			text := strings.TrimSpace(seg.text)
			if text == "" {
				continue
			}
			for _, para := range strings.Split(text, "\n\n") {
				sb.WriteString("                <p>")
				sb.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>\n"))
				sb.WriteString("</p>\n")
			}
			continue
		}
		if err := e.highlight(sb, seg.text, seg.lang); err != nil {
			return err
		}
	}
	return nil
}

// highlight renders one code block through chroma.
func (e *HTMLExporter) highlight(sb *strings.Builder, code, lang string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github-dark"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("highlight failed: %w", err)
	}
	formatter := chromahtml.New(chromahtml.Standalone(false))
	if err := formatter.Format(sb, style, iterator); err != nil {
		return fmt.Errorf("highlight failed: %w", err)
	}
	return nil
}

// segment is a run of prose or one fenced code block.
type segment struct {
	code bool
	lang string
	text string
}

// splitFences splits content on ``` fences. An unterminated fence runs
// to the end of the content.
func splitFences(content string) []segment {
	var segments []segment
	lines := strings.Split(content, "\n")

	var buf []string
	inCode := false
	lang := ""

	flush := func() {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, segment{code: inCode, lang: lang, text: strings.Join(buf, "\n")})
		buf = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			flush()
			if inCode {
				inCode = false
				lang = ""
			} else {
				inCode = true
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return segments
}

// getCSS returns the embedded stylesheet.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        :root { --bg: #ffffff; --fg: #1f2328; --border: #d1d9e0; --accent: #0969da; --panel: #f6f8fa; }
        .dark-theme { --bg: #0d1117; --fg: #e6edf3; --border: #30363d; --accent: #58a6ff; --panel: #161b22; }
        body { margin: 0; background: var(--bg); color: var(--fg);
               font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
        .container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { margin: 0 0 0.25rem; }
        .header .meta { color: var(--accent); margin: 0 0 1.5rem; font-size: 0.9rem; }
        .message { border: 1px solid var(--border); border-radius: 8px;
                   padding: 0.75rem 1rem; margin-bottom: 1rem; }
        .message h2 { margin: 0 0 0.5rem; font-size: 0.95rem; color: var(--accent); }
        .message.user { background: var(--panel); }
        .message.tool { border-style: dashed; }
        .tool-output { background: var(--panel); padding: 0.75rem; border-radius: 6px;
                       overflow-x: auto; font-size: 0.85rem; }
        pre { overflow-x: auto; border-radius: 6px; padding: 0.75rem; }
        .footer { color: var(--border); font-size: 0.8rem; text-align: center; margin-top: 2rem; }
    </style>
`
}

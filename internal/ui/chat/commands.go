// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	chatev "github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/export"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const commandHelp = `Commands:
  /new [title]      start a new conversation
  /rename <title>   rename the current conversation
  /delete           delete the current conversation
  /export [format]  export this session (markdown, json, html)
  /list             toggle the conversation sidebar
  /help             show this help
  /quit             exit`

// runCommand executes a slash command typed into the input.
func (m *Model) runCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "/help", "/h":
		m.setNotice(commandHelp)

	case "/new", "/n":
		return m.newConversation(args)

	case "/rename":
		if args == "" {
			m.setNotice("usage: /rename <title>")
			break
		}
		return m.renameConversation(args)

	case "/delete":
		meta, ok := m.opts.Store.Current()
		if !ok {
			m.setNotice("no conversation selected")
			break
		}
		return m.deleteConversation(meta.ID)

	case "/list", "/l":
		m.sidebarVisible = !m.sidebarVisible
		m.resize(m.width, m.height)
		return nil

	case "/export", "/e":
		format := "markdown"
		if args != "" {
			format = strings.Fields(args)[0]
		}
		return m.exportSession(format)

	case "/quit", "/q", "/exit":
		m.quitting = true
		return tea.Quit

	default:
		m.setNotice(fmt.Sprintf("unknown command %s, /help lists commands", cmd))
	}

	m.refreshViewport()
	return nil
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

// reloadSidebar refreshes the sidebar from the store, synchronously.
func (m *Model) reloadSidebar() {
	currentID := ""
	if meta, ok := m.opts.Store.Current(); ok {
		currentID = meta.ID
	}
	m.sidebar.SetConversations(m.opts.Store.List(), currentID)
}

// newConversation creates and selects a conversation, clearing the
// transcript.
func (m *Model) newConversation(title string) tea.Cmd {
	if m.streaming {
		m.cancelStream()
	}
	if title == "" {
		title = defaultTitle
	}

	meta, err := m.opts.Store.Create(title)
	if err != nil {
		m.setNotice("create conversation: " + err.Error())
		m.refreshViewport()
		return nil
	}

	m.threadID = meta.ID
	m.header.Title = meta.Title
	m.statusBar.ThreadID = meta.ID
	m.transcript = nil
	m.raw = nil
	m.turnEvents = nil
	m.sessionEvents = nil
	m.notice = ""
	m.reloadSidebar()
	m.refreshViewport()
	return nil
}

// switchConversation selects an existing conversation. The transcript
// restarts empty: history lives with the backend thread, not the client.
func (m *Model) switchConversation(id string) tea.Cmd {
	if m.streaming {
		m.cancelStream()
	}
	if err := m.opts.Store.Select(id); err != nil {
		m.setNotice("switch: " + err.Error())
		m.refreshViewport()
		return nil
	}

	meta, _ := m.opts.Store.Get(id)
	m.threadID = id
	m.header.Title = meta.Title
	m.statusBar.ThreadID = id
	m.transcript = nil
	m.raw = nil
	m.turnEvents = nil
	m.sessionEvents = nil
	m.setNotice("switched to " + meta.Title)
	m.reloadSidebar()
	m.refreshViewport()
	return nil
}

// renameConversation retitles the current conversation.
func (m *Model) renameConversation(title string) tea.Cmd {
	meta, ok := m.opts.Store.Current()
	if !ok {
		m.setNotice("no conversation selected")
		m.refreshViewport()
		return nil
	}
	if err := m.opts.Store.Rename(meta.ID, title); err != nil {
		m.setNotice("rename: " + err.Error())
	} else {
		meta, _ = m.opts.Store.Get(meta.ID)
		m.header.Title = meta.Title
		m.setNotice("renamed to " + meta.Title)
		m.reloadSidebar()
	}
	m.refreshViewport()
	return nil
}

// deleteConversation removes a conversation; deleting the current one
// clears the transcript.
func (m *Model) deleteConversation(id string) tea.Cmd {
	wasCurrent := id == m.threadID
	if err := m.opts.Store.Delete(id); err != nil {
		m.setNotice("delete: " + err.Error())
		m.refreshViewport()
		return nil
	}

	if wasCurrent {
		if m.streaming {
			m.cancelStream()
		}
		m.transcript = nil
		m.raw = nil
		m.turnEvents = nil
		m.sessionEvents = nil
		m.threadID = ""
		m.header.Title = ""
		m.statusBar.ThreadID = ""
		if meta, ok := m.opts.Store.Current(); ok {
			m.threadID = meta.ID
			m.header.Title = meta.Title
			m.statusBar.ThreadID = meta.ID
		}
	}
	m.setNotice("conversation deleted")
	m.reloadSidebar()
	m.refreshViewport()
	return nil
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// exportSession writes the events of this TUI session to a file in the
// requested format.
func (m *Model) exportSession(format string) tea.Cmd {
	if len(m.sessionEvents) == 0 {
		m.setNotice("nothing to export yet")
		m.refreshViewport()
		return nil
	}

	title := m.header.Title
	if title == "" {
		title = "Conversation"
	}
	events := make([]chatev.Event, len(m.sessionEvents))
	copy(events, m.sessionEvents)

	theme := m.opts.Config.UI.Theme
	if theme == "" || theme == "auto" {
		theme = "dark"
	}

	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.Theme = theme

		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		doc := export.Assemble(title, events)
		path, err := export.ExportToFile(doc, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the auraflow CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "auraflow chat" command which provides an interactive REPL
// for conversing with the backend. Turns are grouped into conversations
// persisted through the configured storage backend.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   auraflow chat                         Start interactive chat
//   auraflow chat --backend URL           Use a specific backend
//   auraflow --replay chat                Offline transcript playback
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new [title]        Start a new conversation
//   /list               List saved conversations
//   /switch <id>        Switch to another conversation
//   /rename <title>     Rename the current conversation
//   /delete             Delete the current conversation
//   /status             Show session statistics
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current input
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/store"
	"github.com/jeranaias/auraflow/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// History lives next to the config file
	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession carries the state of one interactive chat run.
type ChatSession struct {
	cfg     *config.Config
	args    Args
	stream  streamFunc
	store   *store.Store
	started time.Time
	turns   int
}

// currentThread returns the selected conversation, creating one when the
// store is empty.
func (s *ChatSession) currentThread() (store.ConversationMeta, error) {
	if meta, ok := s.store.Current(); ok {
		return meta, nil
	}
	return s.store.Create("New conversation")
}

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	cfg := config.Global()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, baseURL, err := resolveStream(ctx, cfg, args)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	session := &ChatSession{
		cfg:     cfg,
		args:    args,
		stream:  stream,
		store:   st,
		started: time.Now(),
	}

	input := NewChatCLI()
	defer input.Close()

	if !args.Quiet {
		printWelcome(session, baseURL)
	}

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(DimStyle.Render("(cancelled - /quit to exit)"))
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlashCommand(line, session)
			if err != nil {
				DisplayError(err, false)
				continue
			}
			if quit {
				break
			}
			continue
		}

		if err := processTurn(ctx, session, line); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			DisplayError(err, false)
		}
	}

	if !args.Quiet {
		printExitSummary(session)
	}
	return nil
}

// processTurn streams one chat turn and updates the conversation.
func processTurn(ctx context.Context, session *ChatSession, input string) error {
	meta, err := session.currentThread()
	if err != nil {
		return err
	}

	req := &backend.ChatRequest{
		Message:  input,
		ThreadID: meta.ID,
		Params:   session.cfg.ChatParams(),
	}

	events, err := session.stream(ctx, req)
	if err != nil {
		return err
	}

	result, err := printStream(events, session.cfg.UI.ShowAgentNames, session.args.Quiet)
	if err != nil {
		return err
	}
	session.turns++

	// First turn names the conversation after the opening message.
	if session.turns == 1 && meta.Title == "New conversation" {
		title := util.TruncateRunes(util.CollapseWhitespace(input), 48)
		if title != "" {
			session.store.Rename(meta.ID, title)
		}
	}

	if session.args.Verbose {
		fmt.Println(DimStyle.Render(fmt.Sprintf(
			"%d events | finish: %s", result.events, result.finishReason)))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes an interactive slash command.
// Returns true when the session should end.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	fields := strings.Fields(cmd)
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(cmd, fields[0]))

	switch name {
	case "/help", "/h":
		printChatHelp()
		return false, nil

	case "/new":
		title := rest
		if title == "" {
			title = "New conversation"
		}
		meta, err := session.store.Create(title)
		if err != nil {
			return false, err
		}
		session.turns = 0
		fmt.Println(SuccessStyle.Render("switched to new conversation ") + ValueStyle.Render(meta.Title))
		return false, nil

	case "/list":
		printConversationList(session.store)
		return false, nil

	case "/switch":
		if rest == "" {
			return false, NewUsageError("conversation id", "", "usage: /switch <id>")
		}
		id, err := resolveConversationID(session.store, rest)
		if err != nil {
			return false, err
		}
		if err := session.store.Select(id); err != nil {
			return false, err
		}
		meta, _ := session.store.Get(id)
		fmt.Println(SuccessStyle.Render("switched to ") + ValueStyle.Render(meta.Title))
		return false, nil

	case "/rename":
		if rest == "" {
			return false, NewUsageError("title", "", "usage: /rename <title>")
		}
		meta, ok := session.store.Current()
		if !ok {
			return false, NewNotFoundError("conversation", "(none selected)")
		}
		if err := session.store.Rename(meta.ID, rest); err != nil {
			return false, err
		}
		fmt.Println(SuccessStyle.Render("renamed to ") + ValueStyle.Render(rest))
		return false, nil

	case "/delete":
		meta, ok := session.store.Current()
		if !ok {
			return false, NewNotFoundError("conversation", "(none selected)")
		}
		if err := session.store.Delete(meta.ID); err != nil {
			return false, err
		}
		session.turns = 0
		fmt.Println(WarningStyle.Render("deleted ") + ValueStyle.Render(meta.Title))
		return false, nil

	case "/status", "/s":
		printSessionStatus(session)
		return false, nil

	case "/quit", "/q", "/exit":
		return true, nil

	default:
		return false, NewUsageError("command", name, "unknown command, try /help")
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(session *ChatSession, baseURL string) {
	fmt.Println(welcomeStyle.Render("auraflow chat"))
	if baseURL == "" {
		fmt.Println(DimStyle.Render("mode: replay (offline transcript playback)"))
	} else {
		protocol := backend.Detect(baseURL)
		fmt.Println(DimStyle.Render(fmt.Sprintf("backend: %s (%s)", baseURL, protocol)))
	}
	if meta, ok := session.store.Current(); ok {
		fmt.Println(DimStyle.Render("conversation: " + meta.Title))
	}
	fmt.Println(DimStyle.Render("/help for commands, Ctrl+D to exit"))
	fmt.Println()
}

func printChatHelp() {
	help := `Commands:
  /help, /h           Show this help
  /new [title]        Start a new conversation
  /list               List saved conversations
  /switch <id>        Switch to another conversation
  /rename <title>     Rename the current conversation
  /delete             Delete the current conversation
  /status             Show session statistics
  /quit, /q           Exit chat`
	fmt.Println(DimStyle.Render(help))
}

func printConversationList(st *store.Store) {
	list := st.List()
	if len(list) == 0 {
		fmt.Println(DimStyle.Render("no saved conversations"))
		return
	}
	current, _ := st.Current()
	for _, meta := range list {
		marker := "  "
		if meta.ID == current.ID {
			marker = HighlightStyle.Render("* ")
		}
		fmt.Printf("%s%s  %s  %s\n",
			marker,
			DimStyle.Render(shortID(meta.ID)),
			ValueStyle.Render(util.TruncateRunes(meta.Title, 48)),
			DimStyle.Render(formatTimestamp(meta.UpdatedAt)))
	}
}

func printSessionStatus(session *ChatSession) {
	fmt.Printf("%s %s\n", RenderLabel("Session uptime"), formatDuration(time.Since(session.started)))
	fmt.Printf("%s %d\n", RenderLabel("Turns"), session.turns)
	fmt.Printf("%s %d\n", RenderLabel("Conversations"), len(session.store.List()))
	if meta, ok := session.store.Current(); ok {
		fmt.Printf("%s %s\n", RenderLabel("Current"), meta.Title)
	}
}

func printExitSummary(session *ChatSession) {
	if session.turns == 0 {
		return
	}
	fmt.Println(DimStyle.Render(fmt.Sprintf(
		"%d turns in %s", session.turns, formatDuration(time.Since(session.started)))))
}

// shortID returns the first 8 characters of a conversation ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

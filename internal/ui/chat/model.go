// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auraflow/internal/backend"
	chatev "github.com/jeranaias/auraflow/internal/chat"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/store"
	"github.com/jeranaias/auraflow/internal/ui/components"
	"github.com/jeranaias/auraflow/internal/ui/styles"
)

// StreamFunc produces the event stream for one chat turn. Both the live
// transports and the replay player satisfy this shape.
type StreamFunc func(ctx context.Context, req *backend.ChatRequest) (<-chan chatev.Event, error)

// Options wires the chat view to the rest of the application.
type Options struct {
	Config     *config.Config
	Store      *store.Store
	Stream     StreamFunc
	BackendURL string // "" in replay mode
	Protocol   string // Detected protocol label, may be ""
	Replay     bool
	Version    string
}

// focusArea tracks which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// defaultTitle is the placeholder a conversation carries until the first
// user message names it.
const defaultTitle = "New conversation"

// Model is the Bubble Tea model for the chat view.
type Model struct {
	opts  Options
	theme *styles.Theme
	keys  KeyMap

	// Components
	header    *components.Header
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	thinking  *components.Thinking
	msgList   *components.MessageList
	viewport  viewport.Model
	textarea  textarea.Model
	renderer  *glamour.TermRenderer

	// Layout
	width          int
	height         int
	sidebarVisible bool
	focus          focusArea
	ready          bool

	// Conversation state
	threadID    string
	transcript  []components.Message
	raw         []string // Raw markdown per transcript entry, re-rendered on resize
	openChunkID string   // Chunk id of the entry still receiving content

	// Streaming state
	streaming     bool
	turn          int // Monotonic turn counter, guards stale stream messages
	cancel        context.CancelFunc
	events        <-chan chatev.Event
	eventCount    int
	turnEvents    []chatev.Event
	sessionEvents []chatev.Event // Everything this session saw, for /export

	notice   string // One-line feedback from slash commands
	quitting bool
}

// New creates the chat view model.
func New(opts Options) *Model {
	theme := styles.NewTheme(opts.Config.UI.Theme)

	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help"
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	m := &Model{
		opts:      opts,
		theme:     theme,
		keys:      DefaultKeyMap(),
		header:    components.NewHeader(theme),
		sidebar:   components.NewSidebar(theme),
		statusBar: components.NewStatusBar(theme),
		thinking:  components.NewThinking(theme),
		msgList:   components.NewMessageList(theme),
		textarea:  ta,
		viewport:  viewport.New(80, 20),
	}

	m.header.Backend = opts.BackendURL
	m.header.Protocol = opts.Protocol
	m.header.Replay = opts.Replay
	m.statusBar.Replay = opts.Replay
	m.msgList.ShowAgents = opts.Config.UI.ShowAgentNames

	if meta, ok := opts.Store.Current(); ok {
		m.threadID = meta.ID
		m.header.Title = meta.Title
		m.statusBar.ThreadID = meta.ID
	}
	m.reloadSidebar()

	return m
}

// Run starts the chat view in the alternate screen and blocks until exit.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init schedules the spinner tick.
func (m *Model) Init() tea.Cmd {
	return m.thinking.Spinner.Tick
}

// Update routes Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking.Spinner, cmd = m.thinking.Spinner.Update(msg)
		if m.thinking.Active {
			m.refreshViewport()
		}
		return m, cmd

	case streamStartedMsg:
		if msg.turn != m.turn {
			return m, nil // canceled before the transport answered
		}
		m.events = msg.events
		return m, waitForEvent(msg.turn, msg.events)

	case streamEventMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		return m, m.applyEvent(msg.event)

	case streamClosedMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		m.finishTurn()
		return m, nil

	case streamFailedMsg:
		if msg.turn != m.turn {
			return m, nil
		}
		m.streamError(msg.err)
		return m, nil

	case conversationsReloadedMsg:
		m.sidebar.SetConversations(msg.list, msg.currentID)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setNotice("export failed: " + msg.err.Error())
		} else {
			m.setNotice("exported to " + msg.path)
		}
		m.refreshViewport()
		return m, nil
	}

	return m, m.updateComponents(msg)
}

// handleKey dispatches key presses by focus area.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.streaming {
			m.cancelStream()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming {
			m.cancelStream()
			return m, nil
		}

	case key.Matches(msg, m.keys.NewConv):
		return m, m.newConversation("")

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarVisible && m.focus == focusSidebar {
			m.setFocus(focusInput)
		}
		m.resize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keys.FocusSwitch):
		if m.sidebarVisible {
			if m.focus == focusInput {
				m.setFocus(focusSidebar)
			} else {
				m.setFocus(focusInput)
			}
			return m, nil
		}

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleSidebarKey handles keys while the sidebar has focus.
func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SidebarUp):
		m.sidebar.MoveCursor(-1)

	case key.Matches(msg, m.keys.SidebarDown):
		m.sidebar.MoveCursor(1)

	case key.Matches(msg, m.keys.SidebarPick):
		if meta, ok := m.sidebar.Selected(); ok {
			m.setFocus(focusInput)
			return m, m.switchConversation(meta.ID)
		}

	case key.Matches(msg, m.keys.SidebarDelete):
		if meta, ok := m.sidebar.Selected(); ok {
			return m, m.deleteConversation(meta.ID)
		}
	}
	return m, nil
}

// updateComponents forwards unrouted messages to the focused widgets.
func (m *Model) updateComponents(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

// setFocus moves keyboard focus between panes.
func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.sidebar.Focused = f == focusSidebar
	if f == focusInput {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// resize recomputes the layout for new terminal dimensions.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	// Narrow terminals lose the sidebar.
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		m.sidebarVisible = false
	}

	sidebarWidth := 0
	if m.sidebarVisible {
		sidebarWidth = m.opts.Config.UI.SidebarWidth
		if sidebarWidth <= 0 {
			sidebarWidth = 28
		}
	}

	contentWidth := width - sidebarWidth
	inputHeight := m.textarea.Height() + 2
	bodyHeight := height - 1 /* header */ - 1 /* status bar */ - inputHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.sidebar.SetSize(sidebarWidth, bodyHeight)
	m.msgList.SetWidth(contentWidth)
	m.viewport.Width = contentWidth
	m.viewport.Height = bodyHeight
	m.textarea.SetWidth(width - 2)

	m.rebuildRenderer(contentWidth)
	m.rerenderTranscript()
	m.refreshViewport()
	m.ready = true
}

// rebuildRenderer recreates the markdown renderer for a new wrap width.
// A nil renderer is tolerated everywhere: output falls back to plain text.
func (m *Model) rebuildRenderer(width int) {
	wrap := width - 6
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// renderMarkdown renders completed assistant output. Falls back to the
// raw text when the renderer is unavailable or fails.
func (m *Model) renderMarkdown(content string) (string, bool) {
	if m.renderer == nil {
		return content, false
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content, false
	}
	return strings.TrimRight(out, "\n"), true
}

// rerenderTranscript re-renders markdown entries after a width change.
func (m *Model) rerenderTranscript() {
	for i := range m.transcript {
		if !m.transcript[i].Rendered || i >= len(m.raw) || m.raw[i] == "" {
			continue
		}
		out, ok := m.renderMarkdown(m.raw[i])
		m.transcript[i].Content = out
		m.transcript[i].Rendered = ok
	}
}

// refreshViewport rebuilds the viewport content and follows the tail.
func (m *Model) refreshViewport() {
	m.msgList.Messages = m.transcript

	content := m.msgList.View()
	if extra := m.thinking.View(); extra != "" {
		content += "\n\n" + extra
	}
	if m.notice != "" {
		content += "\n\n" + m.theme.SystemNotice.Render(m.notice)
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)
	if atBottom || m.streaming {
		m.viewport.GotoBottom()
	}
}

// setNotice replaces the one-line command feedback.
func (m *Model) setNotice(text string) {
	m.notice = text
}

// View renders the full frame.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	var body string
	if len(m.transcript) == 0 && !m.streaming && m.notice == "" {
		welcome := components.NewWelcome(m.theme, m.opts.Version)
		welcome.Replay = m.opts.Replay
		welcome.SetSize(m.viewport.Width, m.viewport.Height)
		body = welcome.View()
	} else {
		body = m.viewport.View()
	}

	if m.sidebarVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), body)
	}

	input := m.theme.InputContainer.Width(m.width - 2).Render(m.textarea.View())

	return strings.Join([]string{
		m.header.View(),
		body,
		input,
		m.statusBar.View(),
	}, "\n")
}

// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the interactive chat terminal UI: a transcript
// viewport over the conversation's event stream, a composer input,
// and a confirmation prompt for actions awaiting approval.
package chatui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openhands/openhands-cli/lib/agent"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/term"
)

// uiState tracks what the keyboard is driving.
type uiState int

const (
	// stateComposing: the composer has focus, the agent is idle.
	stateComposing uiState = iota
	// stateWorking: a turn is in flight; input queues until it ends.
	stateWorking
	// stateConfirming: an action awaits an approve/reject decision.
	stateConfirming
)

// confirmation prompt choices, in display order.
const (
	choiceApprove = iota
	choiceReject
	choiceAlways
	choiceCount
)

// eventMsg wraps an engine event for the bubbletea loop. The
// generation identifies which conversation produced it; messages from
// an abandoned conversation are discarded.
type eventMsg struct {
	generation int
	event      agent.Event
}

// streamClosedMsg is delivered when an engine's event stream ends.
type streamClosedMsg struct {
	generation int
}

// SwitchFunc replaces the active conversation. Called for /new (empty
// id) and /resume <id>. The returned conversation must be started;
// history holds the resumed conversation's stored events for
// transcript replay, nil for a fresh conversation.
type SwitchFunc func(conversationID string) (conv *agent.Conversation, history []agent.Event, err error)

// Model is the bubbletea model for the chat UI.
type Model struct {
	theme Theme
	keys  KeyMap

	conversation *agent.Conversation
	generation   int
	switchTo     SwitchFunc
	visualizer   *conversation.Visualizer

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	transcript []string
	width      int
	height     int
	ready      bool

	state         uiState
	turnStarted   time.Time
	confirmChoice int
	confirmDetail string

	statusLine string
	notice     string
	err        error
	quitting   bool
}

// New creates the chat UI over a started conversation.
func New(conv *agent.Conversation, switchTo SwitchFunc) *Model {
	theme := DefaultTheme

	input := textinput.New()
	input.Placeholder = "Message the agent (/help for commands)"
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(theme.ToolPending)

	markdownStyles := theme.MarkdownStyles()
	visualizer := &conversation.Visualizer{
		Markdown: func(source string) string {
			return term.Render(source, markdownStyles, 100)
		},
	}

	return &Model{
		theme:        theme,
		keys:         DefaultKeyMap,
		conversation: conv,
		switchTo:     switchTo,
		visualizer:   visualizer,
		input:        input,
		spinner:      spin,
	}
}

// Conversation returns the active conversation. /new and /resume swap
// it mid-session, so callers cleaning up after the program exits must
// ask the model rather than hold the original handle.
func (m *Model) Conversation() *agent.Conversation {
	return m.conversation
}

// Prime seeds the transcript with previously recorded events, used
// when resuming a conversation.
func (m *Model) Prime(events []agent.Event) {
	for _, event := range events {
		if block := m.visualizer.RenderEvent(event); block != "" {
			m.transcript = append(m.transcript, block)
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.spinner.Tick)
}

// waitForEvent reads the next engine event as a bubbletea command,
// stamped with the current generation.
func (m *Model) waitForEvent() tea.Cmd {
	generation := m.generation
	events := m.conversation.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{generation: generation}
		}
		return eventMsg{generation: generation, event: event}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		// A pending read on a conversation abandoned by /new or
		// /resume; nothing re-arms, the channel dies with its engine.
		if msg.generation != m.generation {
			return m, nil
		}
		return m.handleEvent(msg.event)

	case streamClosedMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		if !m.quitting {
			m.notice = "engine exited"
			m.state = stateComposing
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(msg tea.WindowSizeMsg) *Model {
	m.width = msg.Width
	m.height = msg.Height

	contentHeight := msg.Height - chromeHeight
	if contentHeight < 3 {
		contentHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = contentHeight
	}
	m.input.Width = msg.Width - 4
	m.refreshViewport()
	return m
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first.
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Interrupt):
		if m.state == stateWorking || m.state == stateConfirming {
			if err := m.conversation.Interrupt(); err != nil {
				m.err = err
			}
			m.notice = "interrupting…"
			return m, nil
		}
		return m.quit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfPageDown()
		return m, nil
	}

	if m.state == stateConfirming {
		return m.handleConfirmKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ChoiceNext):
		m.confirmChoice = (m.confirmChoice + 1) % choiceCount
	case key.Matches(msg, m.keys.ChoicePrev):
		m.confirmChoice = (m.confirmChoice + choiceCount - 1) % choiceCount
	case key.Matches(msg, m.keys.Approve):
		return m.decide(agent.DecisionApprove)
	case key.Matches(msg, m.keys.Reject):
		return m.decide(agent.DecisionReject)
	case key.Matches(msg, m.keys.Always):
		return m.decide(agent.DecisionAlways)
	case key.Matches(msg, m.keys.Submit):
		switch m.confirmChoice {
		case choiceApprove:
			return m.decide(agent.DecisionApprove)
		case choiceReject:
			return m.decide(agent.DecisionReject)
		case choiceAlways:
			return m.decide(agent.DecisionAlways)
		}
	}
	return m, nil
}

func (m *Model) decide(decision agent.Decision) (tea.Model, tea.Cmd) {
	if err := m.conversation.Decide(decision); err != nil {
		m.err = err
		return m, nil
	}
	m.state = stateWorking
	m.turnStarted = time.Now()
	m.confirmDetail = ""
	m.confirmChoice = choiceApprove
	if decision == agent.DecisionAlways {
		m.notice = "auto-approving from now on"
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.err = nil
	m.notice = ""

	if strings.HasPrefix(text, "/") {
		return m.runSlashCommand(text)
	}

	if m.state == stateWorking {
		m.notice = "agent is busy; interrupt first (C-c)"
		return m, nil
	}

	m.appendBlock(m.visualizer.RenderEvent(agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "user", Content: text},
	}))
	if err := m.conversation.SendMessage(text); err != nil {
		m.err = err
		return m, nil
	}
	m.state = stateWorking
	m.turnStarted = time.Now()
	return m, nil
}

func (m *Model) handleEvent(event agent.Event) (tea.Model, tea.Cmd) {
	switch event.Type {
	case agent.EventTypeMetric:
		m.statusLine = event.Metric.StatusLine()
		m.state = stateComposing

	case agent.EventTypeSystem:
		if event.System.Subtype == agent.SystemAwaitConfirmation {
			m.state = stateConfirming
			m.confirmChoice = choiceApprove
			m.confirmDetail = event.System.Message
		}

	case agent.EventTypeMessage:
		// The user's own messages were echoed at submit time.
		if event.Message.Role == "user" {
			return m, m.waitForEvent()
		}
	}

	if block := m.visualizer.RenderEvent(event); block != "" {
		m.appendBlock(block)
	}
	return m, m.waitForEvent()
}

func (m *Model) appendBlock(block string) {
	if block == "" {
		return
	}
	m.transcript = append(m.transcript, block)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.conversation.Started() {
		_ = m.conversation.Interrupt()
	}
	return m, tea.Quit
}

// runSlashCommand handles composer commands starting with "/".
func (m *Model) runSlashCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	command, arguments := fields[0], fields[1:]

	switch command {
	case "/exit", "/quit":
		return m.quit()

	case "/help":
		m.appendBlock(helpText())
		return m, nil

	case "/status":
		mode := m.conversation.ConfirmationMode()
		status := fmt.Sprintf("conversation %s\nconfirmation mode: %s", m.conversation.ID, mode)
		if m.statusLine != "" {
			status += "\nlast turn: " + m.statusLine
		}
		m.appendBlock(status)
		return m, nil

	case "/confirm":
		if len(arguments) != 1 {
			m.err = fmt.Errorf("usage: /confirm always|never|risky")
			return m, nil
		}
		mode := agent.ConfirmationMode(arguments[0])
		if err := m.conversation.SetConfirmationMode(mode); err != nil {
			m.err = err
			return m, nil
		}
		m.notice = "confirmation mode: " + arguments[0]
		return m, nil

	case "/new":
		return m.switchConversation("")

	case "/resume":
		if len(arguments) != 1 {
			m.err = fmt.Errorf("usage: /resume <conversation-id>")
			return m, nil
		}
		return m.switchConversation(arguments[0])
	}

	m.err = fmt.Errorf("unknown command %s (try /help)", command)
	return m, nil
}

func (m *Model) switchConversation(conversationID string) (tea.Model, tea.Cmd) {
	if m.switchTo == nil {
		m.err = fmt.Errorf("switching conversations is not available here")
		return m, nil
	}

	conv, history, err := m.switchTo(conversationID)
	if err != nil {
		m.err = err
		return m, nil
	}

	if old := m.conversation; old.Started() {
		go func() { _ = old.Terminate() }()
	}
	m.generation++
	m.conversation = conv
	m.transcript = nil
	m.statusLine = ""
	m.state = stateComposing
	m.notice = "conversation " + conv.ID
	m.Prime(history)
	m.refreshViewport()
	return m, m.waitForEvent()
}

func helpText() string {
	return strings.TrimSpace(`
Commands:
  /help                 show this help
  /status               show conversation id, mode, and last turn usage
  /confirm <mode>       set confirmation mode: always, never, or risky
  /new                  start a fresh conversation
  /resume <id>          switch to a stored conversation
  /exit                 quit

Keys:
  enter  send message        C-c  interrupt (quit when idle)
  PgUp/PgDn  scroll          C-d  quit
`)
}

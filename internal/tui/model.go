// Package tui is the interactive chat surface. It renders the
// controller's snapshots and never owns stream state itself: blocking
// engine calls run inside tea commands while a coarse tick repaints the
// live accumulation.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hao-ai-lab/research-agent-sub004/internal/engine"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

const renderInterval = 100 * time.Millisecond

type tickMsg time.Time

type loadedMsg struct {
	err error
}

type sessionChosenMsg struct {
	id   string
	snap *types.ActiveStreamSnapshot
	err  error
}

type sessionCreatedMsg struct {
	session *types.SessionSummary
	err     error
}

// streamDoneMsg arrives when a blocking Send or Attach returns; the
// controller has already reconciled the transcript by then.
type streamDoneMsg struct {
	err error
}

type Model struct {
	ctrl *engine.Controller
	dir  *engine.Directory

	input   textinput.Model
	spinner spinner.Model

	width  int
	height int
	status string
}

func NewModel(ctrl *engine.Controller, dir *engine.Directory) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = defaultStyles().Spinner

	return Model{
		ctrl:    ctrl,
		dir:     dir,
		input:   ti,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.loadCmd(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.dir.Load(context.Background())}
	}
}

func (m Model) selectCmd(id string) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.dir.Select(context.Background(), id)
		return sessionChosenMsg{id: id, snap: snap, err: err}
	}
}

func (m Model) createCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.dir.Create(context.Background())
		return sessionCreatedMsg{session: session, err: err}
	}
}

func (m Model) sendCmd(content string) tea.Cmd {
	return func() tea.Msg {
		return streamDoneMsg{err: m.ctrl.Send(context.Background(), "", content)}
	}
}

func (m Model) attachCmd(snap *types.ActiveStreamSnapshot) tea.Cmd {
	sessionID := m.ctrl.SessionID()
	return func() tea.Msg {
		return streamDoneMsg{err: m.ctrl.Attach(context.Background(), sessionID, snap)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.err != nil {
			m.status = m.dir.Err()
			return m, nil
		}
		m.status = ""
		// adopt the first visible session when none is current
		if m.ctrl.SessionID() == "" {
			if sessions := m.dir.Sessions(); len(sessions) > 0 {
				return m, m.selectCmd(sessions[0].ID)
			}
			return m, m.createCmd()
		}
		return m, nil

	case sessionChosenMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = ""
		if msg.snap != nil && msg.snap.Status == types.StreamStatusRunning {
			return m, m.attachCmd(msg.snap)
		}
		return m, nil

	case sessionCreatedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		return m, nil

	case streamDoneMsg:
		// stream errors surface through the controller's sticky error
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.ctrl.Stop()
		return m, tea.Quit

	case "enter":
		content := m.input.Value()
		m.input.SetValue("")
		if m.ctrl.Streaming() {
			// input submitted mid-stream waits its turn
			m.ctrl.QueueMessage(content)
			return m, nil
		}
		return m, m.sendCmd(content)

	case "esc":
		m.ctrl.Stop()
		return m, nil

	case "tab":
		if id := m.nextSessionID(); id != "" {
			return m, m.selectCmd(id)
		}
		return m, nil

	case "ctrl+n":
		return m, m.createCmd()

	case "ctrl+r":
		return m, m.loadCmd()

	case "ctrl+a":
		if id := m.ctrl.SessionID(); id != "" {
			m.dir.Archive(id)
			m.status = "session archived"
		}
		return m, nil

	case "ctrl+s":
		if id := m.ctrl.SessionID(); id != "" {
			m.dir.ToggleSaved(id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// nextSessionID cycles through the visible list relative to the current
// session.
func (m Model) nextSessionID() string {
	sessions := m.dir.Sessions()
	if len(sessions) == 0 {
		return ""
	}
	current := m.ctrl.SessionID()
	for i, session := range sessions {
		if session.ID == current {
			return sessions[(i+1)%len(sessions)].ID
		}
	}
	return sessions[0].ID
}

// Run starts the interactive program and blocks until exit.
func Run(ctrl *engine.Controller, dir *engine.Directory) error {
	program := tea.NewProgram(NewModel(ctrl, dir), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

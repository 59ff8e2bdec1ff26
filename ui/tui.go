package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
	"golang.org/x/term"
)

// Run starts the interactive prompt. It uses the TUI when stdin and stdout
// are terminals and falls back to line mode otherwise.
func Run(ctx context.Context, s *Session, cfg Config) error {
	tty := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if !tty || cfg.LineMode {
		log.Debug("Starting line mode", "tty", tty)
		return RunLines(ctx, s, cfg, os.Stdin, os.Stdout, tty)
	}

	log.Debug("Starting interactive mode", "glamour", cfg.GlamourEnabled)
	if _, err := NewProgram(ctx, s, cfg).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, s *Session, cfg Config) *tea.Program {
	return tea.NewProgram(newModel(ctx, s, cfg), tea.WithContext(ctx))
}

type executeDoneMsg struct {
	reply Reply
	err   error
}

type model struct {
	ctx      context.Context
	session  *Session
	renderer *renderer

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	// settings and savePath are copied from the session between calls;
	// the session itself is busy while a line executes.
	settings tts.Defaults
	savePath string

	transcript []string
	state      speechState
	cancel     context.CancelFunc
	width      int
	ready      bool
}

func newModel(ctx context.Context, s *Session, cfg Config) model {
	ti := textinput.New()
	ti.Placeholder = "Type something to say, or /help"
	ti.Prompt = promptStyle.Render("> ")
	ti.CharLimit = 5000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:      ctx,
		session:  s,
		renderer: newRenderer(cfg),
		input:    ti,
		spinner:  sp,
		settings: s.Settings(),
		savePath: s.savePath,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		height := max(1, msg.Height-3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.state == stateSpeaking {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEsc:
			if m.state == stateSpeaking {
				m.cancel()
			}
			return m, nil
		case tea.KeyEnter:
			if m.state == stateSpeaking {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			m.append(dimStyle.Render("> " + line))
			m.state = stateSpeaking

			ctx, cancel := context.WithCancel(m.ctx)
			m.cancel = cancel
			return m, tea.Batch(m.spinner.Tick, m.execute(ctx, line))
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case executeDoneMsg:
		m.cancel()
		m.state = stateIdle
		m.settings = m.session.Settings()
		m.savePath = m.session.savePath
		if msg.err != nil {
			m.state = stateError
			m.append(m.renderer.err(msg.err))
		} else if msg.reply.Output != "" {
			m.append(m.renderer.reply(msg.reply, m.width))
		}
		if msg.reply.Quit {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateSpeaking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// execute runs the blocking session call off the update loop.
func (m model) execute(ctx context.Context, line string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		reply, err := s.Execute(ctx, line)
		return executeDoneMsg{reply: reply, err: err}
	}
}

func (m *model) append(s string) {
	m.transcript = append(m.transcript, s)
	m.refresh()
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	status := statusLine(m.state, m.spinner.View(), m.settings, m.savePath, m.width)
	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}

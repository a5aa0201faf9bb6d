// Package chat implements the interactive search session as a
// bubbletea program: a prompt, a scrolling transcript, and a numbered
// menu of actions. Free text that matches no command runs a quick
// keyword search.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/core/services"
)

// quickSearchTop is the result count for the free-text default action.
const quickSearchTop = 3

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// Ports are the services the session drives.
type Ports struct {
	Search    driving.SearchService
	Admin     driving.IndexAdminService
	Presenter *services.Presenter
}

// Model is the bubbletea model for the chat session.
type Model struct {
	ports    Ports
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	busy     bool
	ready    bool
	width    int
	height   int
}

// outputMsg appends rendered text to the transcript.
type outputMsg struct {
	text string
	err  bool
}

// New creates a chat model over the given ports.
func New(ctx context.Context, ports Ports) *Model {
	input := textinput.New()
	input.Placeholder = "type a query, a menu number, or 'help'"
	input.Prompt = promptStyle.Render("> ")
	input.Focus()
	input.CharLimit = 512

	m := &Model{
		ports: ports,
		ctx:   ctx,
		input: input,
	}
	m.lines = append(m.lines, titleStyle.Render("libria interactive search"), "", menuText(), "")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			m.append(promptStyle.Render("> ") + line)

			action := dispatch(line)
			if action.quit {
				return m, tea.Quit
			}
			m.busy = true
			return m, m.run(action)
		}

	case outputMsg:
		m.busy = false
		if msg.err {
			m.append(errorStyle.Render(msg.text))
		} else {
			m.append(msg.text)
		}
		m.append("")
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}
	status := faintStyle.Render("enter to run, esc to quit")
	if m.busy {
		status = faintStyle.Render("working...")
	}
	return m.viewport.View() + "\n" + m.input.View() + "\n" + status
}

// run executes an action off the UI loop. Action errors are rendered
// into the transcript; they never terminate the session.
func (m *Model) run(a action) tea.Cmd {
	return func() tea.Msg {
		text, err := a.fn(m.ctx, m.ports)
		if err != nil {
			return outputMsg{text: "error: " + err.Error(), err: true}
		}
		return outputMsg{text: text}
	}
}

func (m *Model) append(lines ...string) {
	m.lines = append(m.lines, lines...)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

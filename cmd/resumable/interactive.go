package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/resume"
	"github.com/wippyai/resumable/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	outputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Padding(0, 1)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateRunning modelState = iota
	stateSuspended
	stateDone
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	prog     *ast.Program
	output   *syncBuffer
	signal   *resume.Signal
	filename string
	result   string
	input    textinput.Model
	resumes  int
	state    modelState
}

// syncBuffer collects program output written while View reads it.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}

// stepMsg reports the outcome of a run or a resume.
type stepMsg struct {
	err     error
	outcome runtime.Outcome
}

func newInteractiveModel(filename string, prog *ast.Program, logger *zap.Logger) (*interactiveModel, error) {
	output := &syncBuffer{}
	rt, err := newRuntime(output, logger)
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = "value (number, true, 'text', ...)"
	ti.Prompt = "resume with: "
	ti.Width = 40

	return &interactiveModel{
		rt:       rt,
		prog:     prog,
		output:   output,
		filename: filename,
		input:    ti,
		state:    stateRunning,
	}, nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.start
}

func (m *interactiveModel) start() tea.Msg {
	out, err := m.rt.Run(context.Background(), m.prog)
	return stepMsg{outcome: out, err: err}
}

func (m *interactiveModel) resume(value any) tea.Cmd {
	sig := m.signal
	return func() tea.Msg {
		out, err := m.rt.Resume(context.Background(), sig, value)
		return stepMsg{outcome: out, err: err}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "q":
			if m.state != stateSuspended {
				return m, tea.Quit
			}

		case "enter":
			switch m.state {
			case stateSuspended:
				value := parseValue(m.input.Value())
				m.input.Reset()
				m.input.Blur()
				m.state = stateRunning
				m.resumes++
				return m, m.resume(value)

			case stateDone:
				return m, tea.Quit
			}

		case "r":
			if m.state == stateDone {
				m.output.Reset()
				m.err = nil
				m.result = ""
				m.resumes = 0
				m.state = stateRunning
				return m, m.start
			}
		}

	case stepMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
			m.state = stateDone
		case msg.outcome.Suspended():
			m.signal = msg.outcome.Signal
			m.state = stateSuspended
			return m, m.input.Focus()
		default:
			m.result = runtime.Inspect(msg.outcome.Value)
			m.state = stateDone
		}
		return m, nil
	}

	if m.state == stateSuspended {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resumable Stepper"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	fmt.Fprintf(&b, "  resumes: %d\n\n", m.resumes)

	if out := m.output.String(); out != "" {
		b.WriteString(outputStyle.Render(strings.TrimRight(out, "\n")))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateRunning:
		b.WriteString("Running...")

	case stateSuspended:
		b.WriteString(describeSuspension(runtime.Outcome{Signal: m.signal, Status: runtime.StatusSuspended}))
		b.WriteString("\n\n")
		for i, f := range m.signal.Frames() {
			b.WriteString(formatFrame(i, f))
		}
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter resume • esc quit"))

	case stateDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render("completed: " + m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r run again • enter/q quit"))
	}

	return b.String()
}

// formatFrame renders one captured frame: its step and its bindings.
func formatFrame(i int, f *resume.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s step %d", frameStyle.Render(fmt.Sprintf("#%d", i)), f.InFlight())
	if name, ok := f.Assignments[f.InFlight()]; ok {
		fmt.Fprintf(&b, " -> %s", nameStyle.Render(name))
	}
	b.WriteString("\n")

	names := make([]string, 0, len(f.Values))
	for name := range f.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "    %s = %s\n", nameStyle.Render(name), runtime.Inspect(f.Values[name]))
	}
	return b.String()
}

func runInteractive(filename, source string, opts options, logger *zap.Logger) error {
	prog, err := transform(source, opts, logger)
	if err != nil {
		return err
	}
	if filename == "" {
		filename = "<stdin>"
	}
	model, err := newInteractiveModel(filename, prog, logger)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

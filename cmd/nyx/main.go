// Command nyx is the CLI collaborator for the engine: a REPL when run
// with no arguments, or a one-shot file evaluator when given a path.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nyx-lang/nyx"
	"github.com/nyx-lang/nyx/internal/enginelog"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func main() {
	logger, _ := zap.NewDevelopment()
	enginelog.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	if len(os.Args) > 1 {
		code, err := runFile(os.Args[1])
		reportErrors(err)
		os.Exit(code)
	}

	if err := runREPL(); err != nil {
		reportErrors(err)
		os.Exit(1)
	}
}

// reportErrors prints every error multierr collected into err, one
// line per cause, rather than a single flattened message — useful
// once evaluate/compile failures start carrying chained causes.
func reportErrors(err error) {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+e.Error()))
	}
}

func runFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 1, err
	}

	rt := nyx.NewRuntime(nil)
	defer rt.Close()
	ctx := rt.NewContext(nil)
	defer ctx.Close()

	v, evalErr := ctx.Eval(string(data), path)
	if evalErr != nil {
		return 1, evalErr
	}
	if !v.IsUndefined() {
		fmt.Println(resultStyle.Render(nyx.ToString(v)))
	}
	return 0, nil
}

type replLine struct {
	text   string
	style  lipgloss.Style
	styled bool
}

type replModel struct {
	rt     *nyx.Runtime
	ctx    *nyx.Context
	input  textinput.Model
	lines  []replLine
	quit   bool
}

func newREPLModel() *replModel {
	ti := textinput.New()
	ti.Placeholder = "expression"
	ti.Prompt = "> "
	ti.Focus()
	ti.Width = 60

	rt := nyx.NewRuntime(nil)
	return &replModel{
		rt:    rt,
		ctx:   rt.NewContext(nil),
		input: ti,
		lines: []replLine{{text: "nyx — type 'help' for commands", style: helpStyle, styled: true}},
	}
}

func (m *replModel) Init() tea.Cmd { return textinput.Blink }

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		case "enter":
			m.submit(m.input.Value())
			m.input.SetValue("")
			if m.quit {
				return m, tea.Quit
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) submit(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.lines = append(m.lines, replLine{text: "> " + trimmed})

	switch trimmed {
	case "help":
		m.lines = append(m.lines, replLine{
			text:  "commands: help, exit, quit, clear, .gc, .stats",
			style: helpStyle, styled: true})
		return
	case "exit", "quit":
		m.shutdown()
		m.quit = true
		return
	case "clear":
		m.lines = nil
		return
	case ".gc":
		m.ctx.GC()
		m.lines = append(m.lines, replLine{text: "gc: ok", style: helpStyle, styled: true})
		return
	case ".stats":
		stats := m.ctx.GCStats()
		m.lines = append(m.lines, replLine{
			text: fmt.Sprintf(
				"collections=%d minor=%d live_bytes=%d interned=%d",
				stats.Collections, stats.MinorCollections,
				m.ctx.MemoryUsage(), m.ctx.InternedCount(),
			),
			style: helpStyle, styled: true})
		return
	}

	v, err := m.ctx.Eval(trimmed, "<repl>")
	if err != nil {
		m.lines = append(m.lines, replLine{text: "Error: " + err.Error(), style: errorStyle, styled: true})
		m.ctx.ClearError()
		return
	}
	if !v.IsUndefined() {
		m.lines = append(m.lines, replLine{text: nyx.ToString(v), style: resultStyle, styled: true})
	}
}

func (m *replModel) shutdown() {
	m.ctx.Close()
	m.rt.Close()
}

func (m *replModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("nyx"))
	b.WriteString("\n\n")
	for _, l := range m.lines {
		if l.styled {
			b.WriteString(l.style.Render(l.text))
		} else {
			b.WriteString(l.text)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter eval • ctrl+c quit"))
	return b.String()
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel())
	_, err := p.Run()
	return err
}

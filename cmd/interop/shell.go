package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/interop-runtime/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const shellHelp = `script code is evaluated as typed
:get <name>     print a variable
:objects        list selected objects
:props <id>     print an object's properties
:functions      list user-defined script functions
:help           this text
:quit           leave`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive script shell",
	Long: `Opens one session and evaluates lines as they are entered. On a terminal
a full-screen interface is used; otherwise lines are read from stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
				p := tea.NewProgram(newShellModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
				_, err := p.Run()
				return err
			}
			return runLines(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

// execLine runs one shell line. quit reports a request to leave.
func execLine(ctx context.Context, s *session.Session, line string) (out string, quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, nil
	}
	if !strings.HasPrefix(line, ":") {
		return "", false, s.Eval(ctx, line)
	}

	verb, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "q", "quit", "exit":
		return "", true, nil
	case "help":
		return shellHelp + "\n", false, nil
	case "get":
		v, err := s.GetVar(ctx, arg)
		if err != nil {
			return "", false, err
		}
		out, err := renderValue(v)
		return out, false, err
	case "objects":
		objs, err := s.AllSelectedObjects(ctx)
		if err != nil {
			return "", false, err
		}
		var b strings.Builder
		for _, o := range objs {
			b.WriteString(o.ID().String())
			b.WriteByte('\n')
		}
		return b.String(), false, nil
	case "functions":
		if err := s.SyncUserFunctions(ctx); err != nil {
			return "", false, err
		}
		var b strings.Builder
		for _, name := range s.UserFunctions() {
			b.WriteString(name)
			b.WriteString("()\n")
		}
		return b.String(), false, nil
	case "props":
		o, err := s.ObjectByID(ctx, arg)
		if err != nil {
			return "", false, err
		}
		out, err := describeObject(ctx, o)
		return out, false, err
	}
	return "", false, fmt.Errorf("unknown command :%s, try :help", verb)
}

// runLines is the shell without a terminal.
func runLines(ctx context.Context, s *session.Session, in io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		out, quit, err := execLine(ctx, s, sc.Text())
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		fmt.Fprint(w, out)
		if quit {
			return nil
		}
	}
	return sc.Err()
}

type shellModel struct {
	ctx     context.Context
	sess    *session.Session
	input   textinput.Model
	view    viewport.Model
	history []string
	log     strings.Builder
	recall  int
	busy    bool
	ready   bool
}

type lineResultMsg struct {
	err  error
	line string
	out  string
	quit bool
}

func newShellModel(ctx context.Context, s *session.Session) *shellModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(string(s.Product()) + "> ")
	ti.Placeholder = "script code or :help"
	ti.Focus()
	return &shellModel{ctx: ctx, sess: s, input: ti}
}

func (m *shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *shellModel) run(line string) tea.Cmd {
	return func() tea.Msg {
		out, quit, err := execLine(m.ctx, m.sess, line)
		return lineResultMsg{line: line, out: out, quit: quit, err: err}
	}
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 4
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.view.Width, m.view.Height = msg.Width, h
		}
		m.input.Width = msg.Width - 10
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			line := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.history = append(m.history, line)
			m.recall = len(m.history)
			m.busy = true
			return m, m.run(line)

		case "up":
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.recall < len(m.history)-1 {
				m.recall++
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.history)
				m.input.Reset()
			}
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case lineResultMsg:
		m.busy = false
		if msg.quit {
			return m, tea.Quit
		}
		m.log.WriteString(promptStyle.Render("> ") + msg.line + "\n")
		switch {
		case msg.err != nil:
			m.log.WriteString(errorStyle.Render("Error: "+msg.err.Error()) + "\n")
		case msg.out != "":
			m.log.WriteString(resultStyle.Render(strings.TrimRight(msg.out, "\n")) + "\n")
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *shellModel) refresh() {
	if !m.ready {
		return
	}
	m.view.SetContent(m.log.String())
	m.view.GotoBottom()
}

func (m *shellModel) View() string {
	if !m.ready {
		return "Starting..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Interop Shell"))
	b.WriteString(" ")
	b.WriteString(string(m.sess.Product()))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.busy {
		b.WriteString(helpStyle.Render("running..."))
	} else {
		b.WriteString(helpStyle.Render("enter run • ↑/↓ history • pgup/pgdown scroll • ctrl+c quit"))
	}
	return b.String()
}

// Package ui holds the interactive pieces of the command line: the yes/no
// confirmation prompt and styled result lines.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Prompt asks yes/no questions. On a terminal it runs a small bubbletea
// program; otherwise it reads one line from the input.
type Prompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewPrompt returns a prompt over stdin/stdout.
func NewPrompt() *Prompt {
	return &Prompt{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// NewLinePrompt returns a non-interactive prompt reading answers from in.
func NewLinePrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out}
}

// Confirm asks question and reports whether the answer was yes. End of input
// counts as no.
func (p *Prompt) Confirm(ctx context.Context, question string) (bool, error) {
	if p.interactive {
		return p.confirmTUI(ctx, question)
	}
	return p.confirmLine(question)
}

func (p *Prompt) confirmLine(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", stylePrompt.Render(question))

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
	}
	return isYes(line), nil
}

func (p *Prompt) confirmTUI(ctx context.Context, question string) (bool, error) {
	prog := tea.NewProgram(newConfirmModel(question),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	return ok && m.confirmed, nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

type keyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
}

var confirmKeys = keyMap{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N", "esc", "q", "ctrl+c", "ctrl+d"), key.WithHelp("n", "no")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "tab", "h", "l"), key.WithHelp("←/→", "switch")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
}

type confirmModel struct {
	question  string
	selected  bool
	confirmed bool
	done      bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, confirmKeys.Yes):
		m.confirmed, m.done = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, confirmKeys.No):
		m.confirmed, m.done = false, true
		return m, tea.Quit
	case key.Matches(keyMsg, confirmKeys.Toggle):
		m.selected = !m.selected
	case key.Matches(keyMsg, confirmKeys.Submit):
		m.confirmed, m.done = m.selected, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.confirmed {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", stylePrompt.Render(m.question), answer)
	}

	yes, no := styleChoice, styleChoiceActive
	if m.selected {
		yes, no = styleChoiceActive, styleChoice
	}

	help := []string{}
	for _, b := range []key.Binding{confirmKeys.Yes, confirmKeys.No, confirmKeys.Toggle, confirmKeys.Submit} {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}

	return fmt.Sprintf("%s\n\n  %s %s\n\n%s\n",
		stylePrompt.Render(m.question),
		yes.Render("Yes"), no.Render("No"),
		styleHelp.Render(strings.Join(help, " • ")))
}

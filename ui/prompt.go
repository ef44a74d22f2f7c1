package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/ffsimple/reconcile"
)

// PromptModel asks what to do with an output file that already exists.
type PromptModel struct {
	question reconcile.Question
	cursor   int

	choice   reconcile.Choice
	answered bool

	width int
}

// NewPromptModel creates a prompt for q. An empty choice list offers every choice.
func NewPromptModel(q reconcile.Question) PromptModel {
	if len(q.Choices) == 0 {
		q.Choices = reconcile.Choices
	}
	return PromptModel{question: q}
}

// Init implements tea.Model
func (m PromptModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

func (m PromptModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "esc", "q":
		return m.answer(reconcile.ChoiceCancel)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.question.Choices)-1 {
			m.cursor++
		}

	case "enter", " ":
		return m.answer(m.question.Choices[m.cursor])

	default:
		// first letter shortcuts: o, c, r
		for _, c := range m.question.Choices {
			if strings.HasPrefix(c.String(), key) && len(key) == 1 {
				return m.answer(c)
			}
		}
	}

	return m, nil
}

func (m PromptModel) answer(c reconcile.Choice) (tea.Model, tea.Cmd) {
	m.choice = c
	m.answered = true
	return m, tea.Quit
}

// Choice returns the operator's answer, if one was given.
func (m PromptModel) Choice() (reconcile.Choice, bool) {
	return m.choice, m.answered
}

// View implements tea.Model
func (m PromptModel) View() string {
	if m.answered {
		return ""
	}

	var content strings.Builder
	content.WriteString(HeaderStyle.Render("⚠️  Output already exists"))
	content.WriteString("\n")
	content.WriteString(m.question.Path)
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(describeExisting(m.question)))
	content.WriteString("\n\n")

	for i, c := range m.question.Choices {
		label := fmt.Sprintf("[%s] %s", c.String()[:1], c.String())
		if i == m.cursor {
			label = lipgloss.NewStyle().Reverse(true).Render(label)
		}
		content.WriteString("  " + label + "\n")
	}

	content.WriteString("\n↑/↓ select · enter confirm · esc cancel")
	return content.String()
}

func describeExisting(q reconcile.Question) string {
	e := q.Existing
	if e == nil {
		return "existing file could not be read"
	}
	parts := []string{e.HumanSize(), e.HumanDuration()}
	if e.Codec != "" {
		parts = append(parts, e.Codec)
	}
	if e.Width > 0 && e.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", e.Width, e.Height))
	}
	return strings.Join(parts, " · ")
}

// ChoicePrompt asks the reconciliation question in the terminal.
type ChoicePrompt struct {
	In  io.Reader
	Out io.Writer
}

// NewChoicePrompt prompts on stdin, drawing on stderr so stdout stays clean.
func NewChoicePrompt() *ChoicePrompt {
	return &ChoicePrompt{In: os.Stdin, Out: os.Stderr}
}

// Choose implements reconcile.Prompter. Quitting the prompt without an
// answer counts as cancel.
func (p *ChoicePrompt) Choose(ctx context.Context, q reconcile.Question) (reconcile.Choice, error) {
	program := tea.NewProgram(NewPromptModel(q),
		tea.WithContext(ctx),
		tea.WithInput(p.In),
		tea.WithOutput(p.Out),
	)
	final, err := program.Run()
	if err != nil {
		return reconcile.ChoiceCancel, fmt.Errorf("prompt failed: %w", err)
	}
	if m, ok := final.(PromptModel); ok {
		if c, answered := m.Choice(); answered {
			return c, nil
		}
	}
	return reconcile.ChoiceCancel, nil
}

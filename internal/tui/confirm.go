// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user cancels the prompt (esc / ctrl+c).
var ErrAborted = errors.New("prompt aborted")

type (
	// ConfirmOptions configures the Confirm prompt.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the yes option (default: "Yes").
		Affirmative string
		// Negative is the text for the no option (default: "No").
		Negative string
		// Default is the initially selected answer.
		Default bool
	}

	confirmModel struct {
		title       string
		description string
		affirmative string
		negative    string
		selection   bool
		result      bool
		done        bool
		cancelled   bool
		width       int
	}
)

var (
	confirmTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	confirmDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	confirmActiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	confirmInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Padding(0, 1)
	confirmHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newConfirmModel(opts ConfirmOptions) confirmModel {
	affirmative := opts.Affirmative
	if affirmative == "" {
		affirmative = "Yes"
	}
	negative := opts.Negative
	if negative == "" {
		negative = "No"
	}

	return confirmModel{
		title:       opts.Title,
		description: opts.Description,
		affirmative: affirmative,
		negative:    negative,
		selection:   opts.Default,
		result:      opts.Default,
	}
}

// Init implements tea.Model.
func (m confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		case "y":
			m.result = true
			m.done = true
			return m, tea.Quit
		case "n":
			m.result = false
			m.done = true
			return m, tea.Quit
		case "left", "h":
			m.selection = true
		case "right", "l":
			m.selection = false
		case "up", "down", "tab", "shift+tab":
			m.selection = !m.selection
		case "enter", " ":
			m.result = m.selection
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

// View implements tea.Model.
func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	yesView := confirmInactiveStyle.Render(m.affirmative)
	noView := confirmInactiveStyle.Render(m.negative)
	if m.selection {
		yesView = confirmActiveStyle.Render(m.affirmative)
	} else {
		noView = confirmActiveStyle.Render(m.negative)
	}

	lines := make([]string, 0, 4)
	if m.title != "" {
		lines = append(lines, confirmTitleStyle.Render(m.title))
	}
	if m.description != "" {
		lines = append(lines, confirmDescStyle.Render(m.description))
	}
	lines = append(lines,
		yesView+"  "+noView,
		confirmHelpStyle.Render("enter submit • y yes • n no • esc cancel"),
	)

	view := strings.Join(lines, "\n")
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view
}

// Confirm prompts the user for a yes/no answer. It returns ErrAborted
// when the prompt is cancelled with esc or ctrl+c.
func Confirm(opts ConfirmOptions) (bool, error) {
	p := tea.NewProgram(newConfirmModel(opts))
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(confirmModel)
	if m.cancelled {
		return false, ErrAborted
	}
	return m.result, nil
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"searchpipe/pipe"
)

// FilterPipes fuzzy-matches query against pipe IDs and names, best match
// first. An empty query returns every pipe in order.
func FilterPipes(pipes []pipe.Info, query string) []pipe.Info {
	if strings.TrimSpace(query) == "" {
		return pipes
	}

	targets := make([]string, len(pipes))
	for i, p := range pipes {
		targets[i] = p.ID + " " + p.Name
	}

	matches := fuzzy.Find(query, targets)
	out := make([]pipe.Info, len(matches))
	for i, match := range matches {
		out[i] = pipes[match.Index]
	}
	return out
}

// PickerModel lets the user choose a pipe by typing part of its name.
type PickerModel struct {
	pipes    []pipe.Info
	filtered []pipe.Info
	input    textinput.Model
	selected int
	width    int

	chosen  *pipe.Info
	aborted bool
}

// NewPicker returns a picker over pipes.
func NewPicker(pipes []pipe.Info) PickerModel {
	in := textinput.New()
	in.Placeholder = "filter"
	in.Width = 30
	in.Focus()
	return PickerModel{pipes: pipes, filtered: pipes, input: in, width: defaultWidth}
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "down", "ctrl+j":
			if m.selected < len(m.filtered)-1 {
				m.selected++
			}
			return m, nil
		case "up", "ctrl+k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "enter":
			if len(m.filtered) == 0 {
				return m, nil
			}
			chosen := m.filtered[m.selected]
			m.chosen = &chosen
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filtered = FilterPipes(m.pipes, m.input.Value())
	if m.selected >= len(m.filtered) {
		m.selected = max(len(m.filtered)-1, 0)
	}
	return m, cmd
}

// View implements tea.Model.
func (m PickerModel) View() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Choose a pipe"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	if len(m.filtered) == 0 {
		sb.WriteString(DimStyle.Render("no match"))
		sb.WriteString("\n")
	}
	for i, p := range m.filtered {
		line := truncate(fmt.Sprintf("%-18s %s", p.ID, p.Name), m.width-4)
		if i == m.selected {
			sb.WriteString(SelectedStyle.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(FormatFooter("↑/↓", "Navigate", "Enter", "Select", "Esc", "Cancel"))
	return sb.String()
}

// Chosen returns the selected pipe, if any.
func (m PickerModel) Chosen() (pipe.Info, bool) {
	if m.chosen == nil {
		return pipe.Info{}, false
	}
	return *m.chosen, true
}

// RunPicker shows the picker and returns the chosen pipe.
func RunPicker(pipes []pipe.Info) (pipe.Info, error) {
	final, err := tea.NewProgram(NewPicker(pipes)).Run()
	if err != nil {
		return pipe.Info{}, fmt.Errorf("pipe picker: %w", err)
	}
	chosen, ok := final.(PickerModel).Chosen()
	if !ok {
		return pipe.Info{}, ErrAborted
	}
	return chosen, nil
}

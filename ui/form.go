package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cast"

	"searchpipe/config"
)

// ErrAborted is returned when the user leaves a prompt without confirming.
var ErrAborted = errors.New("aborted")

type formField struct {
	valve config.Valve
	input textinput.Model
}

// FormModel prompts for every valve, pre-filled with the current values.
type FormModel struct {
	fields  []formField
	focus   int
	width   int
	done    bool
	aborted bool
}

// NewForm builds a form over config.Registry. current supplies the starting
// values; valves missing from it start at their default.
func NewForm(current map[string]any) FormModel {
	m := FormModel{width: defaultWidth}
	for _, valve := range config.Registry {
		in := textinput.New()
		in.Width = 50
		in.CharLimit = 500
		in.Prompt = "› "

		value, ok := current[valve.Key]
		if !ok {
			value = valve.Default
		}
		in.SetValue(cast.ToString(value))

		if valve.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		m.fields = append(m.fields, formField{valve: valve, input: in})
	}
	if len(m.fields) > 0 {
		m.fields[0].input.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "tab", "down":
			return m.move(1), textinput.Blink
		case "shift+tab", "up":
			return m.move(-1), textinput.Blink
		case "ctrl+s":
			m.done = true
			return m, tea.Quit
		case "enter":
			if m.focus == len(m.fields)-1 {
				m.done = true
				return m, tea.Quit
			}
			return m.move(1), textinput.Blink
		}
	}

	if len(m.fields) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

func (m FormModel) move(delta int) FormModel {
	if len(m.fields) == 0 {
		return m
	}
	m.fields[m.focus].input.Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	m.fields[m.focus].input.Focus()
	return m
}

// View implements tea.Model.
func (m FormModel) View() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("searchpipe valves"))
	sb.WriteString("\n\n")

	for i, f := range m.fields {
		label := f.valve.Key
		if i == m.focus {
			label = SelectedStyle.Render(label)
		}
		fmt.Fprintf(&sb, "%s  %s\n%s\n", label, DimStyle.Render(truncate(f.valve.Description, m.width-len(f.valve.Key)-2)), f.input.View())
	}

	sb.WriteString("\n")
	sb.WriteString(FormatFooter("↑/↓", "Navigate", "Enter", "Next", "Ctrl+S", "Run", "Esc", "Cancel"))
	return sb.String()
}

// Values returns the entered settings. Blank fields are left out so they
// fall back to defaults.
func (m FormModel) Values() map[string]any {
	out := make(map[string]any)
	for _, f := range m.fields {
		if v := strings.TrimSpace(f.input.Value()); v != "" {
			out[f.valve.Key] = v
		}
	}
	return out
}

// Done reports whether the form was submitted.
func (m FormModel) Done() bool { return m.done }

// RunForm shows the form and returns the submitted settings.
func RunForm(current map[string]any) (map[string]any, error) {
	final, err := tea.NewProgram(NewForm(current)).Run()
	if err != nil {
		return nil, fmt.Errorf("valve form: %w", err)
	}
	m := final.(FormModel)
	if m.aborted || !m.done {
		return nil, ErrAborted
	}
	return m.Values(), nil
}

package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"searchpipe/config"
)

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestFormDefaults(t *testing.T) {
	m := NewForm(map[string]any{"EXA_API_KEY": "abc"})

	if len(m.fields) != len(config.Registry) {
		t.Fatalf("fields = %d, want %d", len(m.fields), len(config.Registry))
	}

	values := m.Values()
	if values["EXA_API_KEY"] != "abc" {
		t.Errorf("EXA_API_KEY = %v", values["EXA_API_KEY"])
	}
	if values["EXA_API_BASE_URL"] != "https://api.exa.ai" {
		t.Errorf("EXA_API_BASE_URL = %v", values["EXA_API_BASE_URL"])
	}
	if _, ok := values["OPENROUTER_API_KEY"]; ok {
		t.Error("blank valves must be left out")
	}

	v, err := config.FromMap(values)
	if err != nil {
		t.Fatalf("form values do not parse: %v", err)
	}
	if v.ExaContextTokensNum != 5000 || !v.EmitSources {
		t.Errorf("valves = %+v", v)
	}
}

func TestFormEditing(t *testing.T) {
	m := send(NewForm(map[string]any{}),
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k-1")},
		tea.KeyMsg{Type: tea.KeyEnter},
	).(FormModel)

	if m.focus != 1 {
		t.Errorf("focus = %d, want 1", m.focus)
	}
	if m.Values()["EXA_API_KEY"] != "k-1" {
		t.Errorf("EXA_API_KEY = %v", m.Values()["EXA_API_KEY"])
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}).(FormModel)
	if m.focus != len(m.fields)-1 {
		t.Errorf("focus = %d, want wrap to last field", m.focus)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlS}).(FormModel)
	if !m.Done() {
		t.Error("ctrl+s should submit")
	}
}

func TestFormAbort(t *testing.T) {
	m := send(NewForm(nil), tea.KeyMsg{Type: tea.KeyEsc}).(FormModel)
	if !m.aborted || m.Done() {
		t.Errorf("aborted = %v, done = %v", m.aborted, m.Done())
	}
}

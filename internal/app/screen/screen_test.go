package screen

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/blendgit/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneMsg string

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "confirm", TypeConfirm.String())
	assert.Equal(t, "input", TypeInput.String())
	assert.Equal(t, "none", TypeNone.String())
}

func TestConfirmScreen(t *testing.T) {
	newScreen := func() *ConfirmScreen {
		s := NewConfirmScreen("Drop stash@{0}?", theme.Dracula())
		s.OnConfirm = func() tea.Cmd { return func() tea.Msg { return doneMsg("yes") } }
		s.OnCancel = func() tea.Cmd { return func() tea.Msg { return doneMsg("no") } }
		return s
	}

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want doneMsg
	}{
		{"y confirms", []tea.KeyMsg{runes("y")}, "yes"},
		{"n cancels", []tea.KeyMsg{runes("n")}, "no"},
		{"esc cancels", []tea.KeyMsg{{Type: tea.KeyEsc}}, "no"},
		{"enter defaults to cancel", []tea.KeyMsg{{Type: tea.KeyEnter}}, "no"},
		{"tab then enter confirms", []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var current Screen = newScreen()
			var cmd tea.Cmd
			for _, k := range tt.keys {
				current, cmd = current.Update(k)
			}
			assert.Nil(t, current)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}

	s := newScreen()
	assert.Equal(t, TypeConfirm, s.Type())
	assert.Contains(t, s.View(), "Drop stash@{0}?")
	next, cmd := s.Update(runes("x"))
	assert.Same(t, s, next)
	assert.Nil(t, cmd)
}

func TestInputScreenSubmit(t *testing.T) {
	s := NewInputScreen("New branch", "name", "", theme.Nord())
	s.SetCheckbox("Force", false)

	var gotValue string
	var gotChecked bool
	s.OnSubmit = func(value string, checked bool) tea.Cmd {
		gotValue, gotChecked = value, checked
		return nil
	}

	var current Screen = s
	current, _ = current.Update(runes("dev"))
	current, _ = current.Update(tea.KeyMsg{Type: tea.KeyTab})
	current, _ = current.Update(runes(" "))
	assert.Contains(t, current.View(), "[x] Force")
	current, _ = current.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, current)
	assert.Equal(t, "dev", gotValue)
	assert.True(t, gotChecked)
}

func TestInputScreenValidation(t *testing.T) {
	s := NewInputScreen("Summary", "", "", theme.Dracula())
	s.Validate = func(v string) string {
		if v == "" {
			return "summary is required"
		}
		return ""
	}
	submitted := false
	s.OnSubmit = func(string, bool) tea.Cmd {
		submitted = true
		return nil
	}

	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Same(t, s, next)
	assert.False(t, submitted)
	assert.Contains(t, s.View(), "summary is required")

	next, _ = s.Update(runes("fix"))
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, next)
	assert.True(t, submitted)
}

func TestInputScreenCancel(t *testing.T) {
	s := NewInputScreen("Command", "", "status", theme.Dracula())
	cancelled := false
	s.OnCancel = func() tea.Cmd {
		cancelled = true
		return nil
	}
	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, next)
	assert.True(t, cancelled)
	assert.Equal(t, TypeInput, s.Type())
}

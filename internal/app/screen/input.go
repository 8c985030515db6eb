package screen

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/theme"
)

// InputScreen prompts for one line of text with optional validation and
// an optional checkbox (force, allow empty, include untracked).
type InputScreen struct {
	Prompt   string
	Input    textinput.Model
	ErrorMsg string
	Thm      *theme.Theme

	// Validate returns an error message, or "" when value is acceptable.
	Validate func(value string) string

	OnSubmit func(value string, checked bool) tea.Cmd
	OnCancel func() tea.Cmd

	CheckboxEnabled bool
	CheckboxChecked bool
	CheckboxFocused bool
	CheckboxLabel   string

	boxWidth int
}

// NewInputScreen returns a focused input prompt.
func NewInputScreen(prompt, placeholder, value string, thm *theme.Theme) *InputScreen {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	ti.Focus()
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(thm.TextFg)
	ti.Width = 52

	return &InputScreen{
		Prompt:   prompt,
		Input:    ti,
		Thm:      thm,
		boxWidth: 60,
	}
}

// SetCheckbox shows a checkbox below the input.
func (s *InputScreen) SetCheckbox(label string, checked bool) {
	s.CheckboxEnabled = true
	s.CheckboxLabel = label
	s.CheckboxChecked = checked
}

// Type returns TypeInput.
func (s *InputScreen) Type() Type {
	return TypeInput
}

// Update edits the value, toggles the checkbox and submits on enter.
func (s *InputScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyTab, keyShiftTab:
		if s.CheckboxEnabled {
			s.CheckboxFocused = !s.CheckboxFocused
			return s, nil
		}
	case " ":
		if s.CheckboxEnabled && s.CheckboxFocused {
			s.CheckboxChecked = !s.CheckboxChecked
			return s, nil
		}
	case keyEnter:
		value := s.Input.Value()
		if s.Validate != nil {
			if errMsg := strings.TrimSpace(s.Validate(value)); errMsg != "" {
				s.ErrorMsg = errMsg
				return s, nil
			}
		}
		s.ErrorMsg = ""
		if s.OnSubmit == nil {
			return nil, nil
		}
		return nil, s.OnSubmit(value, s.CheckboxChecked)
	case keyEsc, keyCtrlC:
		if s.OnCancel != nil {
			return nil, s.OnCancel()
		}
		return nil, nil
	}

	if s.CheckboxFocused {
		return s, nil
	}
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the prompt box.
func (s *InputScreen) View() string {
	width := s.boxWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.Accent).
		Padding(1, 2).
		Width(width)

	promptStyle := lipgloss.NewStyle().
		Foreground(s.Thm.Accent).
		Bold(true).
		Width(width - 6)

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(s.Thm.Border).
		Padding(0, 1).
		Width(width - 6)
	if s.CheckboxFocused {
		inputStyle = inputStyle.BorderForeground(s.Thm.BorderDim)
	}

	lines := []string{
		promptStyle.Render(s.Prompt),
		inputStyle.Render(s.Input.View()),
	}

	if s.CheckboxEnabled {
		box := "[ ] "
		if s.CheckboxChecked {
			box = "[x] "
		}
		st := lipgloss.NewStyle().Foreground(s.Thm.TextFg)
		if s.CheckboxFocused {
			st = st.Background(s.Thm.Accent).Foreground(s.Thm.AccentFg)
		}
		lines = append(lines, st.Render(box+s.CheckboxLabel))
	}

	if s.ErrorMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(s.Thm.ErrorFg).Render(s.ErrorMsg))
	}

	lines = append(lines, lipgloss.NewStyle().Foreground(s.Thm.MutedFg).Render("enter submit • esc cancel"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

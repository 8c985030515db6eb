package screen

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/theme"
)

// ConfirmScreen asks a yes/no question before a destructive action.
type ConfirmScreen struct {
	Message        string
	SelectedButton int // 0 = Confirm, 1 = Cancel
	Thm            *theme.Theme

	OnConfirm func() tea.Cmd
	OnCancel  func() tea.Cmd
}

// NewConfirmScreen returns a confirm screen focused on Cancel.
func NewConfirmScreen(message string, thm *theme.Theme) *ConfirmScreen {
	return &ConfirmScreen{
		Message:        message,
		SelectedButton: 1,
		Thm:            thm,
	}
}

// Type returns TypeConfirm.
func (s *ConfirmScreen) Type() Type {
	return TypeConfirm
}

// Update handles y/n, enter and button focus.
func (s *ConfirmScreen) Update(msg tea.KeyMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case keyTab, "right", "l":
		s.SelectedButton = (s.SelectedButton + 1) % 2
	case keyShiftTab, "left", "h":
		s.SelectedButton = (s.SelectedButton + 1) % 2
	case "y", "Y":
		return nil, s.confirm()
	case "n", "N", keyEsc, keyQ, keyCtrlC:
		return nil, s.cancel()
	case keyEnter:
		if s.SelectedButton == 0 {
			return nil, s.confirm()
		}
		return nil, s.cancel()
	}
	return s, nil
}

func (s *ConfirmScreen) confirm() tea.Cmd {
	if s.OnConfirm == nil {
		return nil
	}
	return s.OnConfirm()
}

func (s *ConfirmScreen) cancel() tea.Cmd {
	if s.OnCancel == nil {
		return nil
	}
	return s.OnCancel()
}

// View renders the dialog.
func (s *ConfirmScreen) View() string {
	const width = 56

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Thm.WarnFg).
		Padding(1, 2).
		Width(width)

	messageStyle := lipgloss.NewStyle().
		Width(width - 6).
		Align(lipgloss.Center).
		Foreground(s.Thm.TextFg)

	button := lipgloss.NewStyle().
		Width((width - 8) / 2).
		Align(lipgloss.Center)
	focused := button.
		Foreground(s.Thm.AccentFg).
		Background(s.Thm.Accent).
		Bold(true)
	unfocused := button.
		Foreground(s.Thm.MutedFg).
		Background(s.Thm.BorderDim)

	confirmStyle, cancelStyle := unfocused, focused
	if s.SelectedButton == 0 {
		confirmStyle, cancelStyle = focused.Background(s.Thm.ErrorFg), unfocused
	}

	return boxStyle.Render(fmt.Sprintf("%s\n\n%s  %s",
		messageStyle.Render(s.Message),
		confirmStyle.Render("[Yes]"),
		cancelStyle.Render("[No]"),
	))
}

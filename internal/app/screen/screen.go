// Package screen provides the modal overlays of the terminal UI.
package screen

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Screen is a modal overlay that handles keys and renders itself.
type Screen interface {
	// Update processes a key. Returning a nil Screen closes the overlay.
	Update(msg tea.KeyMsg) (Screen, tea.Cmd)
	View() string
	Type() Type
}

// Type identifies the kind of screen being displayed.
type Type int

// Screen types.
const (
	TypeNone Type = iota
	TypeConfirm
	TypeInput
)

// String returns a readable name for the screen type.
func (t Type) String() string {
	switch t {
	case TypeConfirm:
		return "confirm"
	case TypeInput:
		return "input"
	default:
		return "none"
	}
}

const (
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyQ        = "q"
	keyCtrlC    = "ctrl+c"
)

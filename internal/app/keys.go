package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Select   key.Binding
	Reload   key.Binding
	Stage    key.Binding
	Unstage  key.Binding
	Ignore   key.Binding
	Notice   key.Binding
	Commit   key.Binding
	New      key.Binding
	Delete   key.Binding
	Command  key.Binding
	Clear    key.Binding
	Help     key.Binding
	Quit     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		NextTab:  key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab", "prev tab")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "switch/apply/show")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Stage:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stage")),
		Unstage:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unstage")),
		Ignore:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ignore")),
		Notice:   key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "un-ignore")),
		Commit:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commit")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new branch/stash")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete/drop")),
		Command:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "git command")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close output")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ScrollUp: key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll output")),
		ScrollDn: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll output")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Select, k.Stage, k.Commit, k.Reload, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab, k.ScrollUp, k.ScrollDn},
		{k.Select, k.Stage, k.Unstage, k.Ignore, k.Notice, k.Commit},
		{k.New, k.Delete, k.Command, k.Reload},
		{k.Clear, k.Help, k.Quit},
	}
}

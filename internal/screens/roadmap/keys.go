package roadmap

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Start      key.Binding
	Pause      key.Binding
	Cancel     key.Binding
	Done       key.Binding
	Assessment key.Binding
	Refresh    key.Binding
	Back       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "Move")),
		Down:       key.NewBinding(key.WithKeys("down", "j")),
		Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Start")),
		Pause:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "Pause")),
		Cancel:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Discard")),
		Done:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "Done")),
		Assessment: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Assessment")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back")),
	}
}

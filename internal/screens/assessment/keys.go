package assessment

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Pick   key.Binding
	Submit key.Binding
	Retry  key.Binding
	Back   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←→", "Question")),
		Next:   key.NewBinding(key.WithKeys("right", "l")),
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("1-6/Enter", "Answer")),
		Pick:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6")),
		Submit: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Submit")),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Retry")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Close")),
	}
}

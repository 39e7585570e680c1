package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Browse     key.Binding
	Cancel     key.Binding
	PickHere   key.Binding
	Start      key.Binding
	Stop       key.Binding
	FocusPort  key.Binding
	Preview    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Browse:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "browse")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	PickHere:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "select current dir")),
	Start:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "start")),
	Stop:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop")),
	FocusPort:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "edit port")),
	Preview:    key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "toggle preview")),
	ScrollUp:   key.NewBinding(key.WithKeys("pgup", "up")),
	ScrollDown: key.NewBinding(key.WithKeys("pgdown", "down")),
}

package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Read      key.Binding
	Clipboard key.Binding
	Copy      key.Binding
	Pause     key.Binding
	Stop      key.Binding
	Wiki      key.Binding
	Cite      key.Binding
	Rules     key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Read:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "read")),
		Clipboard: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "read clipboard")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy text")),
		Pause:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "pause/resume")),
		Stop:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "stop")),
		Wiki:      key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "clean wiki text")),
		Cite:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "drop citations")),
		Rules:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "apply rules")),
		Faster:    key.NewBinding(key.WithKeys("ctrl+up"), key.WithHelp("ctrl+↑", "faster")),
		Slower:    key.NewBinding(key.WithKeys("ctrl+down"), key.WithHelp("ctrl+↓", "slower")),
		Help:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "help")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Read, k.Pause, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Read, k.Clipboard, k.Pause, k.Stop},
		{k.Wiki, k.Cite, k.Rules, k.Copy},
		{k.Faster, k.Slower, k.Help, k.Quit},
	}
}

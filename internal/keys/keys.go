// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the playground.
type KeyMap struct {
	// Overlays
	Settings  key.Binding
	Help      key.Binding
	Toast     key.Binding
	Condition key.Binding
	Route     key.Binding

	// General
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Settings: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "settings"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Toast: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toast"),
		),
		Condition: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle condition"),
		),
		Route: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "route change"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close topmost"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar, in display order.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Settings, k.Help, k.Toast, k.Condition, k.Route, k.Escape, k.Quit}
}

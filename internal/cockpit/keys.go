package cockpit

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the dashboard bindings. It satisfies help.KeyMap.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Worker actions
	Open    key.Binding
	Clear   key.Binding
	Refresh key.Binding

	// View
	AttentionOnly key.Binding
	ToggleExpand  key.Binding
	Help          key.Binding
	Quit          key.Binding

	// Clear confirmation
	Confirm key.Binding
	Cancel  key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:   bind("k/up", "up", "up", "k"),
		Down: bind("j/down", "down", "down", "j"),

		Open:    bind("enter", "open", "enter"),
		Clear:   bind("x", "clear", "x", "delete"),
		Refresh: bind("r", "refresh", "r"),

		AttentionOnly: bind("a", "attention only", "a"),
		ToggleExpand:  bind("tab", "expand/collapse", "tab"),
		Help:          bind("?", "help", "?"),
		Quit:          bind("q", "quit", "q", "ctrl+c"),

		Confirm: bind("y", "confirm", "y", "Y"),
		Cancel:  bind("n/esc", "cancel", "n", "N", "esc"),
	}
}

// ShortHelp is the footer line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Clear, k.AttentionOnly, k.Help, k.Quit}
}

// FullHelp is the expanded help, one column per group.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Open, k.Clear, k.Refresh},
		{k.AttentionOnly, k.ToggleExpand, k.Help, k.Quit},
	}
}

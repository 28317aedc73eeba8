package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	Top, Bottom           key.Binding
	Home, End             key.Binding
	PageUp, PageDown      key.Binding
	Enter, Escape         key.Binding
	Filter, ClearFilters  key.Binding
	Sort, Pin             key.Binding
	NextDiff, PrevDiff    key.Binding
	Save                  key.Binding
	Help, Quit            key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Top:          key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "first row")),
		Bottom:       key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "last row")),
		Home:         key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("0", "first column")),
		End:          key.NewBinding(key.WithKeys("end", "$"), key.WithHelp("$", "last column")),
		PageUp:       key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Enter:        key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Escape:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear focus")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter column")),
		ClearFilters: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		Pin:          key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin column")),
		NextDiff:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev change")),
		PrevDiff:     key.NewBinding(key.WithKeys("N")),
		Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save edits")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Sort, k.Pin, k.NextDiff, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Top, k.Bottom, k.Home, k.End, k.PageUp, k.PageDown},
		{k.Filter, k.ClearFilters, k.Sort, k.Pin},
		{k.NextDiff, k.Enter, k.Escape, k.Save, k.Quit},
	}
}

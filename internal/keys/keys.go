package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the notification client.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Open the detail of the focused notification
	Open key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	Search  key.Binding
	Command key.Binding
	Help    key.Binding

	// Refresh reloads the summary and the list.
	Refresh key.Binding

	// Selection
	ToggleSelect   key.Binding
	SelectVisible  key.Binding
	ClearSelection key.Binding

	// Actions on the selection, or the focused row when nothing is selected
	MarkRead    key.Binding
	MarkUnread  key.Binding
	Delete      key.Binding
	MarkAllRead key.Binding
	Menu        key.Binding

	// Sort controls
	SortDate  key.Binding
	SortType  key.Binding
	SortTitle key.Binding

	// Filter cycles
	CycleType   key.Binding
	CycleRead   key.Binding
	CyclePeriod key.Binding
	ResetFilter key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleSelect: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectVisible: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "select visible"),
		),
		ClearSelection: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "mark unread"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Menu: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "actions menu"),
		),
		SortDate: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "sort by date"),
		),
		SortType: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "sort by type"),
		),
		SortTitle: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "sort by title"),
		),
		CycleType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle type"),
		),
		CycleRead: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle read status"),
		),
		CyclePeriod: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle period"),
		),
		ResetFilter: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset filters"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.ToggleSelect, k.MarkRead,
		k.Delete, k.Menu, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back, k.Quit},
		{k.ToggleSelect, k.SelectVisible, k.ClearSelection, k.Menu},
		{k.MarkRead, k.MarkUnread, k.Delete, k.MarkAllRead},
		{k.SortDate, k.SortType, k.SortTitle},
		{k.CycleType, k.CycleRead, k.CyclePeriod, k.ResetFilter},
		{k.Search, k.Command, k.Refresh, k.Help},
	}
}

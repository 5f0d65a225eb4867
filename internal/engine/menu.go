package engine

// MenuOption is an entry of the per-notification context menu.
type MenuOption string

const (
	OptionMarkRead   MenuOption = "mark_read"
	OptionMarkUnread MenuOption = "mark_unread"
	OptionDelete     MenuOption = "delete"
)

// Label is the text shown for the option.
func (o MenuOption) Label() string {
	switch o {
	case OptionMarkRead:
		return "Mark as read"
	case OptionMarkUnread:
		return "Mark as unread"
	case OptionDelete:
		return "Delete"
	}
	return string(o)
}

func (o MenuOption) action() Action {
	switch o {
	case OptionMarkRead:
		return ActionMarkRead
	case OptionMarkUnread:
		return ActionMarkUnread
	default:
		return ActionDelete
	}
}

// Intent is a menu choice ready to be dispatched as a mutation.
type Intent struct {
	Action Action
	IDs    []string
}

// MenuState is closed when ID is empty.
type MenuState struct {
	ID      string
	Options []MenuOption
}

func (s MenuState) Open() bool { return s.ID != "" }

// ContextMenu holds the single menu that may be open at any time.
type ContextMenu struct {
	state MenuState
}

// Open shows the menu for id, closing any other one first. read is the
// target's current read flag and picks the mark option offered.
func (c *ContextMenu) Open(id string, read bool) []MenuOption {
	c.Close()
	opts := []MenuOption{OptionMarkRead, OptionDelete}
	if read {
		opts[0] = OptionMarkUnread
	}
	c.state = MenuState{ID: id, Options: opts}
	return opts
}

func (c *ContextMenu) State() MenuState { return c.state }

// IsOpen reports whether the menu is open for id.
func (c *ContextMenu) IsOpen(id string) bool { return c.state.ID != "" && c.state.ID == id }

// Choose closes the menu and returns the intent for opt. It returns
// false when no menu is open or opt is not offered; the menu is closed
// either way.
func (c *ContextMenu) Choose(opt MenuOption) (Intent, bool) {
	st := c.state
	c.Close()
	if !st.Open() {
		return Intent{}, false
	}
	for _, o := range st.Options {
		if o == opt {
			return Intent{Action: opt.action(), IDs: []string{st.ID}}, true
		}
	}
	return Intent{}, false
}

// ClickOutside closes the menu without side effects.
func (c *ContextMenu) ClickOutside() { c.Close() }

// Cancel closes the menu without side effects.
func (c *ContextMenu) Cancel() { c.Close() }

func (c *ContextMenu) Close() { c.state = MenuState{} }

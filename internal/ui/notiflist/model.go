package notiflist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/keys"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/theme"
)

// OpenMsg asks the parent to show the detail of a notification.
type OpenMsg struct {
	ID string
}

// RequestMsg carries a validated request, confirmed when it had to be,
// ready for Engine.Begin.
type RequestMsg struct {
	Request engine.Request
}

// ErrorMsg carries a rejected dispatch for the status bar.
type ErrorMsg struct {
	Err error
}

// StatusMsg is transient feedback for the status bar.
type StatusMsg struct {
	Text string
}

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeMenu
	modeConfirm
)

// Filter cycles, in key press order.
var (
	typeCycle = []string{
		engine.TypeAll,
		string(model.TypeAlert),
		string(model.TypeInfo),
		string(model.TypeSuccess),
		string(model.TypeWarning),
	}
	readCycle   = []engine.ReadStatus{engine.ReadAll, engine.ReadUnread, engine.ReadRead}
	periodCycle = []engine.Period{engine.PeriodAll, engine.PeriodToday, engine.PeriodWeek, engine.PeriodMonth}
)

// Model is the notification list view. It renders the engine's visible
// set and turns keys into engine calls; mutations it validates are
// handed to the parent as RequestMsg.
type Model struct {
	engine      *engine.Engine
	list        list.Model
	keys        *keys.KeyMap
	mode        mode
	searchInput textinput.Model
	menuCursor  int

	confirm   *huh.Form
	confirmed *bool
	pending   engine.Request

	width, height int
}

// New creates a list view over e.
func New(e *engine.Engine, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, listHeight(height))
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("notification", "notifications")
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title, description, vehicle..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		engine:      e,
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// listHeight leaves room for the sort bar and the bulk or search line.
func listHeight(h int) int {
	if h < 3 {
		return 0
	}
	return h - 2
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Sync rebuilds the rows from the engine, keeping the cursor on the
// same notification when it is still visible.
func (m *Model) Sync() {
	focused := m.FocusedID()
	prev := m.list.Index()

	sel := m.engine.Selection()
	visible := m.engine.Visible()
	items := make([]list.Item, len(visible))
	idx := -1
	for i, n := range visible {
		items[i] = Item{
			Notification: n,
			Selected:     sel.Has(n.ID),
			Busy:         m.engine.Busy(n.ID),
		}
		if n.ID == focused {
			idx = i
		}
	}
	m.list.SetItems(items)

	switch {
	case len(items) == 0:
	case idx >= 0:
		m.list.Select(idx)
	default:
		m.list.Select(min(prev, len(items)-1))
	}

	if m.mode == modeMenu && !m.engine.Menu().Open() {
		m.mode = modeNormal
	}
}

// FocusedID returns the id of the row under the cursor, or "".
func (m Model) FocusedID() string {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return ""
	}
	return it.ID
}

// Capturing reports whether the view consumes every key itself, so the
// parent must not treat them as global shortcuts.
func (m Model) Capturing() bool {
	return m.mode != modeNormal
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeConfirm {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.mode {
		case modeSearch:
			return m.handleSearchKeys(msg)
		case modeMenu:
			return m.handleMenuKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	e := m.engine

	switch {
	case key.Matches(msg, m.keys.Open):
		id := m.FocusedID()
		if id == "" {
			return m, nil
		}
		return m, emit(OpenMsg{ID: id})

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.SetValue(e.Filter().Search)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.ToggleSelect):
		if id := m.FocusedID(); id != "" {
			e.ToggleSelect(id)
			m.Sync()
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectVisible):
		e.SelectVisible()
		m.Sync()
		return m, nil

	case key.Matches(msg, m.keys.ClearSelection):
		e.ClearSelection()
		m.Sync()
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		cmd := m.act(engine.ActionMarkRead)
		return m, cmd

	case key.Matches(msg, m.keys.MarkUnread):
		cmd := m.act(engine.ActionMarkUnread)
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		cmd := m.act(engine.ActionDelete)
		return m, cmd

	case key.Matches(msg, m.keys.MarkAllRead):
		cmd := m.handle(e.MarkAllRead())
		return m, cmd

	case key.Matches(msg, m.keys.Menu):
		if _, err := e.OpenMenu(m.FocusedID()); err != nil {
			return m, emit(ErrorMsg{Err: err})
		}
		m.mode = modeMenu
		m.menuCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.SortDate):
		e.ToggleSort(engine.ControlDate)
	case key.Matches(msg, m.keys.SortType):
		e.ToggleSort(engine.ControlType)
	case key.Matches(msg, m.keys.SortTitle):
		e.ToggleSort(engine.ControlTitle)

	case key.Matches(msg, m.keys.CycleType):
		e.SetTypeFilter(next(typeCycle, e.Filter().Type))
	case key.Matches(msg, m.keys.CycleRead):
		e.SetReadStatus(next(readCycle, e.Filter().ReadStatus))
	case key.Matches(msg, m.keys.CyclePeriod):
		e.SetPeriod(next(periodCycle, e.Filter().Period))
	case key.Matches(msg, m.keys.ResetFilter):
		e.ResetFilter()
		m.searchInput.Reset()

	default:
		// Delegate to the list for navigation keys (up/down/pgup/pgdn)
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	m.Sync()
	return m, nil
}

// handleSearchKeys filters as the user types; enter keeps the term and
// esc clears it.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeNormal
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.engine.SetSearch("")
		m.Sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.engine.SetSearch(m.searchInput.Value())
	m.Sync()
	return m, cmd
}

// handleMenuKeys drives the open context menu. Any key that is not
// menu navigation closes it, like a click outside.
func (m Model) handleMenuKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	state := m.engine.Menu()
	if !state.Open() || len(state.Options) == 0 {
		m.mode = modeNormal
		return m.handleNormalKeys(msg)
	}
	opts := state.Options

	switch {
	case key.Matches(msg, m.keys.Down):
		m.menuCursor = (m.menuCursor + 1) % len(opts)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.menuCursor = (m.menuCursor - 1 + len(opts)) % len(opts)
		return m, nil

	case key.Matches(msg, m.keys.Open):
		opt := opts[min(m.menuCursor, len(opts)-1)]
		m.mode = modeNormal
		cmd := m.handle(m.engine.ChooseMenu(opt))
		return m, cmd
	}

	m.engine.CloseMenu()
	m.mode = modeNormal
	return m, nil
}

// act runs action on the selection, or on the focused row when nothing
// is selected.
func (m *Model) act(action engine.Action) tea.Cmd {
	if m.engine.Selection().BulkVisible() {
		return m.handle(m.engine.DispatchSelection(action))
	}
	var ids []string
	if id := m.FocusedID(); id != "" {
		ids = []string{id}
	}
	return m.Dispatch(action, ids)
}

// Dispatch validates action on ids. Deletes open the confirmation
// first; everything else goes straight to the parent.
func (m *Model) Dispatch(action engine.Action, ids []string) tea.Cmd {
	return m.handle(m.engine.Dispatch(action, ids))
}

func (m *Model) handle(req engine.Request, err error) tea.Cmd {
	if err != nil {
		return emit(ErrorMsg{Err: err})
	}
	if req.NeedsConfirm {
		return m.openConfirm(req)
	}
	return emit(RequestMsg{Request: req})
}

func (m *Model) openConfirm(req engine.Request) tea.Cmd {
	// The form writes through this pointer; Model is copied on every update.
	answer := false
	m.confirmed = &answer
	m.pending = req

	desc := req.Prompt.Message
	if req.Prompt.Warning != "" {
		desc += "\n" + req.Prompt.Warning
	}

	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(req.Prompt.Title).
				Description(desc).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)

	m.mode = modeConfirm
	return m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirm == nil {
		m.mode = modeNormal
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
		return m.closeConfirm(false)
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		return m.closeConfirm(*m.confirmed)
	case huh.StateAborted:
		return m.closeConfirm(false)
	}
	return m, cmd
}

func (m Model) closeConfirm(accepted bool) (Model, tea.Cmd) {
	req := m.pending
	m.mode = modeNormal
	m.confirm = nil
	m.confirmed = nil
	m.pending = engine.Request{}

	if !accepted {
		return m, emit(StatusMsg{Text: "Delete cancelled."})
	}
	return m, emit(RequestMsg{Request: req})
}

func (m Model) formWidth() int {
	return max(min(m.width-4, 60), 20)
}

// View renders the list view.
func (m Model) View() string {
	if m.mode == modeConfirm && m.confirm != nil {
		return theme.DetailPanelStyle.
			Width(m.formWidth() + 4).
			Render(m.confirm.View())
	}

	second := m.renderBulkBar()
	if m.mode == modeSearch {
		second = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else if menu := m.renderMenu(); menu != "" {
		l := m.list
		l.SetSize(m.width, max(listHeight(m.height)-lipgloss.Height(menu), 1))
		body = lipgloss.JoinVertical(lipgloss.Left, l.View(), menu)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderSortBar(), second, body)
}

// renderSortBar shows the sort controls with their direction glyph and
// the active filters.
func (m Model) renderSortBar() string {
	s := m.engine.Sort()
	control := func(name string, c engine.SortControl) string {
		if g := s.Glyph(c); g != "" {
			return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(name + " " + g)
		}
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Render(name)
	}

	parts := []string{
		control("Date", engine.ControlDate),
		control("Type", engine.ControlType),
		control("Title", engine.ControlTitle),
	}

	f := m.engine.Filter()
	var active []string
	if f.Type != "" && f.Type != engine.TypeAll {
		active = append(active, "type:"+strings.ToLower(f.Type))
	}
	if f.ReadStatus != "" && f.ReadStatus != engine.ReadAll {
		active = append(active, string(f.ReadStatus))
	}
	if f.Period != "" && f.Period != engine.PeriodAll {
		active = append(active, string(f.Period))
	}
	if strings.TrimSpace(f.Search) != "" && m.mode != modeSearch {
		active = append(active, fmt.Sprintf("%q", f.Search))
	}

	line := " " + strings.Join(parts, "  ")
	if len(active) > 0 {
		line += theme.HelpStyle.Render("   filters: " + strings.Join(active, ", "))
	}
	return line
}

func (m Model) renderBulkBar() string {
	sel := m.engine.Selection()
	if !sel.BulkVisible() {
		return ""
	}
	return theme.BulkBarStyle.Render(fmt.Sprintf(
		"%d selected · m read · u unread · d delete · x clear", sel.Size(),
	))
}

func (m Model) renderMenu() string {
	if m.mode != modeMenu {
		return ""
	}
	state := m.engine.Menu()
	if !state.Open() {
		return ""
	}

	title := state.ID
	if n, ok := m.engine.Get(state.ID); ok {
		title = truncate(n.Title, 40)
	}

	lines := []string{theme.HelpStyle.Render(title)}
	for i, opt := range state.Options {
		if i == m.menuCursor {
			lines = append(lines, theme.MenuCursorStyle.Render("› "+opt.Label()))
			continue
		}
		lines = append(lines, "  "+opt.Label())
	}
	return theme.MenuStyle.Render(strings.Join(lines, "\n"))
}

// renderEmptyState shows guidance text when no notification is visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(listHeight(m.height)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.engine.Filter().IsDefault() {
		return style.Render("No matching notifications.\nPress 0 to reset the filters.")
	}
	return style.Render("No notifications.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height))
	m.searchInput.Width = width - 4
	if m.confirm != nil {
		m.confirm = m.confirm.WithWidth(m.formWidth())
	}
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// next returns the entry after cur in cycle, wrapping around. Unknown
// values restart the cycle.
func next[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// MarkAllRead dispatches a mark-read of every unread notification.
func (m *Model) MarkAllRead() tea.Cmd {
	return m.handle(m.engine.MarkAllRead())
}

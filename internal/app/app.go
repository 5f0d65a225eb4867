// Package app is the root Bubble Tea model of the notification client.
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/keys"
	"github.com/nhle/fleet-notify/internal/remote"
	appsync "github.com/nhle/fleet-notify/internal/sync"
	"github.com/nhle/fleet-notify/internal/ui"
	"github.com/nhle/fleet-notify/internal/ui/command"
	"github.com/nhle/fleet-notify/internal/ui/detail"
	helpview "github.com/nhle/fleet-notify/internal/ui/help"
	"github.com/nhle/fleet-notify/internal/ui/notiflist"
)

// mutationDoneMsg carries the answer to a mutation's remote call back
// to the update loop.
type mutationDoneMsg struct {
	mutation *engine.Mutation
	outcome  engine.Outcome
}

// refreshDoneMsg carries a fetched summary back to the update loop.
type refreshDoneMsg struct {
	outcome engine.RefreshOutcome
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
)

const defaultTimeout = 15 * time.Second

// Option configures the root model.
type Option func(*Model)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// WithTimeout bounds every remote call issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// Model is the root Bubble Tea model. It owns view routing and runs the
// engine's remote calls as commands, feeding their answers back in.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	engine       *engine.Engine
	remote       remote.Store
	keys         *keys.KeyMap
	list         notiflist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	poller       *appsync.Poller
	log          zerolog.Logger
	timeout      time.Duration
	ready        bool

	// status is the last feedback line; statusErr draws it as an error.
	status    string
	statusErr bool
}

// New creates the root model over e, talking to r. p schedules the
// periodic summary reloads.
func New(e *engine.Engine, r remote.Store, p *appsync.Poller, opts ...Option) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewList,
		engine:      e,
		remote:      r,
		keys:        k,
		list:        notiflist.New(e, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		poller:      p,
		log:         zerolog.Nop(),
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.list.Sync()
	return m
}

// Init loads the list and starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.reload(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.list.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.PollMsg:
		return m, tea.Batch(m.reload(), m.poller.WaitForNext())

	case refreshDoneMsg:
		m.applyRefresh(msg.outcome)
		return m, nil

	case mutationDoneMsg:
		cmd := m.resolve(msg.mutation, msg.outcome)
		return m, cmd

	case notiflist.RequestMsg:
		cmd := m.begin(msg.Request)
		return m, cmd

	case notiflist.ErrorMsg:
		m.setError(msg.Err)
		return m, nil

	case notiflist.StatusMsg:
		m.setStatus(msg.Text)
		return m, nil

	case notiflist.OpenMsg:
		n, ok := m.engine.Get(msg.ID)
		if !ok {
			return m, nil
		}
		m.detail.SetNotification(n)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		if msg.Action == engine.ActionDelete {
			// The confirmation lives in the list view.
			m.currentView = ViewList
		}
		cmd := m.list.Dispatch(msg.Action, []string{msg.ID})
		return m, cmd

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(command.Command(msg))
		return m, cmd

	case command.ErrorMsg:
		m.currentView = m.previousView
		m.setError(msg.Err)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			cmd := m.quit()
			return m, cmd
		}
		if m.capturing() {
			break
		}

		// Any key is a new action: the last feedback line goes away.
		m.clearStatus()

		switch msg.String() {
		case "q":
			if m.currentView == ViewList {
				cmd := m.quit()
				return m, cmd
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case "r":
			if m.currentView == ViewList {
				m.poller.Trigger()
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturing reports whether the active view owns the keyboard.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewCommand:
		return true
	case ViewList:
		return m.list.Capturing()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// begin applies req optimistically and returns the command carrying its
// remote call.
func (m *Model) begin(req engine.Request) tea.Cmd {
	mut, err := m.engine.Begin(req)
	if err != nil {
		m.setError(err)
		m.list.Sync()
		return nil
	}
	m.list.Sync()
	m.syncDetail()

	store, timeout := m.remote, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationDoneMsg{mutation: mut, outcome: mut.Run(ctx, store)}
	}
}

// resolve settles a mutation and chains the stats refresh it issued.
func (m *Model) resolve(mut *engine.Mutation, out engine.Outcome) tea.Cmd {
	res := m.engine.Resolve(mut, out)
	m.list.Sync()
	m.syncDetail()

	switch {
	case res.Err != nil:
		m.setError(res.Err)
	case res.Missing > 0:
		m.setStatus(fmt.Sprintf("%d notification(s) no longer existed.", res.Missing))
	case res.Phase == engine.PhaseCommitted:
		m.setStatus(doneText(res))
	}

	if res.Refresh == nil {
		return nil
	}
	return m.runRefresh(*res.Refresh)
}

func doneText(res engine.Resolution) string {
	n := len(res.IDs)
	switch res.Action {
	case engine.ActionMarkRead:
		return fmt.Sprintf("Marked %d as read.", n)
	case engine.ActionMarkUnread:
		return fmt.Sprintf("Marked %d as unread.", n)
	case engine.ActionDelete:
		return fmt.Sprintf("Deleted %d.", n)
	case engine.ActionMarkAllRead:
		return "Every notification is read."
	}
	return ""
}

// reload issues a summary fetch that also replaces the list.
func (m *Model) reload() tea.Cmd {
	m.poller.Begin()
	return m.runRefresh(m.engine.Refresh(true))
}

func (m *Model) runRefresh(r engine.Refresh) tea.Cmd {
	store, timeout := m.remote, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return refreshDoneMsg{outcome: r.Run(ctx, store)}
	}
}

func (m *Model) applyRefresh(out engine.RefreshOutcome) {
	applied := m.engine.ApplyRefresh(out)
	if out.Reload {
		m.poller.Done(out.Err)
		if out.Err != nil {
			m.log.Warn().Err(out.Err).Uint64("seq", out.Seq).Msg("summary reload failed")
			m.setError(engine.Classify(out.Err))
		}
	}
	if applied {
		m.list.Sync()
		m.syncDetail()
	}
}

// syncDetail re-renders the open detail, or leaves it when its
// notification is gone.
func (m *Model) syncDetail() {
	if m.currentView != ViewDetail {
		return
	}
	n, ok := m.engine.Get(m.detail.ID())
	if !m.detail.Refresh(n, ok) {
		m.currentView = ViewList
		m.setStatus("This notification no longer exists.")
	}
}

// executeCommand runs a parsed palette command.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	e := m.engine

	switch c.Verb {
	case command.VerbRefresh:
		return m.reload()
	case command.VerbQuit:
		return m.quit()
	case command.VerbMarkAllRead:
		return m.list.MarkAllRead()
	case command.VerbFilter:
		e.SetReadStatus(engine.ReadStatus(c.Arg))
	case command.VerbPeriod:
		e.SetPeriod(engine.Period(c.Arg))
	case command.VerbType:
		if c.Arg == engine.TypeAll {
			e.SetTypeFilter(engine.TypeAll)
		} else {
			e.SetTypeFilter(cases.Title(language.English).String(c.Arg))
		}
	case command.VerbSort:
		switch c.Arg {
		case "date":
			e.ToggleSort(engine.ControlDate)
		case "type":
			e.ToggleSort(engine.ControlType)
		default:
			e.ToggleSort(engine.ControlTitle)
		}
	case command.VerbSearch:
		e.SetSearch(c.Arg)
	case command.VerbClear:
		e.ResetFilter()
		e.ClearSelection()
	}

	m.list.Sync()
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.poller.Stop()
	m.engine.Close()
	return tea.Quit
}

func (m *Model) setError(err error) {
	m.status = engine.DisplayMessage(err)
	if k := engine.KindOf(err); k == "" {
		m.status = err.Error()
	}
	m.statusErr = true
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	stats := m.engine.Stats()
	headerTitle := "Fleet Notifications"
	if stats.Unread > 0 {
		headerTitle = fmt.Sprintf("Fleet Notifications [%d unread]", stats.Unread)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	statsLine := m.layout.RenderStats(stats)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.status, m.statusErr)

	return m.layout.RenderWithFrame(header, statsLine, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the last summary reload.
func (m Model) syncStatus() string {
	st := m.poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "refreshing…"
	case appsync.SyncError:
		return "⚠ offline"
	}
	if st.LastSync.IsZero() {
		return ""
	}
	return "updated " + st.LastSync.Format("15:04")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | m read | u unread | d delete | j/k scroll"
	default:
		if n := m.engine.Selection().Size(); n > 0 {
			return fmt.Sprintf("%d selected | m read | u unread | d delete | x clear", n)
		}
		return "q quit | ? help | space select | . actions | / search | D/T/A sort | r refresh"
	}
}

package app

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
	appsync "github.com/nhle/fleet-notify/internal/sync"
	"github.com/nhle/fleet-notify/internal/ui/command"
	"github.com/nhle/fleet-notify/internal/ui/detail"
	"github.com/nhle/fleet-notify/internal/ui/notiflist"
	"github.com/nhle/fleet-notify/tests/testutil"
)

var now = time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)

func fleetSummary() *model.Summary {
	return &model.Summary{
		UnreadCount: 1,
		TotalCount:  3,
		TodayCount:  1,
		AlertsCount: 1,
		Notifications: []model.Notification{
			{ID: "a", Title: "Brake pads worn", Type: model.TypeAlert, CreatedAt: "30min"},
			{ID: "b", Title: "Oil change scheduled", Type: model.TypeInfo, Read: true, CreatedAt: "Hier"},
			{ID: "c", Title: "Inspection passed", Type: model.TypeSuccess, Read: true, CreatedAt: "15/05/2025"},
		},
	}
}

func newTestApp(t *testing.T) (Model, *testutil.FakeRemote, *engine.Engine) {
	t.Helper()

	fake := testutil.NewFakeRemote()
	fake.QueueSummary(fleetSummary())
	e := engine.New(engine.WithClock(testutil.FixedClock(now)))
	p := appsync.New(time.Hour)
	t.Cleanup(p.Stop)

	m := New(e, fake, p)
	m = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	cmd := m.reload()
	m = drive(t, m, cmd())
	require.Equal(t, 3, e.Len())
	return m, fake, e
}

// drive feeds msg to the model and keeps feeding the message each
// returned command produces until none is left.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for i := 0; msg != nil; i++ {
		require.Less(t, i, 20, "update loop does not settle")
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReload_HydratesAndSetsStats(t *testing.T) {
	m, fake, e := newTestApp(t)

	assert.Len(t, fake.CallsTo("fetchSummary"), 1)
	stats := e.Stats()
	assert.True(t, stats.Authoritative)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, appsync.SyncIdle, m.poller.Status().State)

	view := m.View()
	assert.Contains(t, view, "Fleet Notifications [1 unread]")
	assert.Contains(t, view, "Brake pads worn")
}

func TestReload_Failure(t *testing.T) {
	m, fake, _ := newTestApp(t)
	fake.Fail("fetchSummary", &remote.NetworkError{Op: "summary", Err: errors.New("connection refused")})

	cmd := m.reload()
	m = drive(t, m, cmd())

	assert.Equal(t, appsync.SyncError, m.poller.Status().State)
	assert.True(t, m.statusErr)
	assert.Equal(t, "Network error, check your connection and try again.", m.status)
	assert.Contains(t, m.View(), "offline")
}

func TestMarkRead_FocusedRow(t *testing.T) {
	m, fake, e := newTestApp(t)

	m = drive(t, m, press("m"))

	calls := fake.CallsTo("markRead")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a"}, calls[0].IDs)

	n, _ := e.Get("a")
	assert.True(t, n.Read)
	assert.Equal(t, "Marked 1 as read.", m.status)
	assert.False(t, m.statusErr)
	assert.Len(t, fake.CallsTo("fetchSummary"), 2, "a refresh follows the commit")
}

func TestMarkRead_RollbackShowsError(t *testing.T) {
	m, fake, e := newTestApp(t)
	fake.Fail("markRead", &remote.ServerError{Op: "mark-read", Status: 500, Message: "Database locked"})

	m = drive(t, m, press("m"))

	n, _ := e.Get("a")
	assert.False(t, n.Read, "optimistic change rolled back")
	assert.True(t, m.statusErr)
	assert.Equal(t, "Database locked", m.status)
}

func TestDelete_ConfirmThenCancel(t *testing.T) {
	m, fake, e := newTestApp(t)

	m = drive(t, m, press(" "))
	require.True(t, e.Selection().Has("a"))

	next, _ := m.Update(press("d"))
	m = next.(Model)
	require.True(t, m.capturing(), "confirmation owns the keyboard")

	next, _ = m.Update(press("q"))
	m = next.(Model)
	assert.True(t, m.capturing(), "q does not quit while the prompt is open")

	m = drive(t, m, press("esc"))
	assert.False(t, m.capturing())
	assert.Equal(t, "Delete cancelled.", m.status)
	assert.Empty(t, fake.CallsTo("delete"))
	assert.Equal(t, 3, e.Len())
}

func TestDelete_Confirmed(t *testing.T) {
	m, fake, e := newTestApp(t)

	req, err := e.Dispatch(engine.ActionDelete, []string{"b"})
	require.NoError(t, err)
	m = drive(t, m, notiflist.RequestMsg{Request: req})

	assert.Equal(t, []string{"b"}, fake.CallsTo("delete")[0].IDs)
	_, ok := e.Get("b")
	assert.False(t, ok)
	assert.Equal(t, "Deleted 1.", m.status)
}

func TestDetail(t *testing.T) {
	m, fake, e := newTestApp(t)

	m = drive(t, m, press("enter"))
	require.Equal(t, ViewDetail, m.currentView)
	assert.Equal(t, "a", m.detail.ID())
	n, _ := e.Get("a")
	assert.False(t, n.Read, "opening does not mark read")

	m = drive(t, m, detail.ActionMsg{Action: engine.ActionMarkRead, ID: "a"})
	assert.Equal(t, ViewDetail, m.currentView)
	assert.Len(t, fake.CallsTo("markRead"), 1)

	m = drive(t, m, press("esc"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestCommands(t *testing.T) {
	m, fake, e := newTestApp(t)

	m = drive(t, m, command.CommandMsg{Verb: command.VerbFilter, Arg: "read"})
	assert.Equal(t, engine.ReadRead, e.Filter().ReadStatus)

	m = drive(t, m, command.CommandMsg{Verb: command.VerbType, Arg: "info"})
	assert.Equal(t, "Info", e.Filter().Type)
	assert.Len(t, e.Visible(), 1)

	m = drive(t, m, command.CommandMsg{Verb: command.VerbClear})
	assert.True(t, e.Filter().IsDefault())

	m = drive(t, m, command.CommandMsg{Verb: command.VerbMarkAllRead})
	assert.Len(t, fake.CallsTo("markAllRead"), 1)

	m = drive(t, m, command.ErrorMsg{Err: errors.New("unknown command \"x\"")})
	assert.True(t, m.statusErr)
	assert.Equal(t, "unknown command \"x\"", m.status)
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = drive(t, m, press("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Notification Shortcuts")

	m = drive(t, m, press("?"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestQuit_ClosesEngine(t *testing.T) {
	m, _, e := newTestApp(t)

	_, cmd := m.Update(press("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, err := e.Dispatch(engine.ActionMarkRead, []string{"a"})
	assert.True(t, engine.IsClosedErr(err))
}

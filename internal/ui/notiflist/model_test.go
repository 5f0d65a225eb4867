package notiflist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/keys"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/tests/testutil"
)

var now = time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)

func newTestList(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.WithClock(testutil.FixedClock(now)))
	e.Hydrate([]model.Notification{
		{ID: "a", Title: "Brake pads worn", Type: model.TypeAlert, CreatedAt: "30min", RelatedTo: "Truck 12"},
		{ID: "b", Title: "Oil change scheduled", Type: model.TypeInfo, Read: true, CreatedAt: "Hier"},
		{ID: "c", Title: "Inspection passed", Type: model.TypeSuccess, Read: true, CreatedAt: "15/05/2025"},
	})
	t.Cleanup(e.Close)

	m := New(e, keys.DefaultKeyMap(), 100, 20)
	m.Sync()
	return m, e
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowIDs(m Model) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(Item).ID)
	}
	return out
}

func TestSync_FollowsEngineOrder(t *testing.T) {
	m, _ := newTestList(t)
	assert.Equal(t, []string{"a", "b", "c"}, rowIDs(m))
	assert.Equal(t, "a", m.FocusedID())

	m, _ = m.Update(press("D"))
	assert.Equal(t, []string{"c", "b", "a"}, rowIDs(m))
	assert.Equal(t, "a", m.FocusedID(), "cursor stays on the same notification")
	assert.Contains(t, m.View(), "Date "+engine.GlyphDown)
}

func TestSelection_BulkBar(t *testing.T) {
	m, e := newTestList(t)

	m, _ = m.Update(press(" "))
	assert.True(t, e.Selection().Has("a"))
	assert.True(t, m.list.Items()[0].(Item).Selected)
	assert.Contains(t, m.View(), "1 selected")

	m, _ = m.Update(press("x"))
	assert.Zero(t, e.Selection().Size())
	assert.NotContains(t, m.View(), "selected ·")
}

func TestAct_FocusedRowWithoutSelection(t *testing.T) {
	m, _ := newTestList(t)

	_, cmd := m.Update(press("m"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(RequestMsg)
	require.True(t, ok)
	assert.Equal(t, engine.ActionMarkRead, msg.Request.Action)
	assert.Equal(t, []string{"a"}, msg.Request.IDs)
}

func TestAct_EmptyListIsValidationError(t *testing.T) {
	e := engine.New(engine.WithClock(testutil.FixedClock(now)))
	m := New(e, keys.DefaultKeyMap(), 100, 20)
	m.Sync()

	_, cmd := m.Update(press("m"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(ErrorMsg)
	require.True(t, ok)
	assert.True(t, engine.IsValidation(msg.Err))
	assert.Contains(t, m.View(), "No notifications.")
}

func TestDelete_OpensConfirmation(t *testing.T) {
	m, _ := newTestList(t)

	m, _ = m.Update(press("d"))
	assert.True(t, m.Capturing())
	assert.Contains(t, m.View(), "Delete notification")

	m, cmd := m.Update(press("esc"))
	assert.False(t, m.Capturing())
	require.NotNil(t, cmd)
	assert.Equal(t, StatusMsg{Text: "Delete cancelled."}, cmd())
}

func TestMenu(t *testing.T) {
	t.Run("choose mark read", func(t *testing.T) {
		m, e := newTestList(t)

		m, _ = m.Update(press("."))
		require.True(t, e.Menu().Open())
		assert.True(t, m.Capturing())
		assert.Contains(t, m.View(), "Mark as read")

		m, cmd := m.Update(press("enter"))
		assert.False(t, e.Menu().Open())
		assert.False(t, m.Capturing())
		require.NotNil(t, cmd)
		msg, ok := cmd().(RequestMsg)
		require.True(t, ok)
		assert.Equal(t, engine.ActionMarkRead, msg.Request.Action)
	})

	t.Run("delete asks first", func(t *testing.T) {
		m, _ := newTestList(t)

		m, _ = m.Update(press("."))
		m, _ = m.Update(press("down"))
		m, _ = m.Update(press("enter"))
		assert.True(t, m.Capturing(), "confirmation is showing")
		assert.Equal(t, engine.ActionDelete, m.pending.Action)
	})

	t.Run("other key closes", func(t *testing.T) {
		m, e := newTestList(t)

		m, _ = m.Update(press("."))
		m, cmd := m.Update(press("z"))
		assert.Nil(t, cmd)
		assert.False(t, e.Menu().Open())
		assert.False(t, m.Capturing())
	})
}

func TestSearch(t *testing.T) {
	m, e := newTestList(t)

	m, _ = m.Update(press("/"))
	assert.True(t, m.Capturing())
	for _, r := range "oil" {
		m, _ = m.Update(press(string(r)))
	}
	assert.Equal(t, "oil", e.Filter().Search)
	assert.Equal(t, []string{"b"}, rowIDs(m))

	m, _ = m.Update(press("esc"))
	assert.False(t, m.Capturing())
	assert.Empty(t, e.Filter().Search)
	assert.Len(t, rowIDs(m), 3)
}

func TestFilterCycles(t *testing.T) {
	m, e := newTestList(t)

	m, _ = m.Update(press("f"))
	assert.Equal(t, engine.ReadUnread, e.Filter().ReadStatus)
	assert.Equal(t, []string{"a"}, rowIDs(m))

	m, _ = m.Update(press("t"))
	assert.Equal(t, "Alert", e.Filter().Type)
	assert.Contains(t, m.View(), "type:alert")

	m, _ = m.Update(press("0"))
	assert.True(t, e.Filter().IsDefault())
	assert.Len(t, rowIDs(m), 3)
}

func TestNext(t *testing.T) {
	assert.Equal(t, engine.PeriodToday, next(periodCycle, engine.PeriodAll))
	assert.Equal(t, engine.PeriodAll, next(periodCycle, engine.PeriodMonth))
	assert.Equal(t, engine.TypeAll, next(typeCycle, "bogus"))
}

func TestRenderRow(t *testing.T) {
	it := Item{
		Notification: model.Notification{ID: "a", Title: "Brake pads worn", Type: model.TypeAlert, CreatedAt: "30min"},
		Selected:     true,
	}
	row := renderRow(it, false, 120)
	assert.Contains(t, row, "[x]")
	assert.Contains(t, row, "Brake pads worn")
	assert.Contains(t, row, "30min")
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextMenu(t *testing.T) {
	t.Run("at most one open", func(t *testing.T) {
		var m ContextMenu
		m.Open("a", false)
		m.Open("b", true)

		assert.True(t, m.IsOpen("b"))
		assert.False(t, m.IsOpen("a"))
		assert.Equal(t, "b", m.State().ID)
	})

	t.Run("options follow read flag", func(t *testing.T) {
		var m ContextMenu
		assert.Equal(t, []MenuOption{OptionMarkRead, OptionDelete}, m.Open("a", false))
		assert.Equal(t, []MenuOption{OptionMarkUnread, OptionDelete}, m.Open("a", true))
	})

	t.Run("choose closes then returns intent", func(t *testing.T) {
		var m ContextMenu
		m.Open("a", true)

		intent, ok := m.Choose(OptionMarkUnread)
		assert.True(t, ok)
		assert.Equal(t, Intent{Action: ActionMarkUnread, IDs: []string{"a"}}, intent)
		assert.False(t, m.State().Open())
	})

	t.Run("choose option not offered", func(t *testing.T) {
		var m ContextMenu
		m.Open("a", true)

		_, ok := m.Choose(OptionMarkRead)
		assert.False(t, ok)
		assert.False(t, m.State().Open())
	})

	t.Run("choose while closed", func(t *testing.T) {
		var m ContextMenu
		_, ok := m.Choose(OptionDelete)
		assert.False(t, ok)
	})

	t.Run("click outside and cancel close", func(t *testing.T) {
		var m ContextMenu
		m.Open("a", false)
		m.ClickOutside()
		assert.False(t, m.State().Open())

		m.Open("a", false)
		m.Cancel()
		assert.False(t, m.State().Open())
	})
}

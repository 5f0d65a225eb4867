package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/keys"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg asks the parent to run an action on the displayed notification.
type ActionMsg struct {
	Action engine.Action
	ID     string
}

// Model is the notification detail view. Opening a notification does
// not change its read flag.
type Model struct {
	item     *model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.MarkRead):
			return m, m.action(engine.ActionMarkRead)
		case key.Matches(msg, m.keys.MarkUnread):
			return m, m.action(engine.ActionMarkUnread)
		case key.Matches(msg, m.keys.Delete):
			return m, m.action(engine.ActionDelete)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a engine.Action) tea.Cmd {
	if m.item == nil {
		return nil
	}
	id := m.item.ID
	return func() tea.Msg { return ActionMsg{Action: a, ID: id} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}

	n := m.item
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	label := string(n.Type)
	if label == "" {
		label = "Other"
	}
	state := "read"
	if !n.Read {
		state = "unread"
	}
	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.TypeStyle(label).Render(strings.ToUpper(label)),
		"  ",
		theme.HelpStyle.Render(state),
	))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if n.RelatedTo != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Related to:"),
			valStyle.Render(n.RelatedTo),
		))
	}
	sections = append(sections, fmt.Sprintf(
		"%s     %s",
		metaStyle.Render("Created:"),
		valStyle.Render(n.CreatedAt),
	))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := n.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 10)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n model.Notification) {
	m.item = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh re-renders n if it is the one on screen, keeping the scroll
// position. It reports false when the notification is gone.
func (m *Model) Refresh(n model.Notification, ok bool) bool {
	if m.item == nil {
		return false
	}
	if !ok {
		m.item = nil
		return false
	}
	if n.ID != m.item.ID {
		return true
	}
	m.item = &n
	m.viewport.SetContent(m.renderContent())
	return true
}

// ID returns the id of the displayed notification, or "".
func (m Model) ID() string {
	if m.item == nil {
		return ""
	}
	return m.item.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.item != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

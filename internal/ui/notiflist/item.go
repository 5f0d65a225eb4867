package notiflist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/theme"
)

// Item wraps a notification so it can be used in a bubbles/list.
type Item struct {
	model.Notification

	// Selected marks membership in the bulk selection.
	Selected bool

	// Busy is set while an action on the notification is unresolved.
	Busy bool
}

// FilterValue returns the string used for list filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// Title returns the notification title for the list.
func (i Item) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	parts := []string{string(i.Type), i.CreatedAt}
	if i.RelatedTo != "" {
		parts = append(parts, i.RelatedTo)
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification row:
// checkbox, unread dot, type badge, title, related-to and date.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(it, index == m.Index(), m.Width()))
}

func renderRow(it Item, focused bool, width int) string {
	check := "[ ]"
	if it.Selected {
		check = "[x]"
	}

	marker := " "
	if !it.Read {
		marker = theme.UnreadMarkerStyle.Render("●")
	}

	label := string(it.Type)
	if label == "" {
		label = "-"
	}
	badge := theme.TypeStyle(label).Width(9).Render(truncate(label, 7))

	title := it.Notification.Title
	if !it.Read {
		title = lipgloss.NewStyle().Bold(true).Render(title)
	}

	related := ""
	if it.RelatedTo != "" {
		related = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  " + it.RelatedTo)
	}

	date := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + it.CreatedAt)

	busy := ""
	if it.Busy {
		busy = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(" …")
	}

	line := fmt.Sprintf("%s %s %s%s%s%s%s", check, marker, badge, title, related, date, busy)
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width - 2).Render(line)
	}

	if it.Busy {
		line = theme.DimStyle.Render(line)
	}
	if focused {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

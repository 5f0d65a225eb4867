package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatsHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// Header, stats line and status bar are one row each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatsHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatsHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top header bar with a title and sync status.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStats renders the counters line. Locally recomputed figures are
// marked with a trailing "~" until the server summary replaces them.
func (l Layout) RenderStats(s engine.Snapshot) string {
	parts := []string{
		fmt.Sprintf("Total %d", s.Total),
		fmt.Sprintf("Unread %d", s.Unread),
		fmt.Sprintf("Today %d", s.Today),
		fmt.Sprintf("Alerts %d", s.Alerts),
		fmt.Sprintf("Shown %d/%d unread", s.VisibleUnread, s.Visible),
	}
	line := strings.Join(parts, "  ·  ")
	if !s.Authoritative {
		line += " ~"
	}
	return theme.StatStyle.Width(l.Width).Render(line)
}

// RenderStatusBar renders the bottom status bar. A non-empty message
// replaces the hints and is drawn with the error style when isErr is set.
func (l Layout) RenderStatusBar(hints, message string, isErr bool) string {
	style := theme.StatusBarStyle
	text := hints
	if message != "" {
		text = message
		if isErr {
			style = theme.ErrorBarStyle
		}
	}
	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, stats line, content area and status bar.
func (l Layout) RenderWithFrame(
	header string,
	stats string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		stats,
		content,
		statusBar,
	)
}

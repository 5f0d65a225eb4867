package engine

import (
	"strings"
	"time"

	"github.com/nhle/fleet-notify/internal/model"
)

// TypeAll disables the type filter.
const TypeAll = "all"

// ReadStatus filters on the read flag.
type ReadStatus string

const (
	ReadAll    ReadStatus = "all"
	ReadUnread ReadStatus = "unread"
	ReadRead   ReadStatus = "read"
)

// Period filters on the parsed creation date.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// FilterState is the user's current filter selection.
type FilterState struct {
	// Type is a type label or TypeAll. Matching is a case-insensitive
	// substring test against the notification's label.
	Type       string
	ReadStatus ReadStatus
	Period     Period
	Search     string
}

// DefaultFilter returns the filter that passes every notification.
func DefaultFilter() FilterState {
	return FilterState{
		Type:       TypeAll,
		ReadStatus: ReadAll,
		Period:     PeriodAll,
	}
}

// IsDefault reports whether f filters nothing out.
func (f FilterState) IsDefault() bool {
	return f.typeBypassed() &&
		(f.ReadStatus == ReadAll || f.ReadStatus == "") &&
		(f.Period == PeriodAll || f.Period == "") &&
		strings.TrimSpace(f.Search) == ""
}

func (f FilterState) typeBypassed() bool {
	return f.Type == "" || strings.EqualFold(f.Type, TypeAll)
}

// Calendar anchors period filtering at a fixed instant.
type Calendar struct {
	Now       time.Time
	WeekStart time.Weekday
}

// weekStart returns midnight of the most recent WeekStart day.
func (c Calendar) weekStart() time.Time {
	back := (int(c.Now.Weekday()) - int(c.WeekStart) + 7) % 7
	return startOfDay(c.Now.AddDate(0, 0, -back))
}

// monthStart returns midnight of day 1 of the current month.
func (c Calendar) monthStart() time.Time {
	y, m, _ := c.Now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, c.Now.Location())
}

// inPeriod reports whether t falls in p. Both bounds are inclusive.
func (c Calendar) inPeriod(t time.Time, p Period) bool {
	switch p {
	case PeriodToday:
		y1, m1, d1 := t.In(c.Now.Location()).Date()
		y2, m2, d2 := c.Now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodWeek:
		return !t.Before(c.weekStart()) && !t.After(c.Now)
	case PeriodMonth:
		return !t.Before(c.monthStart()) && !t.After(c.Now)
	default:
		return true
	}
}

// Matches reports whether n passes every active filter in f.
func Matches(n model.Notification, f FilterState, cal Calendar) bool {
	if !f.typeBypassed() &&
		!strings.Contains(strings.ToLower(string(n.Type)), strings.ToLower(f.Type)) {
		return false
	}

	switch f.ReadStatus {
	case ReadUnread:
		if n.Read {
			return false
		}
	case ReadRead:
		if !n.Read {
			return false
		}
	}

	if f.Period != "" && f.Period != PeriodAll {
		// Dates nothing can parse stay visible.
		if t, ok := ParseCreatedAt(n.CreatedAt, cal.Now); ok && !cal.inPeriod(t, f.Period) {
			return false
		}
	}

	return matchesSearch(n, f.Search)
}

// matchesSearch is a case-insensitive substring test across title,
// description and relatedTo.
func matchesSearch(n model.Notification, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Description), term) ||
		strings.Contains(strings.ToLower(n.RelatedTo), term)
}

// Filter returns the notifications passing f, in input order.
func Filter(items []model.Notification, f FilterState, cal Calendar) []model.Notification {
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if Matches(n, f, cal) {
			out = append(out, n)
		}
	}
	return out
}

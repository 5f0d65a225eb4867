package engine

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nhle/fleet-notify/internal/model"
)

// SortMode selects the comparator applied to the visible set.
type SortMode string

const (
	SortDateDesc  SortMode = "date_desc"
	SortDateAsc   SortMode = "date_asc"
	SortTypeAsc   SortMode = "type_asc"
	SortTypeDesc  SortMode = "type_desc"
	SortTitleAsc  SortMode = "title_asc"
	unknownRank            = 999
)

// SortControl is one of the sort buttons above the list.
type SortControl int

const (
	ControlDate SortControl = iota
	ControlType
	ControlTitle
)

// Direction glyphs. The date control shows GlyphDown for oldest-first.
const (
	GlyphUp   = "↑"
	GlyphDown = "↓"
)

// typeAscRank orders by urgency, most urgent first.
var typeAscRank = map[string]int{
	"alert":   1,
	"info":    2,
	"success": 3,
	"warning": 4,
}

// typeDescRank is its own table, not typeAscRank reversed.
var typeDescRank = map[string]int{
	"warning": 1,
	"success": 2,
	"info":    3,
	"alert":   4,
}

// SortState is the stored sort selection. Direction is part of Mode.
type SortState struct {
	Mode SortMode
}

// DefaultSort returns newest-first ordering.
func DefaultSort() SortState {
	return SortState{Mode: SortDateDesc}
}

// Toggle returns the state after activating control c. Activating the
// active date or type control flips its direction.
func (s SortState) Toggle(c SortControl) SortState {
	switch c {
	case ControlDate:
		if s.Mode == SortDateDesc {
			return SortState{Mode: SortDateAsc}
		}
		return SortState{Mode: SortDateDesc}
	case ControlType:
		if s.Mode == SortTypeAsc {
			return SortState{Mode: SortTypeDesc}
		}
		return SortState{Mode: SortTypeAsc}
	default:
		return SortState{Mode: SortTitleAsc}
	}
}

// Glyph returns the direction glyph for control c, or "" when c is not
// the active control. The date control maps ascending (oldest first) to
// GlyphDown, matching the fleet web views.
func (s SortState) Glyph(c SortControl) string {
	switch c {
	case ControlDate:
		switch s.Mode {
		case SortDateAsc:
			return GlyphDown
		case SortDateDesc:
			return GlyphUp
		}
	case ControlType:
		switch s.Mode {
		case SortTypeAsc:
			return GlyphUp
		case SortTypeDesc:
			return GlyphDown
		}
	case ControlTitle:
		if s.Mode == SortTitleAsc {
			return GlyphUp
		}
	}
	return ""
}

// Label is a short description for the status bar.
func (s SortState) Label() string {
	switch s.Mode {
	case SortDateAsc:
		return "oldest first"
	case SortTypeAsc:
		return "type: alert → warning"
	case SortTypeDesc:
		return "type: warning → alert"
	case SortTitleAsc:
		return "title A → Z"
	default:
		return "newest first"
	}
}

// TypeRank returns the rank of label under mode, unknownRank for labels
// outside the table or non-type modes.
func TypeRank(mode SortMode, label model.TypeLabel) int {
	table := typeAscRank
	if mode == SortTypeDesc {
		table = typeDescRank
	} else if mode != SortTypeAsc {
		return unknownRank
	}
	if r, ok := table[strings.ToLower(strings.TrimSpace(string(label)))]; ok {
		return r
	}
	return unknownRank
}

var (
	bracketBadge  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	trailingBadge = regexp.MustCompile(`(?i)\s+(new|nouveau|non lu|unread|lu|read)$`)
)

// StripDecoration removes badge text from a title before comparison:
// bracketed segments, leading bullets and a trailing status word.
func StripDecoration(title string) string {
	s := bracketBadge.ReplaceAllString(title, " ")
	s = strings.TrimLeft(s, " •●○★✓-")
	s = strings.Join(strings.Fields(s), " ")
	return trailingBadge.ReplaceAllString(s, "")
}

// Sorter orders notifications. It owns a collator and, like the rest of
// the engine, must only be used from one goroutine.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter builds a sorter collating titles for tag.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag, collate.IgnoreCase)}
}

// Sort returns a stably sorted copy of items.
func (s *Sorter) Sort(items []model.Notification, state SortState, now time.Time) []model.Notification {
	out := make([]model.Notification, len(items))
	copy(out, items)

	switch state.Mode {
	case SortDateAsc, SortDateDesc:
		s.sortByDate(out, state.Mode == SortDateDesc, now)
	case SortTypeAsc, SortTypeDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return TypeRank(state.Mode, out[i].Type) < TypeRank(state.Mode, out[j].Type)
		})
	case SortTitleAsc:
		keys := make(map[string]string, len(out))
		for _, n := range out {
			keys[n.ID] = StripDecoration(n.Title)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return s.collator.CompareString(keys[out[i].ID], keys[out[j].ID]) < 0
		})
	}

	return out
}

// sortByDate parses every date once. Unparseable dates sort after all
// parseable ones in both directions.
func (s *Sorter) sortByDate(out []model.Notification, desc bool, now time.Time) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]key, len(out))
	for _, n := range out {
		t, ok := ParseCreatedAt(n.CreatedAt, now)
		keys[n.ID] = key{t: t, ok: ok}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := keys[out[i].ID], keys[out[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		if desc {
			return a.t.After(b.t)
		}
		return a.t.Before(b.t)
	})
}

package engine

import "sort"

// Selection is the set of ids the user has checked. Membership says
// nothing about whether the id still exists; callers filter with Live
// before acting on it.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle adds id when absent and removes it when present. It reports
// whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Add(id string)    { s.ids[id] = struct{}{} }
func (s *Selection) Remove(id string) { delete(s.ids, id) }

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = make(map[string]struct{})
}

func (s *Selection) Size() int { return len(s.ids) }

// BulkVisible reports whether the bulk action bar should be shown.
func (s *Selection) BulkVisible() bool { return len(s.ids) > 0 }

// IDs returns the selected ids in lexical order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Live returns the selected ids for which exists returns true.
func (s *Selection) Live(exists func(id string) bool) []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.IDs() {
		if exists(id) {
			out = append(out, id)
		}
	}
	return out
}

// Intersects reports whether any of ids is selected.
func (s *Selection) Intersects(ids []string) bool {
	for _, id := range ids {
		if s.Has(id) {
			return true
		}
	}
	return false
}

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/fleet-notify/internal/model"
)

func filterFixture() []model.Notification {
	return []model.Notification{
		{ID: "a", Title: "Brake pads worn", Description: "Vehicle AB-123", RelatedTo: "Truck 12", Type: model.TypeAlert, CreatedAt: "30min"},
		{ID: "b", Title: "Oil change scheduled", RelatedTo: "Van 3", Type: model.TypeInfo, Read: true, CreatedAt: "Hier"},
		{ID: "c", Title: "Inspection passed", Type: model.TypeSuccess, Read: true, CreatedAt: "15/05/2025"},
		{ID: "d", Title: "Tyre pressure low", Type: model.TypeWarning, CreatedAt: "08/06/2025"},
		{ID: "e", Title: "Team meeting", Type: model.TypeInfo, CreatedAt: "someday"},
	}
}

func ids(ns []model.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	cal := Calendar{Now: refNow, WeekStart: time.Monday}

	tests := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{"default passes everything", DefaultFilter(), []string{"a", "b", "c", "d", "e"}},
		{"type", FilterState{Type: "alert"}, []string{"a"}},
		{"type substring", FilterState{Type: "INF"}, []string{"b", "e"}},
		{"type all", FilterState{Type: "all"}, []string{"a", "b", "c", "d", "e"}},
		{"unread", FilterState{ReadStatus: ReadUnread}, []string{"a", "d", "e"}},
		{"read", FilterState{ReadStatus: ReadRead}, []string{"b", "c"}},
		{"today keeps unparseable", FilterState{Period: PeriodToday}, []string{"a", "e"}},
		{"week from monday", FilterState{Period: PeriodWeek}, []string{"a", "b", "e"}},
		{"month", FilterState{Period: PeriodMonth}, []string{"a", "b", "d", "e"}},
		{"search related", FilterState{Search: "truck"}, []string{"a"}},
		{"search title", FilterState{Search: "OIL"}, []string{"b"}},
		{"search description", FilterState{Search: "ab-123"}, []string{"a"}},
		{"search blank", FilterState{Search: "   "}, []string{"a", "b", "c", "d", "e"}},
		{"and composition", FilterState{ReadStatus: ReadUnread, Period: PeriodWeek}, []string{"a", "e"}},
		{"nothing", FilterState{Type: "alert", ReadStatus: ReadRead}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(filterFixture(), tt.filter, cal)))
		})
	}
}

func TestFilter_WeekStartSunday(t *testing.T) {
	cal := Calendar{Now: refNow, WeekStart: time.Sunday}
	got := Filter(filterFixture(), FilterState{Period: PeriodWeek}, cal)
	assert.Equal(t, []string{"a", "b", "d", "e"}, ids(got))
}

func TestFilter_VisibleIsSubsetInOrder(t *testing.T) {
	cal := Calendar{Now: refNow, WeekStart: time.Monday}
	all := filterFixture()
	pos := make(map[string]int, len(all))
	for i, n := range all {
		pos[n.ID] = i
	}

	for _, typ := range []string{"", "all", "alert", "info", "success", "warning", "x"} {
		for _, rs := range []ReadStatus{ReadAll, ReadUnread, ReadRead} {
			for _, p := range []Period{PeriodAll, PeriodToday, PeriodWeek, PeriodMonth} {
				for _, term := range []string{"", "e", "zzz"} {
					got := Filter(all, FilterState{Type: typ, ReadStatus: rs, Period: p, Search: term}, cal)
					last := -1
					for _, n := range got {
						i, ok := pos[n.ID]
						assert.True(t, ok)
						assert.Greater(t, i, last)
						last = i
					}
				}
			}
		}
	}
}

func TestFilterState_IsDefault(t *testing.T) {
	assert.True(t, DefaultFilter().IsDefault())
	assert.False(t, FilterState{Search: "x", ReadStatus: ReadAll, Period: PeriodAll}.IsDefault())
}

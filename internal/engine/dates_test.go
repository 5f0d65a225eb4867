package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refNow = time.Date(2025, time.June, 11, 15, 0, 0, 0, time.UTC) // a Wednesday

func TestParseCreatedAt(t *testing.T) {
	day := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"dmy", "15/05/2025", day(2025, time.May, 15, 0, 0), true},
		{"dmy short year", "15/05/25", day(2025, time.May, 15, 0, 0), true},
		{"dmy with time", "15.05.2025 14:30", day(2025, time.May, 15, 14, 30), true},
		{"iso date", "2025-06-01", day(2025, time.June, 1, 0, 0), true},
		{"hier", "Hier", day(2025, time.June, 10, 0, 0), true},
		{"yesterday", "yesterday", day(2025, time.June, 10, 0, 0), true},
		{"aujourd'hui", "Aujourd'hui", day(2025, time.June, 11, 0, 0), true},
		{"typographic apostrophe", "aujourd’hui", day(2025, time.June, 11, 0, 0), true},
		{"today", " today ", day(2025, time.June, 11, 0, 0), true},
		{"a l'instant", "À l'instant", refNow, true},
		{"just now", "just now", refNow, true},
		{"compact hours", "2h", day(2025, time.June, 11, 13, 0), true},
		{"compact minutes", "30min", day(2025, time.June, 11, 14, 30), true},
		{"compact days", "3j", day(2025, time.June, 8, 15, 0), true},
		{"hours ago", "3 hours ago", day(2025, time.June, 11, 12, 0), true},
		{"il y a", "il y a 2 jours", day(2025, time.June, 9, 15, 0), true},
		{"impossible date", "31/02/2025", time.Time{}, false},
		{"unknown unit", "3 lightyears ago", time.Time{}, false},
		{"free text", "someday", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCreatedAt(tt.in, refNow)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"refresh", Command{Verb: VerbRefresh}},
		{"  Mark   All Read ", Command{Verb: VerbMarkAllRead}},
		{"q", Command{Verb: VerbQuit}},
		{"filter unread", Command{Verb: VerbFilter, Arg: "unread"}},
		{"period week", Command{Verb: VerbPeriod, Arg: "week"}},
		{"type Alert", Command{Verb: VerbType, Arg: "alert"}},
		{"sort title", Command{Verb: VerbSort, Arg: "title"}},
		{"search truck 12", Command{Verb: VerbSearch, Arg: "truck 12"}},
		{"clear", Command{Verb: VerbClear}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, line := range []string{"", "   ", "configure", "filter later", "sort"} {
		_, err := Parse(line)
		assert.Error(t, err, line)
	}
}

func TestSuggestionsParse(t *testing.T) {
	for _, s := range Suggestions() {
		if s == string(VerbSearch)+" " {
			continue
		}
		_, err := Parse(s)
		assert.NoError(t, err, s)
	}
}

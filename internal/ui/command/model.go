package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleet-notify/internal/theme"
)

// Verb names a palette command.
type Verb string

const (
	VerbRefresh     Verb = "refresh"
	VerbMarkAllRead Verb = "mark all read"
	VerbFilter      Verb = "filter"
	VerbPeriod      Verb = "period"
	VerbType        Verb = "type"
	VerbSort        Verb = "sort"
	VerbSearch      Verb = "search"
	VerbClear       Verb = "clear"
	VerbQuit        Verb = "quit"
)

// Command is a parsed palette line.
type Command struct {
	Verb Verb
	Arg  string
}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg Command

// ErrorMsg is emitted for a line that does not parse.
type ErrorMsg struct {
	Err error
}

// allowed lists the accepted argument for verbs that take one.
var allowed = map[Verb][]string{
	VerbFilter: {"unread", "read", "all"},
	VerbPeriod: {"today", "week", "month", "all"},
	VerbType:   {"alert", "info", "success", "warning", "all"},
	VerbSort:   {"date", "type", "title"},
}

// Suggestions returns every complete command line the palette knows.
func Suggestions() []string {
	out := []string{
		string(VerbRefresh),
		string(VerbMarkAllRead),
		string(VerbClear),
		string(VerbQuit),
	}
	for _, v := range []Verb{VerbFilter, VerbPeriod, VerbType, VerbSort} {
		for _, arg := range allowed[v] {
			out = append(out, string(v)+" "+arg)
		}
	}
	return append(out, string(VerbSearch)+" ")
}

// Parse turns a palette line into a Command.
func Parse(line string) (Command, error) {
	line = strings.Join(strings.Fields(strings.ToLower(line)), " ")
	switch line {
	case "":
		return Command{}, fmt.Errorf("empty command")
	case string(VerbRefresh), string(VerbMarkAllRead), string(VerbClear), string(VerbQuit):
		return Command{Verb: Verb(line)}, nil
	case "q":
		return Command{Verb: VerbQuit}, nil
	}

	head, arg, _ := strings.Cut(line, " ")
	verb := Verb(head)
	if verb == VerbSearch {
		return Command{Verb: VerbSearch, Arg: arg}, nil
	}

	opts, ok := allowed[verb]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", head)
	}
	for _, o := range opts {
		if arg == o {
			return Command{Verb: verb, Arg: arg}, nil
		}
	}
	return Command{}, fmt.Errorf("%s expects one of %s", verb, strings.Join(opts, ", "))
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			c, err := Parse(line)
			if err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			return m, func() tea.Msg { return CommandMsg(c) }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render("tab completes · esc closes")

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Package searchbox provides the interactive query input with live results.
package searchbox

import (
	"context"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tunesearch/internal/library"
	"github.com/llehouerou/tunesearch/internal/query"
)

// Source runs compiled queries against the track library.
type Source interface {
	Search(ctx context.Context, q query.Compiled, m query.Matcher) ([]library.Track, error)
}

var _ Source = (*library.Library)(nil)

// ResultsMsg carries the tracks matching the query typed at sequence Seq.
type ResultsMsg struct {
	Seq    int
	Tracks []library.Track
	Err    error
}

// LibraryChangedMsg asks the search box to rerun the current query.
type LibraryChangedMsg struct{}

// Model is the search box: an editable query line, the highlighted token
// stream and the list of matching tracks.
type Model struct {
	source  Source
	parser  *query.Parser
	matcher query.Matcher

	input []rune
	pos   int // cursor, in runes

	tokens   []query.Token
	compiled query.Compiled

	seq      int // sequence of the last search issued
	results  []library.Track
	selected int
	offset   int
	err      error

	width, height int

	chosen *library.Track
}

// New creates a search box over source.
func New(source Source, parser *query.Parser, matcher query.Matcher) Model {
	if parser == nil {
		parser = query.NewParser(0)
	}
	return Model{
		source:  source,
		parser:  parser,
		matcher: matcher,
	}
}

// SetQuery replaces the input and moves the cursor to its end.
func (m *Model) SetQuery(s string) {
	m.input = []rune(s)
	m.pos = len(m.input)
	m.tokens, m.compiled = m.parser.Parse(s)
}

// Query returns the current input.
func (m Model) Query() string { return string(m.input) }

// Cursor returns the cursor offset in runes.
func (m Model) Cursor() int { return m.pos }

// Tokens returns the token stream of the current input.
func (m Model) Tokens() []query.Token { return m.tokens }

// Compiled returns the compiled form of the current input.
func (m Model) Compiled() query.Compiled { return m.compiled }

// Results returns the tracks shown in the list.
func (m Model) Results() []library.Track { return m.results }

// Selected returns the index of the highlighted result.
func (m Model) Selected() int { return m.selected }

// Err returns the error of the last search, if any.
func (m Model) Err() error { return m.err }

// Chosen returns the track confirmed with enter, if any.
func (m Model) Chosen() (library.Track, bool) {
	if m.chosen == nil {
		return library.Track{}, false
	}
	return *m.chosen, true
}

func (m Model) Init() tea.Cmd {
	return m.searchCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureVisible()
		return m, nil

	case ResultsMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.err = msg.Err
		if msg.Err == nil {
			m.results = msg.Tracks
		}
		m.selected = min(m.selected, max(len(m.results)-1, 0))
		m.ensureVisible()
		return m, nil

	case LibraryChangedMsg:
		m.seq++
		return m, m.searchCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typed and pasted runes are text, never key names.
	switch msg.Type {
	case tea.KeySpace:
		m.insert([]rune{' '})
		return m.edited()
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		m.insert(msg.Runes)
		return m.edited()
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		if m.selected < len(m.results) {
			t := m.results[m.selected]
			m.chosen = &t
		}
		return m, tea.Quit

	case "left", "ctrl+b":
		m.pos = max(m.pos-1, 0)
		return m, nil
	case "right", "ctrl+f":
		m.pos = min(m.pos+1, len(m.input))
		return m, nil
	case "home", "ctrl+a":
		m.pos = 0
		return m, nil
	case "end", "ctrl+e":
		m.pos = len(m.input)
		return m, nil

	case "up", "ctrl+p":
		m.moveSelection(-1)
		return m, nil
	case "down", "ctrl+n":
		m.moveSelection(1)
		return m, nil
	case "pgup":
		m.moveSelection(-m.listHeight())
		return m, nil
	case "pgdown":
		m.moveSelection(m.listHeight())
		return m, nil

	case "backspace", "ctrl+h":
		if m.pos > 0 {
			m.input = append(m.input[:m.pos-1:m.pos-1], m.input[m.pos:]...)
			m.pos--
		}
		return m.edited()
	case "delete", "ctrl+d":
		if m.pos < len(m.input) {
			m.input = append(m.input[:m.pos:m.pos], m.input[m.pos+1:]...)
		}
		return m.edited()
	case "ctrl+u":
		m.input = append([]rune(nil), m.input[m.pos:]...)
		m.pos = 0
		return m.edited()
	case "ctrl+k":
		m.input = m.input[:m.pos:m.pos]
		return m.edited()
	case "ctrl+w":
		start := m.wordStart()
		m.input = append(m.input[:start:start], m.input[m.pos:]...)
		m.pos = start
		return m.edited()
	}
	return m, nil
}

func (m *Model) insert(rs []rune) {
	var printable []rune
	for _, r := range rs {
		if r == '\t' || r == '\n' || r == '\r' {
			r = ' '
		}
		if unicode.IsControl(r) {
			continue
		}
		printable = append(printable, r)
	}
	if len(printable) == 0 {
		return
	}
	out := make([]rune, 0, len(m.input)+len(printable))
	out = append(out, m.input[:m.pos]...)
	out = append(out, printable...)
	out = append(out, m.input[m.pos:]...)
	m.input = out
	m.pos += len(printable)
}

// wordStart returns the start of the word before the cursor, skipping
// trailing whitespace first.
func (m Model) wordStart() int {
	i := m.pos
	for i > 0 && unicode.IsSpace(m.input[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(m.input[i-1]) {
		i--
	}
	return i
}

// edited reparses the input and starts a search when the compiled query
// changed.
func (m Model) edited() (tea.Model, tea.Cmd) {
	tokens, compiled := m.parser.Parse(string(m.input))
	m.tokens = tokens
	if compiled.Equal(m.compiled) {
		return m, nil
	}
	m.compiled = compiled
	m.seq++
	m.selected, m.offset = 0, 0
	return m, m.searchCmd()
}

func (m Model) searchCmd() tea.Cmd {
	if m.source == nil {
		return nil
	}
	src, q, matcher, seq := m.source, m.compiled, m.matcher, m.seq
	return func() tea.Msg {
		tracks, err := src.Search(context.Background(), q, matcher)
		return ResultsMsg{Seq: seq, Tracks: tracks, Err: err}
	}
}

func (m *Model) moveSelection(delta int) {
	if len(m.results) == 0 {
		return
	}
	m.selected = max(min(m.selected+delta, len(m.results)-1), 0)
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	m.offset = max(min(m.offset, len(m.results)-h), 0)
}

package searchbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/tunesearch/internal/errmsg"
	"github.com/llehouerou/tunesearch/internal/keymap"
	"github.com/llehouerou/tunesearch/internal/library"
	"github.com/llehouerou/tunesearch/internal/query"
	"github.com/llehouerou/tunesearch/internal/ui/styles"
)

const (
	// inputHeight is the bordered query line.
	inputHeight = 3
	// statusHeight is the line below the input.
	statusHeight = 1
	// helpHeight is the key hint at the bottom.
	helpHeight = 1
	// defaultListHeight is used before the first WindowSizeMsg.
	defaultListHeight = 10
)

const prompt = "> "

// class is the highlight of one input rune.
type class int

const (
	classBlank class = iota
	classFreeText
	classFilterKey
	classFilterValue
	classUnclosed
)

func (c class) style() lipgloss.Style {
	s := styles.T().S()
	switch c {
	case classFreeText:
		return s.FreeText
	case classFilterKey:
		return s.FilterKey
	case classFilterValue:
		return s.FilterValue
	case classUnclosed:
		return s.Unclosed
	}
	return s.Blank
}

// classify assigns a highlight class to every rune covered by tokens.
func classify(tokens []query.Token, n int) []class {
	classes := make([]class, n)
	for _, t := range tokens {
		c := classBlank
		switch t.Kind {
		case query.KindFilter:
			c = classFilterValue
		case query.KindFreeText:
			c = classFreeText
			if t.Unclosed {
				c = classUnclosed
			}
		case query.KindBlankSpace:
		}
		for i := t.Offset; i < t.End() && i < n; i++ {
			classes[i] = c
		}
		if t.Kind == query.KindFilter {
			// Key and colon.
			keyEnd := t.Key.Offset + len([]rune(t.Key.Raw)) + 1
			for i := t.Offset; i < keyEnd && i < n; i++ {
				classes[i] = classFilterKey
			}
		}
	}
	return classes
}

// renderInput draws the query with its tokens highlighted and the cursor
// shown over the rune at pos.
func renderInput(input []rune, tokens []query.Token, pos int) string {
	classes := classify(tokens, len(input))
	cursor := styles.T().S().Cursor

	var b strings.Builder
	flush := func(run []rune, c class) {
		if len(run) > 0 {
			b.WriteString(c.style().Render(string(run)))
		}
	}

	var run []rune
	cur := classBlank
	for i, r := range input {
		if i == pos {
			flush(run, cur)
			run = nil
			b.WriteString(cursor.Render(string(r)))
			continue
		}
		if classes[i] != cur {
			flush(run, cur)
			run = nil
			cur = classes[i]
		}
		run = append(run, r)
	}
	flush(run, cur)
	if pos >= len(input) {
		b.WriteString(cursor.Render(" "))
	}
	return b.String()
}

func (m Model) View() string {
	s := styles.T().S()

	inputWidth := max(m.width-4, 10)
	box := s.Panel.Width(inputWidth).Render(s.Muted.Render(prompt) + renderInput(m.input, m.tokens, m.pos))

	lines := []string{box, m.statusLine()}
	lines = append(lines, m.renderResults()...)
	lines = append(lines, s.Subtle.Render(keymap.Hint(keymap.ByContext("global"))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) statusLine() string {
	s := styles.T().S()
	if m.err != nil {
		return s.Error.Render(errmsg.Format(errmsg.OpSearch, m.err))
	}

	count := s.Muted.Render(strconv.Itoa(len(m.results)) + " tracks")
	if hint := tokenHint(m.tokens, m.pos); hint != "" {
		return count + s.Subtle.Render("  "+hint)
	}
	return count
}

// tokenHint describes the token under the cursor.
func tokenHint(tokens []query.Token, pos int) string {
	t, ok := query.At(tokens, pos)
	if !ok {
		return ""
	}
	switch t.Kind {
	case query.KindFilter:
		if t.Value.Text == "" {
			return t.Key.Filter.String() + " (empty)"
		}
		return fmt.Sprintf("%s = %q", t.Key.Filter, t.Value.Unescaped())
	case query.KindFreeText:
		if t.Unclosed {
			return "unclosed quote, searching as text"
		}
		return "text"
	case query.KindBlankSpace:
	}
	return ""
}

func (m Model) listHeight() int {
	if m.height == 0 {
		return defaultListHeight
	}
	return max(m.height-inputHeight-statusHeight-helpHeight, 1)
}

func (m Model) renderResults() []string {
	s := styles.T().S()
	width := m.width
	if width == 0 {
		width = 80
	}

	end := min(m.offset+m.listHeight(), len(m.results))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		row := runewidth.FillRight(runewidth.Truncate(resultRow(m.results[i]), width, "..."), width)
		if i == m.selected {
			row = s.Selected.Render(row)
		} else {
			row = s.Base.Render(row)
		}
		lines = append(lines, row)
	}
	return lines
}

func resultRow(t library.Track) string {
	var b strings.Builder
	if t.Artist != "" {
		b.WriteString(t.Artist)
		b.WriteString(" - ")
	}
	b.WriteString(t.Title)
	if t.Album != "" {
		b.WriteString(" [")
		b.WriteString(t.Album)
		b.WriteString("]")
	}
	if t.Key != "" {
		b.WriteString(" ")
		b.WriteString(t.Key)
	}
	return b.String()
}

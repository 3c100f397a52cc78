package query

import (
	"strings"
	"unicode/utf8"
)

// Kind tags the variant a Token holds.
type Kind int

const (
	KindFreeText Kind = iota
	KindBlankSpace
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindBlankSpace:
		return "blankSpace"
	default:
		return "freeText"
	}
}

// Offsets are rune (character) offsets into the input.

// Value is the literal text of a token together with where it starts.
type Value struct {
	Text   string
	Offset int
	Quoted bool // Text was enclosed in double quotes, which are not part of it
}

// Len returns the length of the literal in characters.
func (v Value) Len() int {
	return utf8.RuneCountInString(v.Text)
}

// Unescaped resolves backslash escapes of quoted text. Unquoted text is
// returned as is.
func (v Value) Unescaped() string {
	if !v.Quoted || !strings.ContainsRune(v.Text, '\\') {
		return v.Text
	}
	var b strings.Builder
	b.Grow(len(v.Text))
	escaped := false
	for _, r := range v.Text {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// Key is the field name part of a filter token.
type Key struct {
	Filter Filter
	Offset int
	Raw    string // as typed, e.g. "Artists"
}

// Token is one span of the input. Raw always holds the untouched source text
// of the whole span; for filter tokens Key and Value describe its parts.
type Token struct {
	Kind   Kind
	Offset int
	Raw    string
	Key    Key
	Value  Value

	// Unclosed marks free text that began an unterminated quoted literal.
	Unclosed bool
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Offset + utf8.RuneCountInString(t.Raw)
}

// IsFilter reports whether t is a filter token.
func (t Token) IsFilter() bool { return t.Kind == KindFilter }

// Join concatenates the raw spans of tokens, which reproduces the input they
// were scanned from.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Raw)
	}
	return b.String()
}

// At returns the token whose span contains offset. An offset at the very end
// of the input belongs to the last token.
func At(tokens []Token, offset int) (Token, bool) {
	for i, t := range tokens {
		if offset >= t.Offset && offset < t.End() {
			return t, true
		}
		if i == len(tokens)-1 && offset == t.End() {
			return t, true
		}
	}
	return Token{}, false
}

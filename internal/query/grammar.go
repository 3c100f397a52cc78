package query

import (
	"fmt"
	"slices"
	"strings"
)

// Grammar holds the set of filter names the lexer recognizes. It is derived
// from the filter registry, so a filter added there is both matched and
// described without further changes.
type Grammar struct {
	keys map[string]Filter
}

var defaultGrammar = NewGrammar()

// NewGrammar builds the grammar from the filter registry.
func NewGrammar() *Grammar {
	return &Grammar{keys: buildLookup()}
}

// resolve looks up an identifier typed as a filter key.
func (g *Grammar) resolve(name []rune) (Filter, bool) {
	f, ok := g.keys[strings.ToLower(string(name))]
	return f, ok
}

// Names returns every accepted key name, longest first, then alphabetically.
func (g *Grammar) Names() []string {
	names := make([]string, 0, len(g.keys))
	for name := range g.keys {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return names
}

// Describe renders the grammar as PEG rules. Key alternatives are generated
// from the registry and match case-insensitively.
func (g *Grammar) Describe() string {
	alts := make([]string, 0, len(g.keys))
	for _, name := range g.Names() {
		alts = append(alts, fmt.Sprintf("%q i", name))
	}

	var b strings.Builder
	rule := func(name, body string) {
		fmt.Fprintf(&b, "%-10s <- %s\n", name, body)
	}
	rule("Query", "(BlankSpace / Filter / FreeText)*")
	rule("BlankSpace", "Space+")
	rule("Filter", "FilterKey ':' (Value / &Space / !.)")
	rule("FilterKey", "("+strings.Join(alts, " / ")+") &':'")
	rule("Value", "Quoted / Bare")
	rule("Quoted", `'"' ('\\' . / !'"' !(Space+ FilterKey ':') .)* '"'`)
	rule("Bare", `!'"' (!Space .)+`)
	rule("FreeText", "(Ident ':')? (Quoted / Unclosed) / Bare")
	rule("Unclosed", `'"' (!(Space+ FilterKey ':') .)*`)
	rule("Ident", `[\p{L}\p{N}_-]+`)
	rule("Space", `[ \t\n\r\f\v]`)
	return b.String()
}

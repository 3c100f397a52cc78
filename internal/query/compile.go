package query

import (
	"maps"
	"slices"
)

// Compiled is the evaluable form of a token sequence. Values of a repeated
// filter key are kept in input order; free-text fragments are never merged.
type Compiled struct {
	Filters  map[Filter][]string
	FreeText []string
}

// Compile builds the query predicate from tokens. Blank space contributes
// nothing.
func Compile(tokens []Token) Compiled {
	var q Compiled
	for _, t := range tokens {
		switch t.Kind {
		case KindFilter:
			if q.Filters == nil {
				q.Filters = make(map[Filter][]string)
			}
			q.Filters[t.Key.Filter] = append(q.Filters[t.Key.Filter], t.Value.Unescaped())
		case KindFreeText:
			q.FreeText = append(q.FreeText, t.Value.Unescaped())
		case KindBlankSpace:
		}
	}
	return q
}

// Parse tokenizes and compiles s.
func Parse(s string) Compiled {
	return Compile(Tokenize(s))
}

// IsEmpty reports whether q places no constraint at all.
func (q Compiled) IsEmpty() bool {
	return len(q.Filters) == 0 && len(q.FreeText) == 0
}

// Values returns the values required for f.
func (q Compiled) Values(f Filter) []string {
	return q.Filters[f]
}

// Equal reports whether q and o are structurally equal.
func (q Compiled) Equal(o Compiled) bool {
	return maps.EqualFunc(q.Filters, o.Filters, slices.Equal[[]string]) &&
		slices.Equal(q.FreeText, o.FreeText)
}

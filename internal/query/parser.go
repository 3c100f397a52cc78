package query

import "github.com/puzpuzpuz/xsync/v3"

type parsed struct {
	tokens []Token
	query  Compiled
}

// Parser tokenizes and compiles search input, memoizing results by the exact
// input string. It is safe for concurrent use. Returned slices and maps are
// shared between callers and must not be modified.
type Parser struct {
	grammar *Grammar
	size    int
	cache   *xsync.MapOf[string, parsed]
}

// NewParser returns a parser keeping at most size memoized inputs. The memo
// is dropped whole once full. A size of 0 disables memoization.
func NewParser(size int) *Parser {
	return &Parser{
		grammar: defaultGrammar,
		size:    size,
		cache:   xsync.NewMapOf[string, parsed](),
	}
}

// Parse returns the tokens of s and their compiled query.
func (p *Parser) Parse(s string) ([]Token, Compiled) {
	if p.size <= 0 {
		tokens := p.grammar.Tokenize(s)
		return tokens, Compile(tokens)
	}
	if r, ok := p.cache.Load(s); ok {
		return r.tokens, r.query
	}
	if p.cache.Size() >= p.size {
		p.cache.Clear()
	}
	r, _ := p.cache.LoadOrCompute(s, func() parsed {
		tokens := p.grammar.Tokenize(s)
		return parsed{tokens: tokens, query: Compile(tokens)}
	})
	return r.tokens, r.query
}

// Len returns the number of memoized inputs.
func (p *Parser) Len() int {
	return p.cache.Size()
}

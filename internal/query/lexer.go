package query

import "unicode"

// Tokenize scans s with the default grammar.
func Tokenize(s string) []Token {
	return defaultGrammar.Tokenize(s)
}

// Tokenize scans s into tokens. It never fails: input that does not form a
// filter is returned as free text, and the raw spans of the result always
// join back into s.
func (g *Grammar) Tokenize(s string) []Token {
	if s == "" {
		return nil
	}
	lx := &lexer{g: g, src: []rune(s)}
	lx.run()
	return lx.tokens
}

type lexer struct {
	g      *Grammar
	src    []rune
	pos    int
	tokens []Token
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		if isSpace(lx.src[lx.pos]) {
			end := lx.skipSpace(lx.pos)
			lx.emitText(KindBlankSpace, lx.pos, end)
			lx.pos = end
			continue
		}
		lx.pos = lx.word(lx.pos)
	}
}

// word scans one non-blank token starting at start and returns where it ends.
func (lx *lexer) word(start int) int {
	src := lx.src

	if src[start] == '"' {
		end, closed := lx.quoted(start)
		if closed {
			lx.emitPhrase(start, end)
		} else {
			lx.emitUnclosed(start, end)
		}
		return end
	}

	keyEnd := lx.ident(start)
	if keyEnd > start && keyEnd < len(src) && src[keyEnd] == ':' {
		if f, ok := lx.g.resolve(src[start:keyEnd]); ok {
			return lx.filter(start, keyEnd, f)
		}
		// Unknown key: a quoted value still spans its blanks.
		if q := keyEnd + 1; q < len(src) && src[q] == '"' {
			end, closed := lx.quoted(q)
			if closed {
				lx.emitText(KindFreeText, start, end)
			} else {
				lx.emitUnclosed(start, end)
			}
			return end
		}
	}

	end := lx.bare(start)
	lx.emitText(KindFreeText, start, end)
	return end
}

// filter scans the value of a recognized key ending at keyEnd (the colon).
func (lx *lexer) filter(start, keyEnd int, f Filter) int {
	src := lx.src
	valStart := keyEnd + 1

	switch {
	case valStart == len(src) || isSpace(src[valStart]):
		lx.emitFilter(start, keyEnd, valStart, f, Value{Offset: valStart})
		return valStart

	case src[valStart] == '"':
		end, closed := lx.quoted(valStart)
		if !closed {
			lx.emitUnclosed(start, end)
			return end
		}
		lx.emitFilter(start, keyEnd, end, f, Value{
			Text:   string(src[valStart+1 : end-1]),
			Offset: valStart + 1,
			Quoted: true,
		})
		return end

	default:
		end := lx.bare(valStart)
		lx.emitFilter(start, keyEnd, end, f, Value{
			Text:   string(src[valStart:end]),
			Offset: valStart,
		})
		return end
	}
}

// quoted scans a double-quoted literal opening at q. When the closing quote
// is found it returns the offset past it. Otherwise the literal is unclosed
// and the returned offset is end of input or the start of the blank run that
// precedes the next recognized filter, whichever comes first.
func (lx *lexer) quoted(q int) (end int, closed bool) {
	src := lx.src
	for i := q + 1; i < len(src); i++ {
		switch r := src[i]; {
		case r == '\\':
			i++
		case r == '"':
			return i + 1, true
		case isSpace(r):
			next := lx.skipSpace(i)
			if lx.filterAt(next) {
				return i, false
			}
			i = next - 1
		}
	}
	return len(src), false
}

// filterAt reports whether a recognized filter key and its colon start at i.
func (lx *lexer) filterAt(i int) bool {
	keyEnd := lx.ident(i)
	if keyEnd == i || keyEnd >= len(lx.src) || lx.src[keyEnd] != ':' {
		return false
	}
	_, ok := lx.g.resolve(lx.src[i:keyEnd])
	return ok
}

func (lx *lexer) ident(i int) int {
	for i < len(lx.src) && isIdent(lx.src[i]) {
		i++
	}
	return i
}

func (lx *lexer) bare(i int) int {
	for i < len(lx.src) && !isSpace(lx.src[i]) {
		i++
	}
	return i
}

func (lx *lexer) skipSpace(i int) int {
	for i < len(lx.src) && isSpace(lx.src[i]) {
		i++
	}
	return i
}

func (lx *lexer) emitText(kind Kind, start, end int) {
	raw := string(lx.src[start:end])
	lx.tokens = append(lx.tokens, Token{
		Kind:   kind,
		Offset: start,
		Raw:    raw,
		Value:  Value{Text: raw, Offset: start},
	})
}

// emitUnclosed emits free text left over from a quote that never closed.
func (lx *lexer) emitUnclosed(start, end int) {
	lx.emitText(KindFreeText, start, end)
	lx.tokens[len(lx.tokens)-1].Unclosed = true
}

// emitPhrase emits a closed quoted free-text span; its value drops the quotes.
func (lx *lexer) emitPhrase(start, end int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   KindFreeText,
		Offset: start,
		Raw:    string(lx.src[start:end]),
		Value: Value{
			Text:   string(lx.src[start+1 : end-1]),
			Offset: start + 1,
			Quoted: true,
		},
	})
}

func (lx *lexer) emitFilter(start, keyEnd, end int, f Filter, v Value) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   KindFilter,
		Offset: start,
		Raw:    string(lx.src[start:end]),
		Key: Key{
			Filter: f,
			Offset: start,
			Raw:    string(lx.src[start:keyEnd]),
		},
		Value: v,
	})
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isIdent(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

package query

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func free(offset int, raw string) Token {
	return Token{Kind: KindFreeText, Offset: offset, Raw: raw, Value: Value{Text: raw, Offset: offset}}
}

func unclosed(offset int, raw string) Token {
	tok := free(offset, raw)
	tok.Unclosed = true
	return tok
}

func blank(offset int, raw string) Token {
	return Token{Kind: KindBlankSpace, Offset: offset, Raw: raw, Value: Value{Text: raw, Offset: offset}}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "known filter",
			input: "artist:Daft",
			want: []Token{{
				Kind:   KindFilter,
				Offset: 0,
				Raw:    "artist:Daft",
				Key:    Key{Filter: FilterArtist, Offset: 0, Raw: "artist"},
				Value:  Value{Text: "Daft", Offset: 7},
			}},
		},
		{
			name:  "unknown key degrades",
			input: "foo:bar",
			want:  []Token{free(0, "foo:bar")},
		},
		{
			name:  "unknown key keeps quoted value whole",
			input: `foo:"bar baz" qux`,
			want:  []Token{free(0, `foo:"bar baz"`), blank(13, " "), free(14, "qux")},
		},
		{
			name:  "unknown key with unterminated quote",
			input: `foo:"bar baz genre:x`,
			want: []Token{
				unclosed(0, `foo:"bar baz`),
				blank(12, " "),
				{
					Kind:   KindFilter,
					Offset: 13,
					Raw:    "genre:x",
					Key:    Key{Filter: FilterGenre, Offset: 13, Raw: "genre"},
					Value:  Value{Text: "x", Offset: 19},
				},
			},
		},
		{
			name:  "quoted value",
			input: `album:"Random Access Memories"`,
			want: []Token{{
				Kind:   KindFilter,
				Offset: 0,
				Raw:    `album:"Random Access Memories"`,
				Key:    Key{Filter: FilterAlbum, Offset: 0, Raw: "album"},
				Value:  Value{Text: "Random Access Memories", Offset: 7, Quoted: true},
			}},
		},
		{
			name:  "mixed",
			input: "artist:Daft House",
			want: []Token{
				{
					Kind:   KindFilter,
					Offset: 0,
					Raw:    "artist:Daft",
					Key:    Key{Filter: FilterArtist, Offset: 0, Raw: "artist"},
					Value:  Value{Text: "Daft", Offset: 7},
				},
				blank(11, " "),
				free(12, "House"),
			},
		},
		{
			name:  "empty value at end",
			input: "genre:",
			want: []Token{{
				Kind:   KindFilter,
				Offset: 0,
				Raw:    "genre:",
				Key:    Key{Filter: FilterGenre, Offset: 0, Raw: "genre"},
				Value:  Value{Offset: 6},
			}},
		},
		{
			name:  "empty value before blank",
			input: "genre:\tdeep",
			want: []Token{
				{
					Kind:   KindFilter,
					Offset: 0,
					Raw:    "genre:",
					Key:    Key{Filter: FilterGenre, Offset: 0, Raw: "genre"},
					Value:  Value{Offset: 6},
				},
				blank(6, "\t"),
				free(7, "deep"),
			},
		},
		{
			name:  "synonym and case",
			input: "LABEL:Ed",
			want: []Token{{
				Kind:   KindFilter,
				Offset: 0,
				Raw:    "LABEL:Ed",
				Key:    Key{Filter: FilterPublisher, Offset: 0, Raw: "LABEL"},
				Value:  Value{Text: "Ed", Offset: 6},
			}},
		},
		{
			name:  "unterminated quote runs to end",
			input: `album:"Random Acc`,
			want:  []Token{unclosed(0, `album:"Random Acc`)},
		},
		{
			name:  "unterminated quote stops before next filter",
			input: `album:"Random title:x`,
			want: []Token{
				unclosed(0, `album:"Random`),
				blank(13, " "),
				{
					Kind:   KindFilter,
					Offset: 14,
					Raw:    "title:x",
					Key:    Key{Filter: FilterTitle, Offset: 14, Raw: "title"},
					Value:  Value{Text: "x", Offset: 20},
				},
			},
		},
		{
			name:  "unterminated phrase",
			input: `"daft pu`,
			want:  []Token{unclosed(0, `"daft pu`)},
		},
		{
			name:  "quoted phrase",
			input: `"daft punk" one`,
			want: []Token{
				{
					Kind:   KindFreeText,
					Offset: 0,
					Raw:    `"daft punk"`,
					Value:  Value{Text: "daft punk", Offset: 1, Quoted: true},
				},
				blank(11, " "),
				free(12, "one"),
			},
		},
		{
			name:  "escaped quote inside value",
			input: `title:"say \"hi\""`,
			want: []Token{{
				Kind:   KindFilter,
				Offset: 0,
				Raw:    `title:"say \"hi\""`,
				Key:    Key{Filter: FilterTitle, Offset: 0, Raw: "title"},
				Value:  Value{Text: `say \"hi\"`, Offset: 7, Quoted: true},
			}},
		},
		{
			name:  "filter directly after closing quote",
			input: `album:"x"genre:y`,
			want: []Token{
				{
					Kind:   KindFilter,
					Offset: 0,
					Raw:    `album:"x"`,
					Key:    Key{Filter: FilterAlbum, Offset: 0, Raw: "album"},
					Value:  Value{Text: "x", Offset: 7, Quoted: true},
				},
				{
					Kind:   KindFilter,
					Offset: 9,
					Raw:    "genre:y",
					Key:    Key{Filter: FilterGenre, Offset: 9, Raw: "genre"},
					Value:  Value{Text: "y", Offset: 15},
				},
			},
		},
		{
			name:  "filter inside a word is free text",
			input: "x,artist:Daft",
			want:  []Token{free(0, "x,artist:Daft")},
		},
		{
			name:  "leading and trailing blanks",
			input: "  128 ",
			want:  []Token{blank(0, "  "), free(2, "128"), blank(5, " ")},
		},
		{
			name:  "offsets count characters",
			input: "É artist:Björk",
			want: []Token{
				free(0, "É"),
				blank(1, " "),
				{
					Kind:   KindFilter,
					Offset: 2,
					Raw:    "artist:Björk",
					Key:    Key{Filter: FilterArtist, Offset: 2, Raw: "artist"},
					Value:  Value{Text: "Björk", Offset: 9},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenize_Lossless(t *testing.T) {
	inputs := []string{
		`artist:"Daft Punk" genre:House 128`,
		`"`,
		`""`,
		`:`,
		`::::`,
		`artist:`,
		`artist:"`,
		`artist:"\`,
		`artist:"a\" title:b`,
		`foo:"bar baz" qux`,
		"\t\t  \n",
		`key:08A art: cover:"x" "unclosed  id:abc`,
		"日本語 title:東京",
		`a"b"c`,
	}

	rng := rand.New(rand.NewSource(1))
	alphabet := []rune(`ab :"\ 	titleartistgenre_-é`)
	for range 200 {
		n := rng.Intn(30)
		rs := make([]rune, n)
		for i := range rs {
			rs[i] = alphabet[rng.Intn(len(alphabet))]
		}
		inputs = append(inputs, string(rs))
	}

	for _, in := range inputs {
		tokens := Tokenize(in)
		require.Equal(t, in, Join(tokens), "join of %q", in)

		next := 0
		for _, tok := range tokens {
			assert.Equal(t, next, tok.Offset, "token %+v of %q", tok, in)
			assert.NotEmpty(t, tok.Raw, "input %q", in)
			next = tok.End()

			if tok.IsFilter() {
				runes := []rune(in)
				key := string(runes[tok.Key.Offset : tok.Key.Offset+len([]rune(tok.Key.Raw))])
				assert.Equal(t, tok.Key.Raw, key)
				val := string(runes[tok.Value.Offset : tok.Value.Offset+tok.Value.Len()])
				assert.Equal(t, tok.Value.Text, val)
			}
		}
		assert.Equal(t, len([]rune(in)), next, "input %q", in)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	in := `artist:"Daft Punk" genre:House "one more" time`
	first := Tokenize(in)
	for range 10 {
		if diff := cmp.Diff(first, Tokenize(in)); diff != "" {
			t.Fatalf("tokenization changed:\n%s", diff)
		}
	}
}

func TestTokenize_LongInput(t *testing.T) {
	in := strings.Repeat(`artist:"a b `, 500)
	tokens := Tokenize(in)
	assert.Equal(t, in, Join(tokens))
}

func TestTokenize_LongBlankRunInQuote(t *testing.T) {
	in := `"` + strings.Repeat(" ", 100_000) + "x"

	start := time.Now()
	tokens := Tokenize(in)
	elapsed := time.Since(start)

	require.Equal(t, []Token{unclosed(0, in)}, tokens)
	assert.Less(t, elapsed, time.Second, "tokenizing took %s", elapsed)

	in = `album:"a` + strings.Repeat(" \t", 50_000) + " title:x"
	start = time.Now()
	tokens = Tokenize(in)
	elapsed = time.Since(start)

	require.Len(t, tokens, 3)
	assert.True(t, tokens[0].Unclosed)
	assert.Equal(t, KindFilter, tokens[2].Kind)
	assert.Less(t, elapsed, time.Second, "tokenizing took %s", elapsed)
}

func TestAt(t *testing.T) {
	tokens := Tokenize("artist:Daft House")

	tok, ok := At(tokens, 3)
	require.True(t, ok)
	assert.Equal(t, KindFilter, tok.Kind)

	tok, ok = At(tokens, 11)
	require.True(t, ok)
	assert.Equal(t, KindBlankSpace, tok.Kind)

	tok, ok = At(tokens, 17)
	require.True(t, ok)
	assert.Equal(t, "House", tok.Raw)

	_, ok = At(tokens, 18)
	assert.False(t, ok)

	_, ok = At(nil, 0)
	assert.False(t, ok)
}

func TestValueUnescaped(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Value{Text: `say \"hi\"`, Quoted: true}, `say "hi"`},
		{Value{Text: `back\\slash`, Quoted: true}, `back\slash`},
		{Value{Text: `plain`, Quoted: true}, `plain`},
		{Value{Text: `not\"quoted`}, `not\"quoted`},
		{Value{Text: `trailing\`, Quoted: true}, `trailing`},
	}

	for _, tt := range tests {
		if got := tt.value.Unescaped(); got != tt.want {
			t.Errorf("Unescaped(%q) = %q, want %q", tt.value.Text, got, tt.want)
		}
	}
}

package query

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want Filter
		ok   bool
	}{
		{"artist", FilterArtist, true},
		{"ARTIST", FilterArtist, true},
		{"Artists", FilterArtist, true},
		{"label", FilterPublisher, true},
		{"cover", FilterArtwork, true},
		{"key", FilterKey, true},
		{"id", FilterID, true},
		{"rel", FilterRelease, true},
		{"foo", 0, false},
		{"", 0, false},
		{"artist ", 0, false},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilters(t *testing.T) {
	filters := Filters()
	require.Len(t, filters, 9)

	names := make([]string, len(filters))
	for i, f := range filters {
		assert.True(t, f.Valid())
		names[i] = f.String()

		got, ok := Resolve(f.String())
		assert.True(t, ok)
		assert.Equal(t, f, got)
		for _, syn := range Synonyms(f) {
			got, ok := Resolve(syn)
			assert.True(t, ok, syn)
			assert.Equal(t, f, got, syn)
		}
	}
	assert.Equal(t, []string{"id", "title", "artist", "album", "release", "publisher", "genre", "key", "artwork"}, names)

	var zero Filter
	assert.False(t, zero.Valid())
	assert.Empty(t, zero.String())
}

func TestSynonyms_ReturnsCopy(t *testing.T) {
	syn := Synonyms(FilterArtist)
	require.NotEmpty(t, syn)
	syn[0] = "mutated"
	_, ok := Resolve("mutated")
	assert.False(t, ok)
	assert.NotContains(t, Synonyms(FilterArtist), "mutated")
}

func TestGrammarDescribe_ListsEveryKey(t *testing.T) {
	g := NewGrammar()
	desc := g.Describe()

	var keyRule string
	for _, line := range strings.Split(desc, "\n") {
		if strings.HasPrefix(line, "FilterKey") {
			keyRule = line
		}
	}
	require.NotEmpty(t, keyRule)

	for _, f := range Filters() {
		assert.Contains(t, keyRule, strconv.Quote(f.String()))
		for _, syn := range Synonyms(f) {
			assert.Contains(t, keyRule, strconv.Quote(syn))
		}
	}
	assert.Len(t, g.Names(), len(lookup))
}

func TestGrammarNames_LongestFirst(t *testing.T) {
	names := NewGrammar().Names()
	for i := 1; i < len(names); i++ {
		assert.GreaterOrEqual(t, len(names[i-1]), len(names[i]), "%q before %q", names[i-1], names[i])
	}
	// "art" must be tried after "artist" and "artwork".
	assert.Less(t, indexOf(names, "artist"), indexOf(names, "art"))
	assert.Less(t, indexOf(names, "artwork"), indexOf(names, "art"))
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestParser_Memoizes(t *testing.T) {
	p := NewParser(4)

	tokens, q := p.Parse("artist:Daft House")
	assert.Equal(t, Tokenize("artist:Daft House"), tokens)
	assert.True(t, q.Equal(Parse("artist:Daft House")))
	assert.Equal(t, 1, p.Len())

	again, _ := p.Parse("artist:Daft House")
	assert.Equal(t, tokens, again)
	assert.Equal(t, 1, p.Len())

	for i := range 4 {
		p.Parse("q" + strconv.Itoa(i))
	}
	assert.LessOrEqual(t, p.Len(), 4)
}

func TestParser_Disabled(t *testing.T) {
	p := NewParser(0)
	tokens, q := p.Parse("genre:House")
	assert.Len(t, tokens, 1)
	assert.Equal(t, []string{"House"}, q.Values(FilterGenre))
	assert.Equal(t, 0, p.Len())
}

func TestParser_Concurrent(t *testing.T) {
	p := NewParser(16)
	inputs := []string{"artist:a", "genre:b c", `album:"x y"`, "free text"}

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Go(func() {
			in := inputs[i%len(inputs)]
			tokens, q := p.Parse(in)
			assert.Equal(t, in, Join(tokens))
			assert.True(t, q.Equal(Parse(in)))
		})
	}
	wg.Wait()
}

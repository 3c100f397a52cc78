// Package query tokenizes search box input into filter, free-text and blank
// tokens and evaluates the compiled result against library entries.
package query

import "strings"

// Filter is a recognized search field.
type Filter int

// The zero Filter is not a field; it is what non-filter tokens carry.
const (
	FilterID Filter = iota + 1
	FilterTitle
	FilterArtist
	FilterAlbum
	FilterRelease
	FilterPublisher
	FilterGenre
	FilterKey
	FilterArtwork
)

type filterDef struct {
	filter   Filter
	name     string
	synonyms []string
}

// registry is the only list of filter names. The grammar and the lexer are
// both built from it.
var registry = []filterDef{
	{FilterID, "id", []string{"ids"}},
	{FilterTitle, "title", []string{"titles", "name", "track"}},
	{FilterArtist, "artist", []string{"artists", "by"}},
	{FilterAlbum, "album", []string{"albums"}},
	{FilterRelease, "release", []string{"releases", "rel"}},
	{FilterPublisher, "publisher", []string{"publishers", "label", "labels", "pub"}},
	{FilterGenre, "genre", []string{"genres"}},
	{FilterKey, "key", []string{"keys"}},
	{FilterArtwork, "artwork", []string{"art", "cover"}},
}

var lookup = buildLookup()

func buildLookup() map[string]Filter {
	m := make(map[string]Filter)
	for _, def := range registry {
		m[def.name] = def.filter
		for _, s := range def.synonyms {
			m[s] = def.filter
		}
	}
	return m
}

// Resolve returns the filter named by name, matching canonical names and
// synonyms case-insensitively.
func Resolve(name string) (Filter, bool) {
	f, ok := lookup[strings.ToLower(name)]
	return f, ok
}

// Filters returns every filter in declaration order.
func Filters() []Filter {
	out := make([]Filter, len(registry))
	for i, def := range registry {
		out[i] = def.filter
	}
	return out
}

// Synonyms returns the alternative names accepted for f.
func Synonyms(f Filter) []string {
	for _, def := range registry {
		if def.filter == f {
			return append([]string(nil), def.synonyms...)
		}
	}
	return nil
}

// String returns the canonical name, or "" for the zero Filter.
func (f Filter) String() string {
	for _, def := range registry {
		if def.filter == f {
			return def.name
		}
	}
	return ""
}

// Valid reports whether f is a member of the enumeration.
func (f Filter) Valid() bool {
	return f >= FilterID && f <= FilterArtwork
}

package query

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Entry is the view of a library record the matcher needs.
type Entry interface {
	// Field returns the value of f for this entry, "" when unset.
	Field(f Filter) string
}

// searchable lists the fields free text is matched against.
var searchable = []Filter{FilterTitle, FilterArtist, FilterAlbum, FilterGenre, FilterPublisher}

// RepeatPolicy decides how several values given for the same key combine.
type RepeatPolicy int

const (
	// RepeatAll requires every value to match: artist:A artist:B needs both.
	RepeatAll RepeatPolicy = iota
	// RepeatAny requires at least one value to match.
	RepeatAny
)

// EmptyPolicy decides what an empty filter value ("genre:") requires.
type EmptyPolicy int

const (
	// EmptyPresent places no constraint; the key is merely present.
	EmptyPresent EmptyPolicy = iota
	// EmptyMissing requires the field to be empty.
	EmptyMissing
	// EmptyNonEmpty requires the field to have a value.
	EmptyNonEmpty
)

// Matcher evaluates compiled queries against entries.
type Matcher struct {
	Repeat RepeatPolicy
	Empty  EmptyPolicy
}

// DefaultMatcher combines repeated values with AND and ignores empty values.
func DefaultMatcher() Matcher {
	return Matcher{Repeat: RepeatAll, Empty: EmptyPresent}
}

// Matches evaluates q against e with the default matcher.
func Matches(q Compiled, e Entry) bool {
	return DefaultMatcher().Match(q, e)
}

// Match reports whether e satisfies every filter key and every free-text
// fragment of q. The empty query matches everything.
func (m Matcher) Match(q Compiled, e Entry) bool {
	for f, values := range q.Filters {
		if !m.matchKey(f, values, e.Field(f)) {
			return false
		}
	}
	if len(q.FreeText) == 0 {
		return true
	}

	text := searchText(e)
	for _, frag := range q.FreeText {
		if !strings.Contains(text, strings.ToLower(frag)) {
			return false
		}
	}
	return true
}

func (m Matcher) matchKey(f Filter, values []string, field string) bool {
	constrained := 0
	matched := 0
	for _, v := range values {
		ok, constrains := m.matchValue(f, v, field)
		if !constrains {
			continue
		}
		constrained++
		if ok {
			matched++
		} else if m.Repeat == RepeatAll {
			return false
		}
	}
	if constrained == 0 || m.Repeat == RepeatAll {
		return true
	}
	return matched > 0
}

// matchValue tests one value. constrains is false when the value places no
// constraint under the empty-value policy.
func (m Matcher) matchValue(f Filter, v, field string) (ok, constrains bool) {
	if v == "" {
		switch m.Empty {
		case EmptyMissing:
			return field == "", true
		case EmptyNonEmpty:
			return field != "", true
		default:
			return true, false
		}
	}
	if f == FilterID {
		return field == v, true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(v)), true
}

func searchText(e Entry) string {
	parts := make([]string, 0, len(searchable))
	for _, f := range searchable {
		if v := e.Field(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// FilterEntries returns the indices of entries matching q, in input order.
// Entries are split between workers goroutines; workers <= 0 uses one per
// CPU. It returns early with the context error when ctx is cancelled.
func FilterEntries[E Entry](ctx context.Context, m Matcher, q Compiled, entries []E, workers int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if q.IsEmpty() {
		all := make([]int, len(entries))
		for i := range entries {
			all[i] = i
		}
		return all, nil
	}

	hits := make([]bool, len(entries))
	chunk := (len(entries) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(entries); lo += chunk {
		hi := min(lo+chunk, len(entries))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				hits[i] = m.Match(q, entries[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []int
	for i, hit := range hits {
		if hit {
			out = append(out, i)
		}
	}
	return out, nil
}

// Package matcher finds which catalog entities a free-text query mentions.
//
// Matching is whole-word over normalized text. Aliases are tried longest
// first and a span claimed by a longer alias cannot be reused by a shorter
// one, so "central library" never also yields a match for "library".
package matcher

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
)

// Match is one entity found in a query.
// Offset is a byte offset into Normalize(query).
type Match struct {
	Entity catalog.Entity
	Alias  string
	Offset int
}

type candidate struct {
	alias string
	index int // entity position in the catalog
	order int // position in catalog.AliasPairs
}

type span struct{ start, end int }

// Matcher is built once per catalog snapshot and is safe for concurrent use.
type Matcher struct {
	cat        *catalog.Catalog
	candidates []candidate
}

// New precomputes normalized aliases ordered by length descending, then
// catalog insertion order. An alias shared by two entities therefore
// always resolves to the one inserted first.
func New(cat *catalog.Catalog) *Matcher {
	type key struct {
		alias string
		index int
	}
	seen := make(map[key]struct{})

	var cands []candidate
	for order, p := range cat.AliasPairs() {
		a := Normalize(p.Alias)
		if a == "" {
			continue
		}
		k := key{a, p.Index}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cands = append(cands, candidate{alias: a, index: p.Index, order: order})
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(utf8.RuneCountInString(b.alias), utf8.RuneCountInString(a.alias)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.index, b.index); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	return &Matcher{cat: cat, candidates: cands}
}

// Catalog returns the snapshot the matcher was built from.
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.cat
}

// Match returns the distinct entities mentioned in query, ordered by the
// offset of their earliest mention. No mention yields an empty slice.
func (m *Matcher) Match(query string) []Match {
	text := Normalize(query)
	if text == "" || len(m.candidates) == 0 {
		return []Match{}
	}

	var claimed []span
	found := make(map[int]Match)

	for _, c := range m.candidates {
		start := findWord(text, c.alias, claimed)
		if start < 0 {
			continue
		}
		claimed = append(claimed, span{start, start + len(c.alias)})

		if prev, ok := found[c.index]; ok && prev.Offset <= start {
			continue
		}
		found[c.index] = Match{Entity: m.cat.At(c.index), Alias: c.alias, Offset: start}
	}

	out := make([]Match, 0, len(found))
	for _, mt := range found {
		out = append(out, mt)
	}
	slices.SortFunc(out, func(a, b Match) int { return cmp.Compare(a.Offset, b.Offset) })
	return out
}

// Names returns the canonical names of Match(query) in order.
func (m *Matcher) Names(query string) []string {
	matches := m.Match(query)
	names := make([]string, len(matches))
	for i, mt := range matches {
		names[i] = mt.Entity.Name
	}
	return names
}

// ContainsWord reports whether word occurs in text as a whole word.
// Both arguments are normalized first.
func ContainsWord(text, word string) bool {
	return findWord(Normalize(text), Normalize(word), nil) >= 0
}

// findWord returns the first offset where needle occurs in text bounded by
// non-word runes (or the string edges) and not overlapping a claimed span.
func findWord(text, needle string, claimed []span) int {
	if needle == "" {
		return -1
	}
	for from := 0; from <= len(text)-len(needle); {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(needle)
		if atBoundary(text, start, end) && !overlaps(claimed, start, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return -1
}

func atBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

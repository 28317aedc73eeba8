package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rank grades how well a candidate matches a query. Higher is better.
type Rank float64

// Match ranks, best first. InOrder is the floor: a candidate whose
// characters contain the query in order ranks between InOrder and Acronym.
const (
	CaseSensitiveEqual Rank = 7
	Equal              Rank = 6
	StartsWith         Rank = 5
	WordStartsWith     Rank = 4
	Contains           Rank = 3
	Acronym            Rank = 2
	InOrder            Rank = 1
	NoMatch            Rank = 0
)

// Threshold is the minimum rank a row needs to pass a text filter.
const Threshold = InOrder

// FoldDiacritics strips combining marks, so "Café" compares as "Cafe".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// RankMatch grades candidate against query.
func RankMatch(candidate, query string) Rank {
	candidate = FoldDiacritics(candidate)
	query = FoldDiacritics(query)

	if utf8.RuneCountInString(query) > utf8.RuneCountInString(candidate) {
		return NoMatch
	}
	if candidate == query {
		return CaseSensitiveEqual
	}

	candidate = strings.ToLower(candidate)
	query = strings.ToLower(query)

	switch {
	case candidate == query:
		return Equal
	case strings.HasPrefix(candidate, query):
		return StartsWith
	case strings.Contains(candidate, " "+query):
		return WordStartsWith
	case strings.Contains(candidate, query):
		return Contains
	case utf8.RuneCountInString(query) == 1:
		return NoMatch
	case strings.Contains(acronym(candidate), query):
		return Acronym
	default:
		return closeness(candidate, query)
	}
}

// acronym takes the first letter of every space or hyphen separated word.
func acronym(s string) string {
	var b strings.Builder
	for _, word := range strings.Split(s, " ") {
		for _, part := range strings.Split(word, "-") {
			if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// closeness finds the query's characters in order inside candidate and
// ranks tighter spreads higher.
func closeness(candidate, query string) Rank {
	hay := []rune(candidate)
	first, last, pos := -1, -1, 0
	for _, want := range query {
		found := false
		for pos < len(hay) {
			r := hay[pos]
			pos++
			if r == want {
				if first < 0 {
					first = pos - 1
				}
				last = pos - 1
				found = true
				break
			}
		}
		if !found {
			return NoMatch
		}
	}
	spread := last - first
	if spread <= 0 {
		return InOrder
	}
	return InOrder + Rank(1/float64(spread))
}

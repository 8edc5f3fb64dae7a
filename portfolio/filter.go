package portfolio

import (
	"strings"
	"unicode"

	"github.com/jrsteele09/go-portfolio/locale"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter returns the items keep accepts, in order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// fold makes text comparable regardless of case and accents, so "ecole"
// finds "École".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// MatchesQuery reports whether every word of query occurs in at least one of
// texts. An empty query matches everything.
func MatchesQuery(query string, texts ...string) bool {
	words := strings.Fields(fold(query))
	if len(words) == 0 {
		return true
	}
	haystack := fold(strings.Join(texts, "\n"))
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

// FilterProjects narrows projects to those matching query in l and, when
// tech is set, using that technology.
func FilterProjects(projects []Project, query, tech string, l locale.Locale) []Project {
	return Filter(projects, func(p Project) bool {
		if tech != "" && !hasTechnology(p, tech) {
			return false
		}
		texts := append([]string{p.Title.In(l), p.Summary.In(l), p.Description.In(l)}, p.Technologies...)
		return MatchesQuery(query, texts...)
	})
}

func hasTechnology(p Project, tech string) bool {
	want := fold(tech)
	for _, t := range p.Technologies {
		if fold(t) == want {
			return true
		}
	}
	return false
}

// Technologies returns every technology used across projects, de-duplicated
// case-insensitively, in first-seen order.
func Technologies(projects []Project) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range projects {
		for _, t := range p.Technologies {
			key := fold(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

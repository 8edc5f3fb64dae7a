package portfolio

import (
	"cmp"
	"slices"
	"time"
)

// PathCount is the number of visits one path received.
type PathCount struct {
	Path  string
	Count int
}

// VisitSummary is what the backoffice dashboard shows about traffic.
type VisitSummary struct {
	Total    int
	ByLocale map[string]int
	TopPaths []PathCount
	Last     time.Time
}

// SummarizeVisits tallies rows already returned by the backend. top limits
// TopPaths; zero keeps every path.
func SummarizeVisits(visits []Visit, top int) VisitSummary {
	s := VisitSummary{Total: len(visits), ByLocale: make(map[string]int)}
	byPath := make(map[string]int)
	for _, v := range visits {
		byPath[v.Path]++
		if v.Locale != "" {
			s.ByLocale[v.Locale]++
		}
		if v.VisitedAt.After(s.Last) {
			s.Last = v.VisitedAt
		}
	}

	for path, n := range byPath {
		s.TopPaths = append(s.TopPaths, PathCount{Path: path, Count: n})
	}
	slices.SortFunc(s.TopPaths, func(a, b PathCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	if top > 0 && len(s.TopPaths) > top {
		s.TopPaths = s.TopPaths[:top]
	}
	return s
}

package repository

import (
	"sort"
	"strings"
)

// ============================================================
// Fuzzy catalog matching
// ============================================================

// Match is one ranked candidate for a queried furniture code.
type Match struct {
	Code  string `json:"code"`
	W     int    `json:"W"`
	D     int    `json:"D"`
	H     int    `json:"H"`
	Score int    `json:"score"`
}

// Rank scores every catalog item against the queried code and returns the
// best candidates, highest score first.
func Rank(catalog []CatalogItem, code string, limit int) []Match {
	matches := make([]Match, 0, len(catalog))
	for _, item := range catalog {
		matches = append(matches, Match{
			Code:  item.Code,
			W:     item.W,
			D:     item.D,
			H:     item.H,
			Score: Score(code, item.Code),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Score computes a similarity percentage between two codes based on the
// edit distance over the longer length. Case is ignored.
func Score(a, b string) int {
	a = strings.ToUpper(a)
	b = strings.ToUpper(b)
	if a == b {
		return 100
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 100
	}
	dist := editDistance(a, b)
	return (longest - dist) * 100 / longest
}

// editDistance is the Levenshtein distance with a two-row table.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

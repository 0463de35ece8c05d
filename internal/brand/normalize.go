// Package brand matches a freshly observed brand against the existing brand
// vocabulary so near-duplicates are not created.
package brand

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/xelth-com/eckreceive/internal/utils"
)

// MatchType describes which rule produced a Result
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchSimilar  MatchType = "similar"
	MatchNone     MatchType = "none"
)

// minSimilarToken is the shortest shared first word that counts as similar
const minSimilarToken = 4

// Result is the outcome of Normalize
type Result struct {
	Match       string    `json:"match,omitempty"`
	MatchType   MatchType `json:"match_type"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Normalize checks candidate against existing brands. The first rule that fires wins:
// exact (case-insensitive), containment in either direction (longest brand wins),
// shared first word longer than three characters (suggestions only), none.
func Normalize(candidate string, existing []string) Result {
	cand := utils.Fold(candidate)
	if cand == "" {
		return Result{MatchType: MatchNone}
	}

	brands := make([]string, 0, len(existing))
	folded := make([]string, 0, len(existing))
	for _, b := range existing {
		f := utils.Fold(b)
		if f == "" {
			continue
		}
		brands = append(brands, strings.TrimSpace(b))
		folded = append(folded, f)
	}

	for i, f := range folded {
		if f == cand {
			return Result{Match: brands[i], MatchType: MatchExact}
		}
	}

	var contains []string
	for i, f := range folded {
		if strings.Contains(cand, f) || strings.Contains(f, cand) {
			contains = append(contains, brands[i])
		}
	}
	if len(contains) > 0 {
		sort.SliceStable(contains, func(a, b int) bool {
			return len(contains[a]) > len(contains[b])
		})
		return Result{Match: contains[0], MatchType: MatchContains, Suggestions: contains[1:]}
	}

	first := firstToken(cand)
	if len(first) >= minSimilarToken {
		var similar []string
		for i, f := range folded {
			if firstToken(f) == first {
				similar = append(similar, brands[i])
			}
		}
		if len(similar) > 0 {
			rankByDistance(candidate, similar)
			return Result{MatchType: MatchSimilar, Suggestions: similar}
		}
	}

	return Result{MatchType: MatchNone}
}

func firstToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// rankByDistance orders suggestions closest-first by edit distance
func rankByDistance(candidate string, suggestions []string) {
	target := []rune(utils.Fold(candidate))
	dist := make(map[string]int, len(suggestions))
	for _, s := range suggestions {
		dist[s] = levenshtein.DistanceForStrings(target, []rune(utils.Fold(s)), levenshtein.DefaultOptions)
	}
	sort.SliceStable(suggestions, func(a, b int) bool {
		return dist[suggestions[a]] < dist[suggestions[b]]
	})
}

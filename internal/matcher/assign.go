package matcher

import (
	"fmt"
	"sort"

	"github.com/xelth-com/eckreceive/internal/models"
)

// Strategy selects how receipt lines are handed out to scanned items
type Strategy string

const (
	// Greedy gives each item, in scan order, its best remaining line.
	Greedy Strategy = "greedy"
	// BestFirst assigns the highest scoring pairs first across all items.
	BestFirst Strategy = "best-first"
)

// Pair is an accepted item/line assignment
type Pair struct {
	Item  int
	Line  int
	Score float64
}

// Matcher holds the acceptance thresholds
type Matcher struct {
	Accept   float64
	High     float64
	Strategy Strategy
}

// New returns a Matcher, rejecting unknown strategies
func New(accept, high float64, strategy string) (*Matcher, error) {
	s := Strategy(strategy)
	switch s {
	case "":
		s = Greedy
	case Greedy, BestFirst:
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}
	return &Matcher{Accept: accept, High: high, Strategy: s}, nil
}

// Default returns the 0.3 / 0.6 greedy matcher
func Default() *Matcher {
	return &Matcher{Accept: 0.3, High: 0.6, Strategy: Greedy}
}

// Accepts reports whether score is enough to attach a price
func (m *Matcher) Accepts(score float64) bool {
	return score >= m.Accept
}

// Tier maps an accepted score to its confidence label
func (m *Matcher) Tier(score float64) models.Confidence {
	if score >= m.High {
		return models.ConfidenceFuzzyHigh
	}
	return models.ConfidenceFuzzyMedium
}

// Assign picks item/line pairs from scores[item][line]. Lines are used at most once.
func (m *Matcher) Assign(scores [][]float64) []Pair {
	if m.Strategy == BestFirst {
		return m.bestFirst(scores)
	}
	return m.greedy(scores)
}

func (m *Matcher) greedy(scores [][]float64) []Pair {
	used := make(map[int]bool)
	var pairs []Pair
	for item, row := range scores {
		best, bestScore := -1, 0.0
		for line, s := range row {
			if used[line] {
				continue
			}
			// strict comparison keeps the earliest line on ties
			if best == -1 || s > bestScore {
				best, bestScore = line, s
			}
		}
		if best >= 0 && m.Accepts(bestScore) {
			used[best] = true
			pairs = append(pairs, Pair{Item: item, Line: best, Score: bestScore})
		}
	}
	return pairs
}

func (m *Matcher) bestFirst(scores [][]float64) []Pair {
	var all []Pair
	for item, row := range scores {
		for line, s := range row {
			if m.Accepts(s) {
				all = append(all, Pair{Item: item, Line: line, Score: s})
			}
		}
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Score > all[b].Score
	})

	usedItem := make(map[int]bool)
	usedLine := make(map[int]bool)
	var pairs []Pair
	for _, p := range all {
		if usedItem[p.Item] || usedLine[p.Line] {
			continue
		}
		usedItem[p.Item], usedLine[p.Line] = true, true
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Item < pairs[b].Item })
	return pairs
}

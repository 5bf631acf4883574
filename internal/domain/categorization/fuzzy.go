package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatch is a rule match found by approximate comparison.
type FuzzyMatch struct {
	Rule  Rule
	Score int // similarity 0..100
}

// FuzzyMatcher catches merchant strings the exact automaton misses: OCR
// output drops and swaps characters, so "PYATER0CHKA" still has to land on
// the Пятёрочка rule.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	normalized string
	rule       Rule
}

// NewFuzzyMatcher builds a fuzzy matcher over the given rules.
func NewFuzzyMatcher(rules []Rule) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(rules)
	return fm
}

// Build reconstructs the pattern list.
func (fm *FuzzyMatcher) Build(rules []Rule) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.patterns = make([]fuzzyPattern, 0, len(rules))
	for _, rule := range rules {
		normalized := strings.ToUpper(strings.TrimSpace(rule.Pattern))
		if normalized == "" {
			continue
		}
		fm.patterns = append(fm.patterns, fuzzyPattern{normalized: normalized, rule: rule})
	}
}

// Match returns the best match scoring at or above threshold, or nil.
func (fm *FuzzyMatcher) Match(text string, threshold int) *FuzzyMatch {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 || text == "" {
		return nil
	}
	normalized := strings.ToUpper(text)

	var best *FuzzyMatch
	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score ||
			(score == best.Score && p.rule.Priority > best.Rule.Priority) {
			best = &FuzzyMatch{Rule: p.rule, Score: score}
		}
	}
	return best
}

// MatchAll returns every match at or above threshold, best first. Used by
// the review flow to offer category suggestions.
func (fm *FuzzyMatcher) MatchAll(text string, threshold int) []FuzzyMatch {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 || text == "" {
		return nil
	}
	normalized := strings.ToUpper(text)

	var results []FuzzyMatch
	for _, p := range fm.patterns {
		if score := fuzzyScore(normalized, p.normalized); score >= threshold {
			results = append(results, FuzzyMatch{Rule: p.rule, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// fuzzyScore rates the similarity of text and pattern on a 0..100 scale:
// containment first, then Levenshtein distance, then subsequence rank.
func fuzzyScore(text, pattern string) int {
	if text == pattern {
		return 100
	}
	if strings.Contains(text, pattern) {
		return 75 + 25*len(pattern)/len(text)
	}
	if strings.Contains(pattern, text) {
		return 75 + 25*len(text)/len(pattern)
	}

	distance := levenshteinDistance(text, pattern)
	maxLen := len(text)
	if len(pattern) > maxLen {
		maxLen = len(pattern)
	}
	if maxLen == 0 {
		return 0
	}
	score := 100 * (maxLen - distance) / maxLen

	// Subsequence match: "PYATER CHKA" still ranks against "PYATEROCHKA".
	if rank := fuzzy.RankMatch(pattern, text); rank >= 0 && rank < len(text) {
		if sub := 60 - rank*40/len(text); sub > score {
			score = sub
		}
	}
	return score
}

// levenshteinDistance is the rune-wise edit distance, two-row variant.
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func minOf(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

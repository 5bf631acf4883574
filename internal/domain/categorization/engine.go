package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Engine matches rule patterns against statement text with the Aho-Corasick
// algorithm: one pass through the text regardless of how many patterns are
// loaded.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string // unique normalized patterns, same order as matcher
	rules    [][]Rule // rules per pattern; duplicates group together
	mu       sync.RWMutex
}

// NewEngine builds an engine over the given rules.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build reconstructs the automaton. Safe to call when the rule file is
// reloaded.
func (e *Engine) Build(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	patternIndex := make(map[string]int, len(rules))
	patterns := make([]string, 0, len(rules))
	grouped := make([][]Rule, 0, len(rules))

	for _, rule := range rules {
		normalized := strings.ToUpper(strings.TrimSpace(rule.Pattern))
		if normalized == "" {
			continue
		}
		if idx, ok := patternIndex[normalized]; ok {
			grouped[idx] = append(grouped[idx], rule)
			continue
		}
		patternIndex[normalized] = len(patterns)
		patterns = append(patterns, normalized)
		grouped = append(grouped, []Rule{rule})
	}

	e.patterns = patterns
	e.rules = grouped
	if len(patterns) == 0 {
		e.matcher = nil
		return
	}

	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match returns the best matching rule for the text, or nil. Priority wins;
// on equal priority the longer pattern does, since "яндекс такси" is a more
// specific signal than "такси".
func (e *Engine) Match(text string) *Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || text == "" {
		return nil
	}

	matches := e.matcher.Match([]byte(strings.ToUpper(text)))
	if len(matches) == 0 {
		return nil
	}

	var best *Rule
	bestLen := 0
	for _, idx := range matches {
		if idx < 0 || idx >= len(e.rules) {
			continue
		}
		patternLen := len(e.patterns[idx])
		for i := range e.rules[idx] {
			rule := &e.rules[idx][i]
			if best == nil ||
				rule.Priority > best.Priority ||
				(rule.Priority == best.Priority && patternLen > bestLen) {
				best = rule
				bestLen = patternLen
			}
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// PatternCount returns the number of distinct patterns loaded.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// IsEmpty reports whether the engine has no patterns.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matcher == nil
}

package categorization

import (
	"strings"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// DefaultFuzzyThreshold is the minimum similarity score for accepting a
// fuzzy match automatically. Below it a suggestion is review material, not
// a categorization.
const DefaultFuzzyThreshold = 70

// Categorizer combines exact and fuzzy rule matching over transaction
// records.
type Categorizer struct {
	engine    *Engine
	fuzzy     *FuzzyMatcher
	threshold int
}

// New builds a categorizer over the given rules.
func New(rules []Rule) *Categorizer {
	return &Categorizer{
		engine:    NewEngine(rules),
		fuzzy:     NewFuzzyMatcher(rules),
		threshold: DefaultFuzzyThreshold,
	}
}

// Apply categorizes one record in place and reports whether a rule matched.
// Bank-printed categories ("Супермаркеты") are rule input, not output: a
// matching rule replaces them with the ledger's own category tree. Transfers
// carry no category and are left alone.
func (c *Categorizer) Apply(rec *transaction.Record) bool {
	if rec.Type == transaction.TypeTransfer {
		return false
	}

	text := strings.TrimSpace(rec.Merchant + " " + rec.Description + " " + rec.Category)

	rule := c.engine.Match(text)
	if rule == nil {
		// The automaton needs exact substrings; OCR noise gets a second
		// chance against the merchant alone.
		if m := c.fuzzy.Match(rec.Merchant, c.threshold); m != nil {
			rule = &m.Rule
		}
	}
	if rule == nil {
		return false
	}

	rec.Category = rule.Category
	rec.Subcategory = rule.Subcategory
	if rule.Merchant != "" {
		rec.Merchant = rule.Merchant
	}
	return true
}

// ApplyAll categorizes a batch and returns how many records matched a rule.
func (c *Categorizer) ApplyAll(records []*transaction.Record) int {
	matched := 0
	for _, rec := range records {
		if c.Apply(rec) {
			matched++
		}
	}
	return matched
}

// Suggest returns ranked rule suggestions for a piece of statement text,
// for the manual review flow.
func (c *Categorizer) Suggest(text string, limit int) []FuzzyMatch {
	matches := c.fuzzy.MatchAll(text, c.threshold/2)
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}

// Reload swaps in a new rule set.
func (c *Categorizer) Reload(rules []Rule) {
	c.engine.Build(rules)
	c.fuzzy.Build(rules)
}

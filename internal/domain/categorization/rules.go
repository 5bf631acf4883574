// Package categorization assigns categories and clean merchant names to
// transaction records. Exact keyword matching runs through an Aho-Corasick
// automaton; a fuzzy matcher catches OCR-garbled merchant strings the
// automaton misses.
package categorization

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps a merchant/description pattern to a category. Patterns are
// matched as case-insensitive substrings.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory,omitempty"`
	// Merchant is the clean display name assigned on match, e.g.
	// "Пятёрочка" for the raw "PYATEROCHKA 20477".
	Merchant string `yaml:"merchant,omitempty"`
	// Priority breaks ties when several patterns match. Higher wins.
	Priority int `yaml:"priority,omitempty"`
}

// RuleSet is the on-disk rule file shape.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file. Rules with an empty pattern or category
// are rejected so typos fail loudly at startup instead of silently never
// matching.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	for i, r := range set.Rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("rule %d: pattern is empty", i+1)
		}
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("rule %d (%q): category is empty", i+1, r.Pattern)
		}
	}
	return set.Rules, nil
}

// DefaultRules covers the categories Russian bank statements print and the
// merchants that show up in nearly every card statement. A user rule file
// extends or overrides these via priority.
func DefaultRules() []Rule {
	// Merchant rules carry priority 1: a concrete merchant is a stronger
	// signal than the bank's own category keyword on the same line.
	return []Rule{
		{Pattern: "супермаркеты", Category: "Продукты"},
		{Pattern: "pyaterochka", Category: "Продукты", Merchant: "Пятёрочка", Priority: 1},
		{Pattern: "magnit", Category: "Продукты", Merchant: "Магнит", Priority: 1},
		{Pattern: "perekrestok", Category: "Продукты", Merchant: "Перекрёсток", Priority: 1},
		{Pattern: "яндекс лавка", Category: "Продукты", Merchant: "Яндекс Лавка", Priority: 1},
		{Pattern: "яндекс еда", Category: "Кафе и рестораны", Subcategory: "Доставка", Merchant: "Яндекс Еда", Priority: 1},
		{Pattern: "рестораны и кафе", Category: "Кафе и рестораны"},
		{Pattern: "яндекс такси", Category: "Транспорт", Subcategory: "Такси", Merchant: "Яндекс Такси", Priority: 1},
		{Pattern: "taxi", Category: "Транспорт", Subcategory: "Такси"},
		{Pattern: "азс", Category: "Транспорт", Subcategory: "Топливо"},
		{Pattern: "аптек", Category: "Здоровье", Subcategory: "Аптеки"},
		{Pattern: "жкх", Category: "Дом", Subcategory: "Коммунальные платежи"},
		{Pattern: "мобильная связь", Category: "Связь"},
		{Pattern: "зачисление зарплаты", Category: "Зарплата", Priority: 10},
		{Pattern: "капитализация", Category: "Проценты по вкладам", Priority: 10},
	}
}

package categorization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

func TestEngine_Match(t *testing.T) {
	engine := NewEngine(DefaultRules())

	t.Run("bank category keyword", func(t *testing.T) {
		rule := engine.Match("Супермаркеты PYATEROCHKA 20477 Shakhty")
		require.NotNil(t, rule)
		assert.Equal(t, "Продукты", rule.Category)
	})

	t.Run("merchant rule carries the clean name", func(t *testing.T) {
		rule := engine.Match("ЯНДЕКС ТАКСИ поездка")
		require.NotNil(t, rule)
		assert.Equal(t, "Яндекс Такси", rule.Merchant)
		assert.Equal(t, "Такси", rule.Subcategory)
	})

	t.Run("merchant rule beats bank category keyword", func(t *testing.T) {
		rule := engine.Match("Супермаркеты PYATEROCHKA 20477")
		require.NotNil(t, rule)
		assert.Equal(t, "Пятёрочка", rule.Merchant)
	})

	t.Run("longer pattern wins on equal priority", func(t *testing.T) {
		rules := []Rule{
			{Pattern: "такси", Category: "Транспорт"},
			{Pattern: "яндекс такси", Category: "Транспорт", Merchant: "Яндекс Такси"},
		}
		rule := NewEngine(rules).Match("ЯНДЕКС ТАКСИ поездка")
		require.NotNil(t, rule)
		assert.Equal(t, "Яндекс Такси", rule.Merchant)
	})

	t.Run("priority beats pattern length", func(t *testing.T) {
		rules := []Rule{
			{Pattern: "перевод между счетами", Category: "Переводы"},
			{Pattern: "перевод", Category: "Особый", Priority: 50},
		}
		rule := NewEngine(rules).Match("Перевод между счетами")
		require.NotNil(t, rule)
		assert.Equal(t, "Особый", rule.Category)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, engine.Match("непонятная операция"))
	})

	t.Run("empty engine", func(t *testing.T) {
		e := NewEngine(nil)
		assert.True(t, e.IsEmpty())
		assert.Nil(t, e.Match("PYATEROCHKA"))
	})
}

func TestFuzzyMatcher_Match(t *testing.T) {
	fm := NewFuzzyMatcher(DefaultRules())

	t.Run("ocr-garbled merchant", func(t *testing.T) {
		m := fm.Match("PYATER0CHKA", DefaultFuzzyThreshold)
		require.NotNil(t, m)
		assert.Equal(t, "Продукты", m.Rule.Category)
		assert.GreaterOrEqual(t, m.Score, DefaultFuzzyThreshold)
	})

	t.Run("below threshold", func(t *testing.T) {
		assert.Nil(t, fm.Match("СОВЕРШЕННО ДРУГОЕ", 90))
	})

	t.Run("match all is sorted", func(t *testing.T) {
		matches := fm.MatchAll("яндекс такси", 40)
		require.NotEmpty(t, matches)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})
}

func TestCategorizer_Apply(t *testing.T) {
	c := New(DefaultRules())

	t.Run("replaces bank category", func(t *testing.T) {
		rec := &transaction.Record{
			Type:        transaction.TypeExpense,
			Amount:      decimal.RequireFromString("204.98"),
			Category:    "Супермаркеты",
			Merchant:    "PYATEROCHKA 20477 Shakhty",
			Description: "PYATEROCHKA 20477 Shakhty RUS",
		}
		require.True(t, c.Apply(rec))
		assert.Equal(t, "Продукты", rec.Category)
		assert.Equal(t, "Пятёрочка", rec.Merchant)
	})

	t.Run("transfer is left alone", func(t *testing.T) {
		rec := &transaction.Record{
			Type:        transaction.TypeTransfer,
			Description: "Перевод на вклад",
		}
		assert.False(t, c.Apply(rec))
		assert.Empty(t, rec.Category)
	})

	t.Run("unmatched record keeps its fields", func(t *testing.T) {
		rec := &transaction.Record{
			Type:        transaction.TypeExpense,
			Merchant:    "NEIZVESTNO",
			Description: "непонятная операция",
		}
		assert.False(t, c.Apply(rec))
		assert.Equal(t, "NEIZVESTNO", rec.Merchant)
	})

	t.Run("batch count", func(t *testing.T) {
		records := []*transaction.Record{
			{Type: transaction.TypeExpense, Description: "ЯНДЕКС ЛАВКА"},
			{Type: transaction.TypeExpense, Description: "непонятно"},
			{Type: transaction.TypeIncome, Description: "Зачисление зарплаты"},
		}
		assert.Equal(t, 2, c.ApplyAll(records))
	})
}

func TestCategorizer_Suggest(t *testing.T) {
	c := New(DefaultRules())

	t.Run("returns ranked suggestions", func(t *testing.T) {
		matches := c.Suggest("PYATER0CHKA 20477", 5)
		require.NotEmpty(t, matches)
		assert.Equal(t, "Продукты", matches[0].Rule.Category)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		matches := c.Suggest("яндекс", 1)
		assert.LessOrEqual(t, len(matches), 1)
	})

	t.Run("nothing plausible", func(t *testing.T) {
		assert.Empty(t, c.Suggest("", 5))
	})
}

func TestLoadRules(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `rules:
  - pattern: ozon
    category: Покупки
    merchant: Ozon
  - pattern: вкусвилл
    category: Продукты
    subcategory: Доставка
    priority: 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, "Ozon", rules[0].Merchant)
		assert.Equal(t, 5, rules[1].Priority)
	})

	t.Run("missing category rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - pattern: ozon\n"), 0o644))
		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules("/nonexistent/rules.yaml")
		assert.Error(t, err)
	})
}

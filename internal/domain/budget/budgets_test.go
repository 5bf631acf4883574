package budget

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBudgets(t *testing.T) {
	period := Month(2025, time.January)

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "budgets.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		content := `budgets:
  - category: Продукты
    limit: "30000"
  - category: Транспорт
    subcategory: Такси
    limit: "5000.50"
`
		budgets, err := LoadBudgets(write(t, content), period)
		require.NoError(t, err)
		require.Len(t, budgets, 2)
		assert.Equal(t, "Продукты", budgets[0].Category)
		assert.Equal(t, "30000", budgets[0].Limit.String())
		assert.Equal(t, period, budgets[0].Period)
		assert.Equal(t, "Такси", budgets[1].Subcategory)
	})

	t.Run("missing category rejected", func(t *testing.T) {
		_, err := LoadBudgets(write(t, "budgets:\n  - limit: \"100\"\n"), period)
		assert.Error(t, err)
	})

	t.Run("non-positive limit rejected", func(t *testing.T) {
		_, err := LoadBudgets(write(t, "budgets:\n  - category: X\n    limit: \"0\"\n"), period)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBudgets("/nonexistent/budgets.yaml", period)
		assert.Error(t, err)
	})
}

func TestParseMonth(t *testing.T) {
	p, err := ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.From)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.To)

	_, err = ParseMonth("February 2025")
	assert.Error(t, err)
}

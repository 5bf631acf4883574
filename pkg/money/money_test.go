package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		want     string
		negative bool
	}{
		{"plain integer", "1500", "1500", false},
		{"comma decimal", "204,98", "204.98", false},
		{"dot decimal", "204.98", "204.98", false},
		{"space thousands with comma decimal", "1 500,00", "1500", false},
		{"nbsp thousands", "97 005,99", "97005.99", false},
		{"european grouping", "1.234,56", "1234.56", false},
		{"american grouping", "1,234.56", "1234.56", false},
		{"ascii minus", "-250,00", "250", true},
		{"en dash minus", "–250,00", "250", true},
		{"unicode minus", "−250,00", "250", true},
		{"parenthesized negative", "(42.00)", "42", true},
		{"ruble sign", "1 500,00 ₽", "1500", false},
		{"rub suffix", "204,98 руб.", "204.98", false},
		{"plus prefix", "+3 000,00", "3000", false},
		{"comma thousands only", "1,234,567", "1234567", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, neg, err := ParseAmount(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.negative, neg)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}

	t.Run("rejects empty input", func(t *testing.T) {
		_, _, err := ParseAmount("  ")
		assert.Error(t, err)
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, _, err := ParseAmount("Супермаркеты")
		assert.Error(t, err)
	})
}

func TestMoney(t *testing.T) {
	t.Run("round-trips decimal amounts", func(t *testing.T) {
		d := decimal.RequireFromString("204.98")
		m := NewFromDecimal(d, RUB)
		assert.Equal(t, int64(20498), m.Minor())
		assert.True(t, m.Decimal().Equal(d))
		assert.Equal(t, RUB, m.Currency())
	})

	t.Run("adds matching currencies", func(t *testing.T) {
		sum, err := New(150, RUB).Add(New(50, RUB))
		require.NoError(t, err)
		assert.Equal(t, int64(200), sum.Minor())
	})

	t.Run("refuses mixed currencies", func(t *testing.T) {
		_, err := New(150, RUB).Add(New(50, USD))
		assert.Error(t, err)
	})
}

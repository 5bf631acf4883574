package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

func TestFormatAmount(t *testing.T) {
	t.Run("ruble amounts carry the ruble sign", func(t *testing.T) {
		s := formatAmount(decimal.RequireFromString("204.98"), "RUB")
		assert.Contains(t, s, "₽")
		assert.Contains(t, s, "204")
	})

	t.Run("dollar amounts carry the dollar sign", func(t *testing.T) {
		s := formatAmount(decimal.NewFromInt(1500), "USD")
		assert.Contains(t, s, "$")
	})

	t.Run("unknown currency falls back to the default", func(t *testing.T) {
		s := formatAmount(decimal.NewFromInt(100), "???")
		assert.NotEmpty(t, s)
	})
}

func TestPrintRecords(t *testing.T) {
	records := []*transaction.Record{
		{
			Date:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Type:     transaction.TypeExpense,
			Account:  "Карта",
			Amount:   decimal.RequireFromString("204.98"),
			Currency: "RUB",
			Category: "Продукты",
			Merchant: "Пятёрочка",
			Status:   transaction.StatusOK,
		},
	}

	var buf bytes.Buffer
	printRecords(&buf, records)

	out := buf.String()
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "15.01.2025")
	assert.Contains(t, out, "₽", "amounts render with the currency symbol")
	assert.Contains(t, out, "Пятёрочка")
	assert.Contains(t, out, "1 records")
}

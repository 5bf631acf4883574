package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuznetsov/homeledger/internal/domain/import/parser"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

func testOptions() Options {
	return Options{
		Source:          transaction.SourceSberbankPDF,
		DefaultCurrency: "RUB",
		DefaultAccount:  "Карта",
		Location:        time.UTC,
	}
}

func TestNormalize_StatementRecord(t *testing.T) {
	raw := parser.RawRecord{
		Line:        4,
		Date:        "29.10.2025",
		Time:        "18:36",
		AuthCode:    "574763",
		TypeHint:    transaction.TypeExpense,
		Amount:      decimal.RequireFromString("204.98"),
		AmountRaw:   "204,98",
		Category:    "Супермаркеты",
		Description: "PYATEROCHKA 20477 Shakhty RUS. Операция по карте ****7426",
	}

	rec := Normalize(raw, testOptions())

	assert.NotEqual(t, "", rec.ID.String())
	assert.Equal(t, time.Date(2025, 10, 29, 18, 36, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, transaction.TypeExpense, rec.Type)
	assert.Equal(t, "Карта", rec.Account)
	assert.Equal(t, "204.98", rec.Amount.String())
	assert.Equal(t, "RUB", rec.Currency)
	assert.Equal(t, "Супермаркеты", rec.Category)
	assert.Equal(t, "PYATEROCHKA 20477 Shakhty", rec.Merchant)
	assert.Equal(t, transaction.SourceSberbankPDF, rec.Source)
	assert.Equal(t, "291020251836574763", rec.SourceID)
	assert.Equal(t, transaction.StatusOK, rec.Status)
	assert.Empty(t, rec.Errors)
}

func TestNormalize_ParseErrorBecomesNeedsReview(t *testing.T) {
	raw := parser.RawRecord{
		Date:        "30.10.2025",
		Description: "Рестораны и кафе",
		ParseErr:    "could not extract amount",
	}

	rec := Normalize(raw, testOptions())

	assert.Equal(t, transaction.StatusNeedsReview, rec.Status)
	require.NotEmpty(t, rec.Errors)
	assert.Equal(t, "record", rec.Errors[0].Field)
	assert.Equal(t, "could not extract amount", rec.Errors[0].Message)
	// The amount violation from validation is there too.
	fields := make([]string, 0, len(rec.Errors))
	for _, e := range rec.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "amount")
}

func TestNormalize_BadDate(t *testing.T) {
	raw := parser.RawRecord{
		Date:     "вчера",
		TypeHint: transaction.TypeExpense,
		Amount:   decimal.NewFromInt(100),
	}

	rec := Normalize(raw, testOptions())

	assert.Equal(t, transaction.StatusNeedsReview, rec.Status)
	fields := make([]string, 0, len(rec.Errors))
	for _, e := range rec.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "date")
}

func TestNormalize_Defaults(t *testing.T) {
	raw := parser.RawRecord{
		Date:   "2025-01-15",
		Amount: decimal.NewFromInt(500),
	}

	rec := Normalize(raw, testOptions())

	assert.Equal(t, transaction.TypeExpense, rec.Type, "missing type defaults to expense")
	assert.Equal(t, "Карта", rec.Account)
	assert.Equal(t, "RUB", rec.Currency)
	assert.Equal(t, transaction.StatusOK, rec.Status)
}

func TestNormalize_ReimportKeepsSourceAndStatus(t *testing.T) {
	raw := parser.RawRecord{
		Date:     "15.01.2025",
		TypeHint: transaction.TypeExpense,
		Amount:   decimal.NewFromInt(1500),
		Account:  "Карта",
		Source:   transaction.SourceSberbank,
		SourceID: "op-42",
		Status:   string(transaction.StatusDeleted),
	}

	opts := testOptions()
	opts.Source = transaction.SourceCSV

	rec := Normalize(raw, opts)

	assert.Equal(t, transaction.SourceSberbank, rec.Source, "re-import keeps the original source tag")
	assert.Equal(t, "op-42", rec.SourceID)
	assert.Equal(t, transaction.StatusDeleted, rec.Status)
	assert.Equal(t, transaction.SourceSberbank+":op-42", rec.DedupeKey())
}

func TestNormalize_CurrencyAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "RUB"},
		{"руб.", "RUB"},
		{"₽", "RUB"},
		{"usd", "USD"},
		{"EUR", "EUR"},
	}
	for _, tt := range tests {
		raw := parser.RawRecord{
			Date:     "15.01.2025",
			TypeHint: transaction.TypeIncome,
			Amount:   decimal.NewFromInt(1),
			Currency: tt.in,
		}
		rec := Normalize(raw, testOptions())
		assert.Equal(t, tt.want, rec.Currency, "currency %q", tt.in)
	}
}

func TestDeriveMerchant(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"PYATEROCHKA 20477 Shakhty RUS. Операция по карте ****7426", "PYATEROCHKA 20477 Shakhty"},
		{"MAGNIT MM KOSMOS Rostov-na-Donu RUS", "MAGNIT MM KOSMOS Rostov-na-Donu"},
		// İ lowercases to a longer byte sequence; the cut must not shift.
		{"İSTANBUL KAHVE İstanbul TUR. Операция по карте ****7426", "İSTANBUL KAHVE İstanbul TUR"},
		{"ЯНДЕКС ЛАВКА", "ЯНДЕКС ЛАВКА"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveMerchant(tt.description), "description %q", tt.description)
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	raws := []parser.RawRecord{
		{Date: "15.01.2025", TypeHint: transaction.TypeExpense, Amount: decimal.NewFromInt(1), Description: "first"},
		{Date: "16.01.2025", TypeHint: transaction.TypeExpense, Amount: decimal.NewFromInt(2), Description: "second"},
	}

	records := NormalizeAll(raws, testOptions())
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Description)
	assert.Equal(t, "second", records[1].Description)
}

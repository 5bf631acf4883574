package transaction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExpense() *Record {
	return &Record{
		Date:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:     TypeExpense,
		Account:  "Карта",
		Amount:   decimal.NewFromInt(1500),
		Currency: "RUB",
		Source:   SourceCSV,
		Status:   StatusOK,
	}
}

func TestRecord_Validate(t *testing.T) {
	t.Run("valid expense has no errors", func(t *testing.T) {
		assert.Empty(t, validExpense().Validate())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		r := validExpense()
		r.Amount = decimal.Zero
		errs := r.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "amount", errs[0].Field)

		r.Amount = decimal.NewFromInt(-100)
		errs = r.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "amount", errs[0].Field)
	})

	t.Run("transfer requires distinct destination account", func(t *testing.T) {
		r := validExpense()
		r.Type = TypeTransfer

		errs := r.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "account_to", errs[0].Field)

		r.AccountTo = r.Account
		errs = r.Validate()
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "differ")

		r.AccountTo = "Вклад"
		assert.Empty(t, r.Validate())
	})

	t.Run("transfer forbids category", func(t *testing.T) {
		r := validExpense()
		r.Type = TypeTransfer
		r.AccountTo = "Вклад"
		r.Category = "Продукты"

		errs := r.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "category", errs[0].Field)
	})

	t.Run("account_to forbidden outside transfers", func(t *testing.T) {
		r := validExpense()
		r.AccountTo = "Вклад"
		errs := r.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, "account_to", errs[0].Field)
	})

	t.Run("collects multiple failures", func(t *testing.T) {
		r := &Record{Type: Type("bogus")}
		errs := r.Validate()
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"date", "type", "amount", "account", "currency"}, fields)
	})
}

func TestRecord_DedupeKey(t *testing.T) {
	t.Run("prefers explicit source id", func(t *testing.T) {
		r := validExpense()
		r.Source = SourceSberbank
		r.SourceID = "20250115|18:36|574763"
		assert.Equal(t, "import:sberbank:20250115|18:36|574763", r.DedupeKey())
	})

	t.Run("hashes canonical fields without source id", func(t *testing.T) {
		r := validExpense()
		// md5("2025-01-15|Карта|1500|expense")
		assert.Equal(t, "import:csv:230fd18a03d4cceed48c477bcf4d3eb8", r.DedupeKey())
	})

	t.Run("is stable across invocations", func(t *testing.T) {
		r := validExpense()
		assert.Equal(t, r.DedupeKey(), r.DedupeKey())
		assert.Equal(t, r.DedupeKey(), r.Clone().DedupeKey())
	})

	t.Run("trims trailing zeros from amounts", func(t *testing.T) {
		a := validExpense()
		a.Amount = decimal.RequireFromString("1500.00")
		b := validExpense()
		b.Amount = decimal.NewFromInt(1500)
		assert.Equal(t, b.DedupeKey(), a.DedupeKey())
	})
}

func TestRecord_CountsInAggregates(t *testing.T) {
	r := validExpense()
	assert.True(t, r.CountsInAggregates())

	r.Status = StatusNeedsReview
	assert.True(t, r.CountsInAggregates())

	r.Status = StatusDeleted
	assert.False(t, r.CountsInAggregates())

	r.Status = StatusDuplicate
	assert.False(t, r.CountsInAggregates())
}

func TestRecord_Clone(t *testing.T) {
	r := validExpense()
	r.Tags = []string{"отпуск"}
	r.Errors = []FieldError{{Field: "x", Message: "y"}}

	c := r.Clone()
	c.Tags[0] = "другое"
	c.Errors[0].Field = "z"

	assert.Equal(t, "отпуск", r.Tags[0])
	assert.Equal(t, "x", r.Errors[0].Field)
}

func TestTestDataGenerator(t *testing.T) {
	g := NewTestDataGenerator(42)
	records := g.Records(50, "RUB")
	require.Len(t, records, 50)
	for _, r := range records {
		assert.Empty(t, r.Validate(), "generated record must be valid: %+v", r)
	}
}

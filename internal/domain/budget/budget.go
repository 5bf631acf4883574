// Package budget evaluates spending limits against the ledger. Actuals are
// recomputed on demand with a linear scan over a ledger snapshot; at personal
// ledger sizes there is nothing to cache.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// Period is a half-open date range [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// Month returns the period covering one calendar month.
func Month(year int, month time.Month) Period {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// Budget is a spending limit for a category within a period. An empty
// subcategory covers the whole category.
type Budget struct {
	Category    string
	Subcategory string
	Period      Period
	Limit       decimal.Decimal
}

// Evaluation is the outcome of comparing actual spending against a budget.
type Evaluation struct {
	Budget    Budget
	Actual    decimal.Decimal
	Remaining decimal.Decimal // negative when over budget
	Over      bool
}

// Used returns the spent fraction of the limit as a percentage. A zero
// limit reads as fully used once anything is spent.
func (e Evaluation) Used() float64 {
	if e.Budget.Limit.IsZero() {
		if e.Actual.IsZero() {
			return 0
		}
		return 100
	}
	used, _ := e.Actual.Div(e.Budget.Limit).Mul(decimal.NewFromInt(100)).Float64()
	return used
}

// ComputeActual sums the expenses for a category within the period. Deleted
// and duplicate rows do not count; income and transfers never do.
func ComputeActual(records []*transaction.Record, category, subcategory string, p Period) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		if !rec.CountsInAggregates() {
			continue
		}
		if rec.Type != transaction.TypeExpense {
			continue
		}
		if rec.Category != category {
			continue
		}
		if subcategory != "" && rec.Subcategory != subcategory {
			continue
		}
		if !p.Contains(rec.Date) {
			continue
		}
		total = total.Add(rec.Amount)
	}
	return total
}

// Evaluate compares one budget against the ledger snapshot.
func Evaluate(b Budget, records []*transaction.Record) Evaluation {
	actual := ComputeActual(records, b.Category, b.Subcategory, b.Period)
	remaining := b.Limit.Sub(actual)
	return Evaluation{
		Budget:    b,
		Actual:    actual,
		Remaining: remaining,
		Over:      remaining.IsNegative(),
	}
}

// EvaluateAll evaluates every budget against the same snapshot.
func EvaluateAll(budgets []Budget, records []*transaction.Record) []Evaluation {
	out := make([]Evaluation, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, Evaluate(b, records))
	}
	return out
}

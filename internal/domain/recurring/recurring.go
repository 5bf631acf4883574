// Package recurring materializes template transactions (rent, salary,
// subscriptions) into ledger records on a schedule.
package recurring

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// Frequency names a materialization cadence.
type Frequency string

const (
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
	// FreqCron uses a standard five-field cron expression from the
	// Schedule field, for cadences the fixed frequencies cannot express
	// ("every second Friday").
	FreqCron Frequency = "cron"
)

// Template describes a transaction to be created on a cadence.
type Template struct {
	ID          uuid.UUID
	Name        string
	Type        transaction.Type
	Account     string
	AccountTo   string // transfers only
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Subcategory string
	Tags        []string

	Frequency Frequency
	Schedule  string // cron expression, FreqCron only
	StartDate time.Time
	EndDate   time.Time // zero means open-ended
	// LastCreated is the date of the most recently materialized
	// occurrence. Zero means the template has never fired.
	LastCreated time.Time
}

// Validate checks the template before it is accepted into the schedule.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("template %q: unknown type %q", t.Name, t.Type)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("template %q: amount must be greater than zero", t.Name)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("template %q: start date is required", t.Name)
	}
	switch t.Frequency {
	case FreqWeekly, FreqMonthly, FreqQuarterly, FreqYearly:
	case FreqCron:
		if _, err := cron.ParseStandard(t.Schedule); err != nil {
			return fmt.Errorf("template %q: invalid schedule %q: %w", t.Name, t.Schedule, err)
		}
	default:
		return fmt.Errorf("template %q: unknown frequency %q", t.Name, t.Frequency)
	}
	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("template %q: end date precedes start date", t.Name)
	}
	return nil
}

// NextDue returns the next occurrence after LastCreated, or the first
// occurrence when the template has never fired. ok is false when the
// template is exhausted or misconfigured.
func (t *Template) NextDue() (time.Time, bool) {
	var due time.Time
	switch t.Frequency {
	case FreqWeekly, FreqMonthly, FreqQuarterly, FreqYearly:
		if t.LastCreated.IsZero() {
			due = t.StartDate
		} else {
			due = addInterval(t.LastCreated, t.Frequency)
		}
	case FreqCron:
		schedule, err := cron.ParseStandard(t.Schedule)
		if err != nil {
			return time.Time{}, false
		}
		after := t.LastCreated
		if after.IsZero() {
			// cron Next is strictly after its argument; step back so a
			// start date that matches the schedule fires on day one.
			after = t.StartDate.Add(-time.Second)
		}
		due = schedule.Next(after)
	default:
		return time.Time{}, false
	}

	if due.IsZero() || due.Before(t.StartDate) {
		return time.Time{}, false
	}
	if !t.EndDate.IsZero() && due.After(t.EndDate) {
		return time.Time{}, false
	}
	return due, true
}

func addInterval(base time.Time, f Frequency) time.Time {
	switch f {
	case FreqWeekly:
		return base.AddDate(0, 0, 7)
	case FreqMonthly:
		return base.AddDate(0, 1, 0)
	case FreqQuarterly:
		return base.AddDate(0, 3, 0)
	case FreqYearly:
		return base.AddDate(1, 0, 0)
	}
	return time.Time{}
}

// ShouldMaterialize reports whether the template has an occurrence due at or
// before asOf.
func ShouldMaterialize(t *Template, asOf time.Time) bool {
	due, ok := t.NextDue()
	return ok && !due.After(asOf)
}

// Materialize emits ledger records for every occurrence due at or before
// asOf, advancing LastCreated past each. The SourceID is deterministic
// (template id + occurrence date), so re-running materialization dedupes to
// zero new records.
func Materialize(t *Template, asOf time.Time) []*transaction.Record {
	var out []*transaction.Record
	for ShouldMaterialize(t, asOf) {
		due, _ := t.NextDue()
		out = append(out, &transaction.Record{
			ID:          uuid.New(),
			Date:        due,
			Type:        t.Type,
			Account:     t.Account,
			AccountTo:   t.AccountTo,
			Amount:      t.Amount,
			Currency:    t.Currency,
			Category:    t.Category,
			Subcategory: t.Subcategory,
			Description: t.Name,
			Tags:        append([]string(nil), t.Tags...),
			Source:      transaction.SourceRecurring,
			SourceID:    fmt.Sprintf("%s:%s", t.ID, due.Format("2006-01-02")),
			Status:      transaction.StatusOK,
		})
		t.LastCreated = due
	}
	return out
}

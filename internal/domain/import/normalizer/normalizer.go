// Package normalizer converts format-specific raw records into canonical
// transaction records: date parsing, currency and account defaults, merchant
// derivation, and source identifier assembly. Normalization never fails a
// record; anything questionable lands as needs_review with field errors
// attached.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkuznetsov/homeledger/internal/domain/import/parser"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

// Options carries per-import defaults.
type Options struct {
	// Source is the origin tag of the parser that produced the batch. Raw
	// records re-imported from a ledger export keep their own source.
	Source string
	// DefaultCurrency is applied when the statement carries no currency.
	DefaultCurrency string
	// DefaultAccount is applied when the statement carries no account.
	DefaultAccount string
	// Location resolves statement-local timestamps. Nil means time.Local.
	Location *time.Location
}

// dateLayouts are tried in order. Russian bank exports print dd.mm.yyyy;
// ISO-8601 and slash notation appear in foreign and spreadsheet exports.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"02.01.06",
}

// currencyAliases maps statement currency spellings onto ISO-4217 codes.
var currencyAliases = map[string]string{
	"₽": money.RUB, "руб": money.RUB, "руб.": money.RUB, "rur": money.RUB,
	"$": money.USD, "€": money.EUR,
}

// Normalize converts one raw record into a canonical transaction record. The
// returned record always has an ID and a status; structural problems surface
// as field errors and needs_review, never as a Go error.
func Normalize(raw parser.RawRecord, opts Options) *transaction.Record {
	rec := &transaction.Record{
		ID:          uuid.New(),
		Type:        raw.TypeHint,
		Account:     strings.TrimSpace(raw.Account),
		AccountTo:   strings.TrimSpace(raw.AccountTo),
		Amount:      raw.Amount,
		Currency:    normalizeCurrency(raw.Currency, opts.DefaultCurrency),
		Category:    strings.TrimSpace(raw.Category),
		Subcategory: strings.TrimSpace(raw.Subcategory),
		Merchant:    strings.TrimSpace(raw.Merchant),
		Description: strings.TrimSpace(raw.Description),
		Tags:        append([]string(nil), raw.Tags...),
		Source:      opts.Source,
		SourceID:    strings.TrimSpace(raw.SourceID),
		Status:      transaction.StatusOK,
	}

	if raw.Source != "" {
		rec.Source = raw.Source
	}
	if rec.Type == "" {
		rec.Type = transaction.TypeExpense
	}
	if rec.Account == "" {
		rec.Account = opts.DefaultAccount
	}
	if rec.Merchant == "" {
		rec.Merchant = DeriveMerchant(rec.Description)
	}
	if rec.SourceID == "" {
		rec.SourceID = assembleSourceID(raw)
	}
	if s := transaction.Status(strings.TrimSpace(raw.Status)); knownStatus(s) {
		rec.Status = s
	}

	if raw.ParseErr != "" {
		rec.Errors = append(rec.Errors, transaction.FieldError{
			Field:   "record",
			Message: raw.ParseErr,
		})
	}

	if date, err := parseDate(raw.Date, raw.Time, opts.Location); err != nil {
		rec.Errors = append(rec.Errors, transaction.FieldError{
			Field:   "date",
			Message: err.Error(),
		})
	} else {
		rec.Date = date
	}

	rec.Errors = append(rec.Errors, rec.Validate()...)
	if len(rec.Errors) > 0 {
		rec.Status = transaction.StatusNeedsReview
	}
	return rec
}

// NormalizeAll normalizes a parsed batch, preserving order.
func NormalizeAll(raws []parser.RawRecord, opts Options) []*transaction.Record {
	records := make([]*transaction.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw, opts))
	}
	return records
}

// operationClause marks the start of the card-operation suffix. Matched
// case-insensitively on the original string: lowercasing first would shift
// byte offsets for code points like İ whose lower form is longer.
var operationClause = regexp.MustCompile(`(?i)операция`)

// DeriveMerchant extracts a merchant name from a statement description. Card
// statement descriptions look like "PYATEROCHKA 20477 Shakhty RUS. Операция
// по карте ****7426": the trailing operation clause and the country token are
// statement furniture, not part of the merchant.
func DeriveMerchant(description string) string {
	d := description
	if loc := operationClause.FindStringIndex(d); loc != nil {
		d = d[:loc[0]]
	}
	d = strings.TrimRight(d, " .,;")

	fields := strings.Fields(d)
	for len(fields) > 0 {
		last := strings.ToUpper(strings.Trim(fields[len(fields)-1], "."))
		if last == "RUS" || last == "RU" {
			fields = fields[:len(fields)-1]
			continue
		}
		break
	}
	return strings.Join(fields, " ")
}

// assembleSourceID builds a deterministic identifier for statement formats
// that print an authorization code instead of an operation id. Date and time
// digits prefix the code so codes reused across days stay distinct.
func assembleSourceID(raw parser.RawRecord) string {
	if raw.AuthCode == "" {
		return ""
	}
	return digitsOf(raw.Date) + digitsOf(raw.Time) + raw.AuthCode
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeCurrency(raw, fallback string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return fallback
	}
	if code, ok := currencyAliases[strings.ToLower(c)]; ok {
		return code
	}
	return strings.ToUpper(c)
}

func knownStatus(s transaction.Status) bool {
	switch s {
	case transaction.StatusOK, transaction.StatusNeedsReview,
		transaction.StatusDuplicate, transaction.StatusDeleted:
		return true
	}
	return false
}

// parseDate resolves the printed date (and optional time) in the statement's
// local timezone.
func parseDate(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range dateLayouts {
		if timeStr != "" {
			if t, err := time.ParseInLocation(layout+" 15:04", dateStr+" "+timeStr, loc); err == nil {
				return t, nil
			}
			if t, err := time.ParseInLocation(layout+" 15:04:05", dateStr+" "+timeStr, loc); err == nil {
				return t, nil
			}
		}
		if t, err := time.ParseInLocation(layout, dateStr, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

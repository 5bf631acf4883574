// Package transaction defines the canonical transaction record shared by all
// import sources, manual entry, and recurring materialization, together with
// its validation rules and deduplication key contract.
package transaction

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies the direction of a transaction. The stored amount is always
// positive; the type alone carries the logical sign.
type Type string

const (
	TypeExpense  Type = "expense"
	TypeIncome   Type = "income"
	TypeTransfer Type = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

// Status tracks a record's position in the import/review lifecycle.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNeedsReview Status = "needs_review"
	StatusDuplicate   Status = "duplicate"
	StatusDeleted     Status = "deleted"
)

// FieldError is a field-level validation failure attached to a record during
// import staging. It is data, not a Go error: a record carrying field errors
// still flows through the pipeline and lands as needs_review.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Record is the canonical transaction shape.
type Record struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	Type        Type            `json:"type"`
	Account     string          `json:"account"`
	AccountTo   string          `json:"account_to,omitempty"` // transfers only
	Amount      decimal.Decimal `json:"amount"`               // always > 0
	Currency    string          `json:"currency"`
	Category    string          `json:"category,omitempty"`
	Subcategory string          `json:"subcategory,omitempty"`
	Merchant    string          `json:"merchant,omitempty"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Source      string          `json:"source"`
	SourceID    string          `json:"source_id,omitempty"`
	Status      Status          `json:"status"`
	Errors      []FieldError    `json:"errors,omitempty"` // import staging only
}

// Source tags for the origin of a record.
const (
	SourceManual      = "manual"
	SourceCSV         = "import:csv"
	SourceSberbank    = "import:sberbank"
	SourceSberbankPDF = "import:pdf:sberbank"
	SourceYandexPDF   = "import:pdf:yandex"
	SourceExcel       = "import:xlsx"
	SourceRecurring   = "recurring"
)

// Validate checks structural invariants and returns the list of violations.
// It never mutates the record.
func (r *Record) Validate() []FieldError {
	var errs []FieldError

	if r.Date.IsZero() {
		errs = append(errs, FieldError{Field: "date", Message: "date is required"})
	}
	if !r.Type.Valid() {
		errs = append(errs, FieldError{Field: "type", Message: fmt.Sprintf("unknown type %q", r.Type)})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be greater than zero"})
	}
	if strings.TrimSpace(r.Account) == "" {
		errs = append(errs, FieldError{Field: "account", Message: "account is required"})
	}
	if strings.TrimSpace(r.Currency) == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "currency is required"})
	}

	if r.Type == TypeTransfer {
		switch {
		case strings.TrimSpace(r.AccountTo) == "":
			errs = append(errs, FieldError{Field: "account_to", Message: "transfer requires a destination account"})
		case r.AccountTo == r.Account:
			errs = append(errs, FieldError{Field: "account_to", Message: "transfer destination must differ from source account"})
		}
		if r.Category != "" {
			errs = append(errs, FieldError{Field: "category", Message: "transfers cannot carry a category"})
		}
	} else if r.AccountTo != "" {
		errs = append(errs, FieldError{Field: "account_to", Message: "account_to is only valid for transfers"})
	}

	return errs
}

// DedupeKey returns the stable key used for duplicate suppression.
//
// When a source-specific identifier is present the key is "source:sourceId".
// Otherwise it is "source:" followed by the MD5 hex of the pipe-joined
// canonical fields date|account|amount|type, with the date as yyyy-mm-dd and
// the amount with trailing zeros trimmed. The format is a compatibility
// contract with previously exported data and must not change.
func (r *Record) DedupeKey() string {
	if r.SourceID != "" {
		return r.Source + ":" + r.SourceID
	}
	joined := strings.Join([]string{
		r.Date.Format("2006-01-02"),
		r.Account,
		r.Amount.String(),
		string(r.Type),
	}, "|")
	sum := md5.Sum([]byte(joined))
	return r.Source + ":" + hex.EncodeToString(sum[:])
}

// CountsInAggregates reports whether the record participates in budget and
// report calculations. Deleted and duplicate rows do not.
func (r *Record) CountsInAggregates() bool {
	return r.Status != StatusDeleted && r.Status != StatusDuplicate
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Errors != nil {
		out.Errors = append([]FieldError(nil), r.Errors...)
	}
	return &out
}

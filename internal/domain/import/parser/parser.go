// Package parser extracts raw transaction records from bank statement
// exports: generic CSV, Sberbank CSV, OCR-extracted PDF text from Sberbank
// and Yandex, and Excel workbooks. Each format implements StatementParser;
// a Registry tries them in priority order.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

var (
	// ErrFormatNotRecognized is returned when no registered parser claims
	// the input.
	ErrFormatNotRecognized = errors.New("file format not recognized")
	// ErrNoRecords is returned when a parser recognized the format but
	// found zero transaction rows, which means detection was a false
	// positive or the file is truncated.
	ErrNoRecords = errors.New("no transactions found")
)

// Input is one statement file. PDF-to-text extraction happens upstream; for
// PDF statements Data holds the extracted plain text.
type Input struct {
	Data     []byte
	FileName string
}

// Text returns the input as a string with a UTF-8 BOM stripped.
func (in Input) Text() string {
	return strings.TrimPrefix(string(in.Data), "\uFEFF")
}

// Options tweaks parsing behavior per import run.
type Options struct {
	// DefaultCurrency is recorded on rows whose format carries no currency.
	DefaultCurrency string
}

// RawRecord is the format-specific intermediate structure produced by a
// parser before normalization. String fields hold values as found in the
// statement; Amount is already numeric because sign handling is part of the
// format, not of normalization.
type RawRecord struct {
	Line int // source line number, for error reporting

	Date     string // as printed, e.g. "29.10.2025" or "2025-10-29"
	Time     string // optional, "18:36"
	AuthCode string // optional authorization code

	// TypeHint is the transaction type derived from the amount sign or
	// from recognized keywords. Empty when the format gives no signal;
	// the normalizer then defaults to expense.
	TypeHint transaction.Type

	Amount    decimal.Decimal // absolute value
	AmountRaw string          // original amount text
	Currency  string

	Account     string
	AccountTo   string
	Category    string
	Subcategory string
	Merchant    string
	Description string
	Tags        []string

	SourceID string // explicit source identifier when the format has one
	Source   string // set on ledger re-imports to preserve dedupe keys
	Status   string // only generic CSV re-imports carry a status column

	// ParseErr is set when the line matched a record shape but individual
	// fields could not be extracted; the record still flows through and
	// surfaces as needs_review.
	ParseErr string
}

// StatementParser is the capability one bank/format implementation provides.
type StatementParser interface {
	// Name identifies the parser in logs and error messages.
	Name() string
	// Source is the origin tag stamped on records this parser produces.
	Source() string
	// Detect reports whether the input looks like this parser's format.
	// It is a pure heuristic with no false-negative guarantee.
	Detect(in Input) bool
	// Parse extracts raw records. Malformed lines degrade to records with
	// ParseErr set; Parse fails only when zero records are found.
	Parse(in Input, opts Options) ([]RawRecord, error)
}

// Registry holds parsers in priority order. Order matters: Yandex statements
// are checked before Sberbank ones because OCR noise can contain markers of
// both.
type Registry struct {
	parsers []StatementParser
}

// NewRegistry creates a registry with the given parsers, tried in order.
func NewRegistry(parsers ...StatementParser) *Registry {
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns the standard parser set: Yandex PDF text, Sberbank
// PDF text, Sberbank CSV, Excel, then generic CSV as the catch-all.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewYandexPDFParser(),
		NewSberbankPDFParser(),
		NewSberbankCSVParser(),
		NewExcelParser(),
		NewGenericCSVParser(),
	)
}

// Detect returns the first parser claiming the input.
func (r *Registry) Detect(in Input) (StatementParser, error) {
	for _, p := range r.parsers {
		if p.Detect(in) {
			return p, nil
		}
	}
	return nil, ErrFormatNotRecognized
}

// ByName returns the parser with the given name, for explicit format
// overrides from the caller.
func (r *Registry) ByName(name string) (StatementParser, error) {
	for _, p := range r.parsers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown statement format %q", name)
}

// Parsers returns the registered parsers in priority order.
func (r *Registry) Parsers() []StatementParser {
	return r.parsers
}

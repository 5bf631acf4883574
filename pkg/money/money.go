// Package money provides currency-safe monetary values and parsing for the
// amount notations found in bank statements: space-grouped thousands, comma
// decimals, and the several unicode minus glyphs OCR produces.
package money

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217).
const (
	RUB = "RUB"
	USD = "USD"
	EUR = "EUR"
)

// DefaultCurrency is applied when a statement carries no currency marker.
const DefaultCurrency = RUB

// Money is a monetary value with currency. It wraps go-money for arithmetic
// and formatting and shopspring/decimal for exact conversion.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units (kopecks/cents).
func New(minor int64, currencyCode string) *Money {
	return &Money{m: money.New(minor, currencyCode)}
}

// NewFromDecimal creates Money from a decimal amount in major units.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(DefaultCurrency)
	}
	minor := amount.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
	return New(minor, currencyCode)
}

// Minor returns the amount in minor units.
func (m *Money) Minor() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Decimal returns the amount in major units.
func (m *Money) Decimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	fraction := int32(m.m.Currency().Fraction)
	return decimal.New(m.m.Amount(), -fraction)
}

// Currency returns the ISO-4217 currency code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Display renders the value with its currency symbol.
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// Add returns m + other. Currencies must match.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// minusGlyphs are the characters statements and OCR output use for negative
// amounts besides the ASCII hyphen-minus: en dash and the true minus sign.
var minusGlyphs = []string{"–", "−"}

// currencyMarkers are stripped from amount strings before numeric parsing.
var currencyMarkers = []string{"₽", "руб.", "руб", "р.", "$", "€", "RUB", "USD", "EUR"}

// ParseAmount parses a statement amount string into an absolute decimal value
// and a negative flag. It accepts "1 500,00", "1500.00", "−204,98",
// "1.234,56" and "1,234.56"; thousands may be grouped with spaces,
// non-breaking spaces, dots or commas.
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, false, fmt.Errorf("empty amount")
	}

	for _, g := range minusGlyphs {
		cleaned = strings.ReplaceAll(cleaned, g, "-")
	}
	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	// Space, NBSP, and thin-space thousands separators.
	for _, sp := range []string{" ", " ", " "} {
		cleaned = strings.ReplaceAll(cleaned, sp, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.Trim(cleaned, "()")
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	cleaned = normalizeSeparators(cleaned)
	if cleaned == "" {
		return decimal.Zero, false, fmt.Errorf("no digits in amount %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		negative = true
		d = d.Abs()
	}
	return d, negative, nil
}

// normalizeSeparators rewrites comma/dot separators into plain decimal-point
// notation. When both appear, the last one is the decimal separator; a lone
// comma or dot is decimal only when at most two digits follow it.
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		idx := strings.LastIndex(s, ",")
		if len(s)-idx-1 <= 2 {
			s = strings.ReplaceAll(s[:idx], ",", "") + "." + s[idx+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		idx := strings.LastIndex(s, ".")
		if len(s)-idx-1 > 2 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

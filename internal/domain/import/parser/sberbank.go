package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

// sberRecordRe matches the first line of a Sberbank card statement entry:
// date, time, optional auth code, category text, amount, optional balance.
// Amounts are comma-decimal with space or NBSP thousands grouping, credits
// carry a leading "+".
//
//	29.10.2025 18:36 574763 Супермаркеты 204,98 97 005,99
var sberRecordRe = regexp.MustCompile(
	`^(\d{2}\.\d{2}\.\d{4})\s+(\d{2}:\d{2})(?:\s+(\d{4,8}))?\s+(.+?)\s+([+\-–−]?\d[\d\s  ]*(?:,\d{2})?)(?:\s+([+\-–−]?\d[\d\s  ]*(?:,\d{2})?))?\s*$`)

// sberLooseRe recovers entries whose amount column was mangled by OCR. The
// date and time are kept and the rest of the line is preserved for review.
var sberLooseRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(\d{2}:\d{2})\s+(.*)$`)

var sberDetectMarkers = []string{
	"сбербанк",
	"sberbank",
	"дата операции (мск)",
	"операция по карте",
}

// sberFooterMarkers end a transaction section; continuation text after them
// belongs to page furniture, not to the open record.
var sberFooterMarkers = []string{
	"продолжение на следующей странице",
	"сформировано",
	"итого по операциям",
	"страница",
	"обороты по счету",
	"остаток по счету",
}

// sberHeaderMarkers are table headers that repeat on every statement page.
var sberHeaderMarkers = []string{
	"дата операции",
	"категория",
	"сумма в валюте",
	"расшифровка операций",
	"остаток средств",
}

// sberIncomeKeywords flag a credit entry when the amount itself is unsigned.
var sberIncomeKeywords = []string{
	"зачисление", "возврат", "входящий перевод", "капитализация",
}

// SberbankPDFParser parses OCR-extracted text of Sberbank card statements.
// It is a line state machine: a composite regex recognizes record lines,
// and following lines are accumulated into the open record's description
// until the next record or a section marker.
type SberbankPDFParser struct{}

// NewSberbankPDFParser creates the Sberbank PDF text parser.
func NewSberbankPDFParser() *SberbankPDFParser {
	return &SberbankPDFParser{}
}

func (p *SberbankPDFParser) Name() string { return "sberbank-pdf" }

func (p *SberbankPDFParser) Source() string { return transaction.SourceSberbankPDF }

// Detect looks for Sberbank statement markers plus at least one
// record-shaped line. The marker check alone is not enough: a CSV dump of
// previously imported records carries the same phrases inside descriptions.
// Registered after the Yandex parser because OCR noise can contain both
// banks' names.
func (p *SberbankPDFParser) Detect(in Input) bool {
	text := in.Text()
	lower := strings.ToLower(text)
	marked := false
	for _, marker := range sberDetectMarkers {
		if strings.Contains(lower, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}
	for _, line := range strings.Split(text, "\n") {
		if sberLooseRe.MatchString(strings.TrimSpace(strings.TrimRight(line, "\r"))) {
			return true
		}
	}
	return false
}

// Parse runs the line state machine over the statement text.
func (p *SberbankPDFParser) Parse(in Input, opts Options) ([]RawRecord, error) {
	var (
		records []RawRecord
		current *RawRecord
	)

	flush := func() {
		if current != nil {
			current.Description = strings.TrimSpace(current.Description)
			records = append(records, *current)
			current = nil
		}
	}

	for lineNum, rawLine := range strings.Split(in.Text(), "\n") {
		line := strings.TrimSpace(strings.TrimRight(rawLine, "\r"))
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if matchesAny(lower, sberFooterMarkers) {
			flush()
			continue
		}

		if m := sberRecordRe.FindStringSubmatch(line); m != nil {
			flush()
			rec := RawRecord{
				Line:      lineNum + 1,
				Date:      m[1],
				Time:      m[2],
				AuthCode:  m[3],
				Category:  strings.TrimSpace(m[4]),
				AmountRaw: strings.TrimSpace(m[5]),
				Currency:  opts.DefaultCurrency,
			}

			amount, _, err := money.ParseAmount(rec.AmountRaw)
			if err != nil {
				rec.ParseErr = fmt.Sprintf("invalid amount %q: %v", rec.AmountRaw, err)
			} else {
				rec.Amount = amount
				rec.TypeHint = sberTypeHint(rec.AmountRaw, rec.Category)
			}
			current = &rec
			continue
		}

		// A date+time line with an unparseable tail starts a new record
		// anyway, so a partially readable statement yields partial results
		// instead of bleeding into the previous record's description.
		if m := sberLooseRe.FindStringSubmatch(line); m != nil {
			flush()
			records = append(records, RawRecord{
				Line:        lineNum + 1,
				Date:        m[1],
				Time:        m[2],
				Description: strings.TrimSpace(m[3]),
				Currency:    opts.DefaultCurrency,
				ParseErr:    "could not extract amount",
			})
			continue
		}

		// Table headers repeat on every page; they never belong to a record.
		if matchesAny(lower, sberHeaderMarkers) {
			continue
		}

		if current != nil {
			if current.Description != "" {
				current.Description += " "
			}
			current.Description += line
		}
	}
	flush()

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// sberTypeHint derives the entry type from the amount sign and category
// keywords. Unsigned entries default to expense, which is what card
// statements overwhelmingly contain.
func sberTypeHint(amountRaw, category string) transaction.Type {
	if strings.HasPrefix(amountRaw, "+") {
		return transaction.TypeIncome
	}
	lower := strings.ToLower(category)
	for _, kw := range sberIncomeKeywords {
		if strings.Contains(lower, kw) {
			return transaction.TypeIncome
		}
	}
	return transaction.TypeExpense
}

func matchesAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// SberbankCSVParser parses the semicolon-delimited CSV export from Sberbank
// Online. The export has fixed Russian headers, signed amounts, and no
// explicit operation identifiers.
type SberbankCSVParser struct{}

// NewSberbankCSVParser creates the Sberbank CSV parser.
func NewSberbankCSVParser() *SberbankCSVParser {
	return &SberbankCSVParser{}
}

func (p *SberbankCSVParser) Name() string { return "sberbank-csv" }

func (p *SberbankCSVParser) Source() string { return transaction.SourceSberbank }

// Detect requires the distinctive Sberbank Online export headers.
func (p *SberbankCSVParser) Detect(in Input) bool {
	if bytes.IndexByte(in.Data, 0) >= 0 {
		return false
	}
	head := strings.ToLower(firstLines(in.Text(), 5))
	return strings.Contains(head, "дата операции") &&
		strings.Contains(head, "сумма в валюте")
}

// Parse reads the fixed Sberbank Online column layout.
func (p *SberbankCSVParser) Parse(in Input, opts Options) ([]RawRecord, error) {
	reader := csv.NewReader(strings.NewReader(in.Text()))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatNotRecognized, err)
	}

	col := func(names ...string) int {
		for i, h := range headers {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, n := range names {
				if strings.Contains(h, n) {
					return i
				}
			}
		}
		return -1
	}

	dateCol := col("дата операции")
	timeCol := col("время")
	cardCol := col("номер карты")
	descCol := col("описание операции")
	categoryCol := col("категория")
	amountCol := col("сумма в валюте счёта", "сумма в валюте счета", "сумма операции")
	currencyCol := col("валюта счёта", "валюта счета", "валюта операции")

	if dateCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("%w: missing required sberbank columns", ErrFormatNotRecognized)
	}

	var records []RawRecord
	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			records = append(records, RawRecord{Line: lineNum, ParseErr: err.Error()})
			continue
		}

		get := func(idx int) string {
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		dateStr := get(dateCol)
		if dateStr == "" {
			continue
		}
		// Some exports merge date and time into one cell.
		timeStr := get(timeCol)
		if timeStr == "" {
			if parts := strings.Fields(dateStr); len(parts) == 2 {
				dateStr, timeStr = parts[0], parts[1]
			}
		}

		rec := RawRecord{
			Line:        lineNum,
			Date:        dateStr,
			Time:        timeStr,
			Account:     get(cardCol),
			Category:    get(categoryCol),
			Description: get(descCol),
			AmountRaw:   get(amountCol),
			Currency:    get(currencyCol),
		}
		if rec.Currency == "" {
			rec.Currency = opts.DefaultCurrency
		}

		amount, negative, err := money.ParseAmount(rec.AmountRaw)
		if err != nil {
			rec.ParseErr = fmt.Sprintf("invalid amount %q: %v", rec.AmountRaw, err)
			records = append(records, rec)
			continue
		}
		rec.Amount = amount
		if negative {
			rec.TypeHint = transaction.TypeExpense
		} else {
			rec.TypeHint = transaction.TypeIncome
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// firstLines returns up to n leading lines of s.
func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

// yandexAmountLineRe matches a date/amount line of a Yandex statement:
//
//	05.11.2025 − 1 204,00 ₽
//	05.11.2025 18:21 + 3 000,00 ₽
var yandexAmountLineRe = regexp.MustCompile(
	`^(\d{2}\.\d{2}\.\d{4})(?:\s+(\d{2}:\d{2}))?\s*([+\-–−]?\s*\d[\d\s  ]*(?:[.,]\d{2})?)\s*₽?\s*$`)

// yandexInlineRe matches single-line entries where the description sits
// between the timestamp and the amount.
var yandexInlineRe = regexp.MustCompile(
	`^(\d{2}\.\d{2}\.\d{4})(?:\s+(\d{2}:\d{2}))?\s+(.+?)\s+([+\-–−]?\s*\d[\d\s  ]*(?:[.,]\d{2})?)\s*₽\s*$`)

var yandexDetectMarkers = []string{"яндекс", "yandex"}

// yandexNoiseMarkers are lines that belong to page layout, not to records.
var yandexNoiseMarkers = []string{
	"история операций", "итого", "баланс", "страница", "выписка",
	"яндекс банк", "yandex", "период",
}

// YandexPDFParser parses OCR-extracted text of Yandex statements. The page
// layout splits each entry across lines: merchant descriptions come first
// and their date/amount lines follow, so descriptions are queued and matched
// FIFO against subsequent amount lines. Fragile against layout changes, but
// it is the shape the OCR actually produces; alternates can be swapped in
// behind StatementParser without touching the commit core.
type YandexPDFParser struct{}

// NewYandexPDFParser creates the Yandex PDF text parser.
func NewYandexPDFParser() *YandexPDFParser {
	return &YandexPDFParser{}
}

func (p *YandexPDFParser) Name() string { return "yandex-pdf" }

func (p *YandexPDFParser) Source() string { return transaction.SourceYandexPDF }

// Detect requires a bank marker plus at least one amount-shaped line. The
// marker alone is not enough: CSV dumps of previously imported records
// mention the bank inside merchant names. Checked before the Sberbank
// parsers because OCR noise can contain both banks' names.
func (p *YandexPDFParser) Detect(in Input) bool {
	text := in.Text()
	lower := strings.ToLower(text)
	marked := false
	for _, marker := range yandexDetectMarkers {
		if strings.Contains(lower, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if yandexAmountLineRe.MatchString(line) || yandexInlineRe.MatchString(line) {
			return true
		}
	}
	return false
}

// Parse walks the text once, queueing description lines and draining the
// queue whenever a date/amount line appears.
func (p *YandexPDFParser) Parse(in Input, opts Options) ([]RawRecord, error) {
	var (
		records []RawRecord
		pending []string // FIFO description queue
	)

	popPending := func() string {
		if len(pending) == 0 {
			return ""
		}
		d := pending[0]
		pending = pending[1:]
		return d
	}

	for lineNum, rawLine := range strings.Split(in.Text(), "\n") {
		line := strings.TrimSpace(strings.TrimRight(rawLine, "\r"))
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if m := yandexInlineRe.FindStringSubmatch(line); m != nil {
			records = append(records, p.buildRecord(lineNum+1, m[1], m[2], m[3], m[4], opts))
			continue
		}

		if m := yandexAmountLineRe.FindStringSubmatch(line); m != nil {
			records = append(records, p.buildRecord(lineNum+1, m[1], m[2], popPending(), m[3], opts))
			continue
		}

		if matchesAny(lower, yandexNoiseMarkers) {
			continue
		}

		pending = append(pending, line)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func (p *YandexPDFParser) buildRecord(line int, date, timeStr, description, amountRaw string, opts Options) RawRecord {
	rec := RawRecord{
		Line:        line,
		Date:        date,
		Time:        timeStr,
		Description: strings.TrimSpace(description),
		AmountRaw:   strings.TrimSpace(amountRaw),
		Currency:    opts.DefaultCurrency,
	}
	if rec.Description == "" {
		rec.ParseErr = "no description queued for amount line"
	}

	amount, _, err := money.ParseAmount(rec.AmountRaw)
	if err != nil {
		rec.ParseErr = fmt.Sprintf("invalid amount %q: %v", rec.AmountRaw, err)
		return rec
	}
	rec.Amount = amount
	// Credits carry an explicit "+"; everything else on a card statement
	// is a debit.
	if strings.HasPrefix(rec.AmountRaw, "+") {
		rec.TypeHint = transaction.TypeIncome
	} else {
		rec.TypeHint = transaction.TypeExpense
	}
	return rec
}

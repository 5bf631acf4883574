package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/dkuznetsov/homeledger/internal/domain/import/sniffer"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

// GenericCSVParser handles arbitrary CSV/TSV exports. Ledger re-imports (the
// project's own export layout) unmarshal through gocsv struct tags; foreign
// exports fall back to sniffer-driven column matching.
type GenericCSVParser struct{}

// NewGenericCSVParser creates the catch-all CSV parser.
func NewGenericCSVParser() *GenericCSVParser {
	return &GenericCSVParser{}
}

func (p *GenericCSVParser) Name() string { return "generic-csv" }

func (p *GenericCSVParser) Source() string { return transaction.SourceCSV }

// Detect accepts anything the sniffer can derive a tabular layout from.
// The generic parser is registered last, so bank-specific formats have
// already had their chance.
func (p *GenericCSVParser) Detect(in Input) bool {
	if bytes.IndexByte(in.Data, 0) >= 0 {
		return false // binary
	}
	_, err := sniffer.DetectConfig([]byte(in.Text()))
	return err == nil
}

// Parse extracts raw records from CSV text.
func (p *GenericCSVParser) Parse(in Input, opts Options) ([]RawRecord, error) {
	data := []byte(in.Text())
	config, err := sniffer.DetectConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatNotRecognized, err)
	}

	if isLedgerExport(config.Headers) {
		return p.parseLedgerExport(data, config, opts)
	}
	return p.parseWithColumns(data, config, opts)
}

// isLedgerExport recognizes the project's own CSV export layout by its two
// distinctive columns.
func isLedgerExport(headers []string) bool {
	var hasSource, hasSourceID bool
	for _, h := range headers {
		switch strings.TrimSpace(h) {
		case "Источник":
			hasSource = true
		case "Номер операции":
			hasSourceID = true
		}
	}
	return hasSource && hasSourceID
}

// parseLedgerExport unmarshals a re-imported ledger dump via gocsv, keeping
// the original source tags so dedupe keys survive the round trip.
func (p *GenericCSVParser) parseLedgerExport(data []byte, config *sniffer.FileConfig, opts Options) ([]RawRecord, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = config.Delimiter
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})

	var rows []*transaction.CSVRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse ledger export: %w", err)
	}

	records := make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		lineNum := i + 2 // 1-indexed, after header
		if strings.TrimSpace(row.Date) == "" {
			continue
		}

		rec := RawRecord{
			Line:        lineNum,
			Date:        row.Date,
			TypeHint:    transaction.Type(strings.TrimSpace(row.Type)),
			AmountRaw:   row.Amount,
			Currency:    strings.TrimSpace(row.Currency),
			Account:     strings.TrimSpace(row.Account),
			AccountTo:   strings.TrimSpace(row.AccountTo),
			Category:    strings.TrimSpace(row.Category),
			Subcategory: strings.TrimSpace(row.Subcategory),
			Merchant:    strings.TrimSpace(row.Merchant),
			Description: strings.TrimSpace(row.Description),
			Tags:        transaction.SplitTags(row.Tags),
			Source:      strings.TrimSpace(row.Source),
			SourceID:    strings.TrimSpace(row.SourceID),
			Status:      strings.TrimSpace(row.Status),
		}

		amount, negative, err := money.ParseAmount(row.Amount)
		if err != nil {
			rec.ParseErr = err.Error()
		} else {
			rec.Amount = amount
			if rec.TypeHint == "" && negative {
				rec.TypeHint = transaction.TypeExpense
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// parseWithColumns handles foreign CSV exports through sniffer suggestions.
// Individual bad rows degrade to records with ParseErr set.
func (p *GenericCSVParser) parseWithColumns(data []byte, config *sniffer.FileConfig, opts Options) ([]RawRecord, error) {
	cols := sniffer.SuggestColumns(config.Headers)
	if cols.DateCol < 0 || (cols.AmountCol < 0 && !cols.IsDoubleEntry()) {
		return nil, fmt.Errorf("%w: no date/amount columns detected", ErrFormatNotRecognized)
	}

	// Skip preamble and header on raw lines: csv.Reader silently drops blank
	// lines, which would throw off a line-count based skip.
	parts := strings.SplitN(string(data), "\n", config.SkipLines+2)
	if len(parts) < config.SkipLines+2 {
		return nil, ErrNoRecords
	}
	body := parts[config.SkipLines+1]

	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = config.Delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records []RawRecord
	sawNegative := false
	lineNum := config.SkipLines + 1

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

		get := func(col int) string {
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		dateStr := get(cols.DateCol)
		if dateStr == "" {
			continue // summary or separator rows
		}

		amountRaw := get(cols.AmountCol)
		typeHint := parseTypeHint(get(cols.TypeCol))
		if cols.IsDoubleEntry() {
			if debit := get(cols.DebitCol); debit != "" {
				amountRaw = debit
				typeHint = transaction.TypeExpense
			} else if credit := get(cols.CreditCol); credit != "" {
				amountRaw = credit
				typeHint = transaction.TypeIncome
			}
		}

		rec := RawRecord{
			Line:        lineNum,
			Date:        dateStr,
			TypeHint:    typeHint,
			AmountRaw:   amountRaw,
			Currency:    get(cols.CurrencyCol),
			Account:     get(cols.AccountCol),
			AccountTo:   get(cols.ToCol),
			Category:    get(cols.CategoryCol),
			Subcategory: get(cols.SubcatCol),
			Merchant:    get(cols.MerchantCol),
			Description: get(cols.DescCol),
			Tags:        transaction.SplitTags(get(cols.TagsCol)),
			Source:      get(cols.SourceCol),
			SourceID:    get(cols.SourceIDCol),
			Status:      get(cols.StatusCol),
		}

		amount, negative, err := money.ParseAmount(rec.AmountRaw)
		if err != nil {
			rec.ParseErr = fmt.Sprintf("invalid amount %q: %v", rec.AmountRaw, err)
			records = append(records, rec)
			continue
		}
		rec.Amount = amount
		if negative {
			sawNegative = true
			if rec.TypeHint == "" {
				rec.TypeHint = transaction.TypeExpense
			}
		}
		records = append(records, rec)
	}

	// In a sign-carrying file, unsigned rows are credits.
	if sawNegative {
		for i := range records {
			if records[i].TypeHint == "" && records[i].ParseErr == "" {
				records[i].TypeHint = transaction.TypeIncome
			}
		}
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// parseTypeHint maps type column values, Russian or English, onto the
// canonical enumeration.
func parseTypeHint(s string) transaction.Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "расход", "оплата", "списание", "debit":
		return transaction.TypeExpense
	case "income", "доход", "зачисление", "возврат", "credit":
		return transaction.TypeIncome
	case "transfer", "перевод":
		return transaction.TypeTransfer
	}
	return ""
}

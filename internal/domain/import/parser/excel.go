package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dkuznetsov/homeledger/internal/domain/import/sniffer"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

var xlsxMagic = []byte{'P', 'K', 0x03, 0x04}

// ExcelParser reads .xlsx workbooks. Only the first sheet is scanned; bank
// exports put transactions there and use further sheets for summaries.
type ExcelParser struct{}

// NewExcelParser creates the Excel workbook parser.
func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func (p *ExcelParser) Name() string { return "excel" }

func (p *ExcelParser) Source() string { return transaction.SourceExcel }

// Detect checks the file extension or the ZIP container magic.
func (p *ExcelParser) Detect(in Input) bool {
	if strings.HasSuffix(strings.ToLower(in.FileName), ".xlsx") {
		return true
	}
	return bytes.HasPrefix(in.Data, xlsxMagic)
}

// Parse scans the first sheet, locates the header row by the same keyword
// heuristics the CSV sniffer uses, and maps columns through SuggestColumns.
func (p *ExcelParser) Parse(in Input, opts Options) ([]RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatNotRecognized, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRecords
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	headerIdx, cols := findSheetHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: no header row in sheet %q", ErrFormatNotRecognized, sheets[0])
	}

	var records []RawRecord
	sawNegative := false
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		get := func(col int) string {
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		dateStr := get(cols.DateCol)
		if dateStr == "" {
			continue
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
			Line:        i + 1,
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

// findSheetHeader locates the first row that yields usable column
// suggestions within the top of the sheet.
func findSheetHeader(rows [][]string) (int, *sniffer.ColumnSuggestions) {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		cols := sniffer.SuggestColumns(rows[i])
		if cols.DateCol >= 0 && (cols.AmountCol >= 0 || cols.IsDoubleEntry()) {
			return i, cols
		}
	}
	return -1, nil
}

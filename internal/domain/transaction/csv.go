package transaction

import (
	"strings"
	"time"
)

// CSVDateLayout is the locale date format used by CSV exports.
const CSVDateLayout = "02.01.2006"

// CSVRow is the 1:1 CSV serialization of a Record. The header names and the
// semicolon-delimited layout are the project's export contract; re-imports of
// these files round-trip through the generic CSV parser.
type CSVRow struct {
	Date        string `csv:"Дата"`
	Type        string `csv:"Тип"`
	Account     string `csv:"Счет"`
	AccountTo   string `csv:"На счет"`
	Amount      string `csv:"Сумма"`
	Currency    string `csv:"Валюта"`
	Category    string `csv:"Категория"`
	Subcategory string `csv:"Подкатегория"`
	Merchant    string `csv:"Получатель"`
	Description string `csv:"Описание"`
	Tags        string `csv:"Теги"`
	Source      string `csv:"Источник"`
	SourceID    string `csv:"Номер операции"`
	Status      string `csv:"Статус"`
}

// NewCSVRow serializes a record. Dates use the dd.mm.yyyy locale convention;
// amounts keep the dot decimal separator so they survive spreadsheet locale
// settings.
func NewCSVRow(r *Record) CSVRow {
	return CSVRow{
		Date:        r.Date.Format(CSVDateLayout),
		Type:        string(r.Type),
		Account:     r.Account,
		AccountTo:   r.AccountTo,
		Amount:      r.Amount.String(),
		Currency:    r.Currency,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Merchant:    r.Merchant,
		Description: r.Description,
		Tags:        strings.Join(r.Tags, ","),
		Source:      r.Source,
		SourceID:    r.SourceID,
		Status:      string(r.Status),
	}
}

// SplitTags parses a serialized tag list back into a slice.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseCSVDate parses the export date layout, falling back to ISO-8601.
func ParseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(CSVDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

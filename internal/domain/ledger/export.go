package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// ExportCSV writes records in the ledger's CSV export layout: semicolon
// delimited, dd.mm.yyyy dates, Russian headers. The generic CSV parser
// recognizes this layout on re-import, so export/import round-trips are
// lossless for the dedupe contract.
func ExportCSV(w io.Writer, records []*transaction.Record) error {
	rows := make([]transaction.CSVRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, transaction.NewCSVRow(rec))
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}

// ExportJSON writes records as a JSON array with ISO-8601 dates.
func ExportJSON(w io.Writer, records []*transaction.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write json export: %w", err)
	}
	return nil
}

// xlsxHeaders mirrors the CSV export columns.
var xlsxHeaders = []string{
	"Дата", "Тип", "Счет", "На счет", "Сумма", "Валюта", "Категория",
	"Подкатегория", "Получатель", "Описание", "Теги", "Источник",
	"Номер операции", "Статус",
}

// ExportXLSX writes records as an Excel workbook with one transactions
// sheet.
func ExportXLSX(w io.Writer, records []*transaction.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(xlsxHeaders))
	for i, h := range xlsxHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		row := transaction.NewCSVRow(rec)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Date, row.Type, row.Account, row.AccountTo, row.Amount,
			row.Currency, row.Category, row.Subcategory, row.Merchant,
			row.Description, row.Tags, row.Source, row.SourceID, row.Status,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx export: %w", err)
	}
	return nil
}

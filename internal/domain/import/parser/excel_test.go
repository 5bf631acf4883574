package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExcelParser_Parse(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Отчет по операциям"},
		{"Дата", "Сумма", "Описание", "Категория"},
		{"15.01.2025", "-1 500,00", "PYATEROCHKA 20477", "Продукты"},
		{"16.01.2025", "3 000,00", "Зарплата", ""},
	})

	p := NewExcelParser()
	require.True(t, p.Detect(Input{Data: data, FileName: "statement.xlsx"}))

	records, err := p.Parse(Input{Data: data, FileName: "statement.xlsx"}, Options{DefaultCurrency: "RUB"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "15.01.2025", records[0].Date)
	assert.Equal(t, "1500", records[0].Amount.String())
	assert.Equal(t, transaction.TypeExpense, records[0].TypeHint)
	assert.Equal(t, "PYATEROCHKA 20477", records[0].Description)
	assert.Equal(t, "Продукты", records[0].Category)

	assert.Equal(t, "3000", records[1].Amount.String())
	assert.Equal(t, transaction.TypeIncome, records[1].TypeHint)
}

func TestExcelParser_Detect(t *testing.T) {
	p := NewExcelParser()
	assert.True(t, p.Detect(Input{FileName: "export.XLSX"}))
	assert.True(t, p.Detect(Input{Data: []byte{'P', 'K', 0x03, 0x04, 0x00}}))
	assert.False(t, p.Detect(Input{Data: []byte("Дата;Сумма\n"), FileName: "export.csv"}))
}

func TestExcelParser_NoHeader(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"ничего", "полезного"},
		{"здесь", "нет"},
	})

	p := NewExcelParser()
	_, err := p.Parse(Input{Data: data, FileName: "x.xlsx"}, Options{})
	assert.ErrorIs(t, err, ErrFormatNotRecognized)
}

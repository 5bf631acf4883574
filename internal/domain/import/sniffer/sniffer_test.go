package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConfig(t *testing.T) {
	t.Run("detects semicolon delimited ledger export", func(t *testing.T) {
		data := []byte("Дата;Тип;Счет;Сумма;Валюта;Категория;Описание\n" +
			"15.01.2025;expense;Карта;1500;RUB;Продукты;Пятёрочка\n")

		config, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, ';', int32(config.Delimiter))
		assert.Equal(t, 0, config.SkipLines)
		assert.Equal(t, []string{"Дата", "Тип", "Счет", "Сумма", "Валюта", "Категория", "Описание"}, config.Headers)
		require.Len(t, config.SampleRows, 1)
		assert.NotEmpty(t, config.Fingerprint)
	})

	t.Run("skips metadata preamble", func(t *testing.T) {
		data := []byte("Выписка по счёту\nПериод: 01.01.2025 - 31.01.2025\n" +
			"Дата,Тип,Счет,Сумма,Валюта\n" +
			"15.01.2025,expense,Карта,1500,RUB\n")

		config, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, 2, config.SkipLines)
		assert.Equal(t, ',', int32(config.Delimiter))
	})

	t.Run("honors explicit header row override", func(t *testing.T) {
		data := []byte("junk;junk\nДата;Сумма;Счет\n15.01.2025;100;Карта\n")

		config, err := DetectConfigWithOptions(data, &DetectOptions{HeaderRowIndex: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, config.SkipLines)
		assert.Equal(t, []string{"Дата", "Сумма", "Счет"}, config.Headers)
	})

	t.Run("strips UTF-8 BOM from first header", func(t *testing.T) {
		data := []byte("\uFEFFДата;Сумма;Счет\n15.01.2025;100;Карта\n")

		config, err := DetectConfig(data)
		require.NoError(t, err)
		assert.Equal(t, "Дата", config.Headers[0])
	})

	t.Run("fails on empty input", func(t *testing.T) {
		_, err := DetectConfig(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("fails when no plausible header exists", func(t *testing.T) {
		_, err := DetectConfig([]byte("однострочный текст без разделителей\n"))
		assert.ErrorIs(t, err, ErrNoHeadersFound)
	})

	t.Run("fingerprint ignores case and punctuation", func(t *testing.T) {
		a, err := DetectConfig([]byte("Дата;Сумма;Счет\n1;2;3\n"))
		require.NoError(t, err)
		b, err := DetectConfig([]byte("дата ;сумма.;счет\n1;2;3\n"))
		require.NoError(t, err)
		assert.Equal(t, a.Fingerprint, b.Fingerprint)
	})
}

func TestSuggestColumns(t *testing.T) {
	t.Run("maps the canonical export layout", func(t *testing.T) {
		s := SuggestColumns([]string{"Дата", "Тип", "Счет", "Сумма", "Валюта", "Источник", "Статус"})
		assert.Equal(t, 0, s.DateCol)
		assert.Equal(t, 1, s.TypeCol)
		assert.Equal(t, 2, s.AccountCol)
		assert.Equal(t, 3, s.AmountCol)
		assert.Equal(t, 4, s.CurrencyCol)
		assert.Equal(t, 5, s.SourceCol)
		assert.Equal(t, 6, s.StatusCol)
		assert.Equal(t, -1, s.CategoryCol)
	})

	t.Run("maps English headers", func(t *testing.T) {
		s := SuggestColumns([]string{"date", "amount", "account", "category", "description"})
		assert.Equal(t, 0, s.DateCol)
		assert.Equal(t, 1, s.AmountCol)
		assert.Equal(t, 2, s.AccountCol)
		assert.Equal(t, 3, s.CategoryCol)
		assert.Equal(t, 4, s.DescCol)
	})

	t.Run("distinguishes transfer destination from account", func(t *testing.T) {
		s := SuggestColumns([]string{"Счет", "На счет", "Сумма"})
		assert.Equal(t, 0, s.AccountCol)
		assert.Equal(t, 1, s.ToCol)
	})
}
